// Package evaluator orchestrates one submission end to end: workspace
// acquisition, compilation, per-test execution and report assembly.
package evaluator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codecoach/internal/common/mq"
	"codecoach/internal/evaluation/model"
	"codecoach/internal/evaluation/repository"
	"codecoach/internal/evaluation/workspace"
	"codecoach/pkg/errors"
	"codecoach/pkg/utils/contextkey"
	"codecoach/pkg/utils/logger"
)

// CompilerInvoker compiles a submission inside a workspace.
type CompilerInvoker interface {
	Compile(ctx context.Context, evalID string, ws *workspace.Workspace, code string) (model.CompileOutcome, error)
	Language() string
}

// TestRunner executes one test case against the compiled artifact.
type TestRunner interface {
	RunTest(ctx context.Context, evalID string, ws *workspace.Workspace, idx int, tc model.TestCase) (model.ExecutionOutcome, error)
}

// EventPublisher announces finished evaluations.
type EventPublisher interface {
	PublishCompleted(ctx context.Context, report *model.EvaluationReport) error
}

// Config bounds evaluator behavior.
type Config struct {
	MaxConcurrent  int           `yaml:"max_concurrent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxTestCases   int           `yaml:"max_test_cases"`
}

// Evaluator runs submissions. Store and publisher are optional; when absent
// reports are only returned to the caller.
type Evaluator struct {
	workspaces *workspace.Manager
	compiler   CompilerInvoker
	runner     TestRunner
	limiter    *mq.TokenLimiter
	store      repository.ReportStore
	publisher  EventPublisher
	cfg        Config
}

// New creates an evaluator with defaults applied.
func New(wm *workspace.Manager, ci CompilerInvoker, tr TestRunner, cfg Config) *Evaluator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	if cfg.MaxTestCases <= 0 {
		cfg.MaxTestCases = 100
	}
	return &Evaluator{
		workspaces: wm,
		compiler:   ci,
		runner:     tr,
		limiter:    mq.NewTokenLimiter(cfg.MaxConcurrent),
		cfg:        cfg,
	}
}

// WithStore attaches a report store.
func (e *Evaluator) WithStore(store repository.ReportStore) *Evaluator {
	e.store = store
	return e
}

// WithPublisher attaches a completion event publisher.
func (e *Evaluator) WithPublisher(pub EventPublisher) *Evaluator {
	e.publisher = pub
	return e
}

// Evaluate compiles the submission and runs every test case in order.
// A compile failure short-circuits to a report with no test results.
// Timed-out or crashed tests are recorded and evaluation continues with the
// next case. Only infrastructure failures return an error.
func (e *Evaluator) Evaluate(ctx context.Context, sub model.Submission) (*model.EvaluationReport, error) {
	if err := e.validate(sub); err != nil {
		return nil, err
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		return nil, errors.Wrap(err, errors.EvaluationCanceled)
	}
	defer e.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	evalID := uuid.NewString()
	ctx = context.WithValue(ctx, contextkey.EvaluationID, evalID)

	ws, err := e.workspaces.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := e.workspaces.Release(ws); relErr != nil {
			logger.Warn(ctx, "workspace release failed", zap.Error(relErr))
		}
	}()

	logger.Info(ctx, "evaluation started",
		zap.String("language", e.compiler.Language()),
		zap.Int("test_cases", len(sub.Tests)))

	report := &model.EvaluationReport{
		ID:        evalID,
		Tests:     make([]model.TestOutcome, 0, len(sub.Tests)),
		CreatedAt: time.Now().UTC(),
	}

	compileRes, err := e.compiler.Compile(ctx, evalID, ws, sub.Code)
	if err != nil {
		return nil, err
	}
	report.Compiled = compileRes.OK
	report.CompileTimeMs = compileRes.ElapsedMs
	if !compileRes.OK {
		report.CompileError = compileRes.Diagnostics
		logger.Info(ctx, "compilation failed", zap.Int64("compile_ms", compileRes.ElapsedMs))
		e.finish(ctx, report)
		return report, nil
	}

	for i, tc := range sub.Tests {
		idx := i + 1
		exec, err := e.runner.RunTest(ctx, evalID, ws, idx, tc)
		if err != nil {
			return nil, err
		}
		actual := normalizeOutput(exec.Stdout)
		expected := normalizeOutput(tc.Expected)
		outcome := model.TestOutcome{
			Index:     idx,
			Input:     tc.Input,
			Expected:  tc.Expected,
			Actual:    actual,
			Passed:    actual == expected && !exec.TimedOut,
			Execution: exec,
		}
		report.Tests = append(report.Tests, outcome)
		report.TotalExecutionTimeMs += exec.ElapsedMs
	}

	logger.Info(ctx, "evaluation finished",
		zap.Int("passed", report.PassedCount()),
		zap.Int("total", len(report.Tests)),
		zap.Int64("total_ms", report.TotalExecutionTimeMs))
	e.finish(ctx, report)
	return report, nil
}

// finish persists and announces the report. Both are best effort: the
// caller already has the report in hand.
func (e *Evaluator) finish(ctx context.Context, report *model.EvaluationReport) {
	if e.store != nil {
		if err := e.store.Save(ctx, report); err != nil {
			logger.Warn(ctx, "report save failed", zap.Error(err))
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishCompleted(ctx, report); err != nil {
			logger.Warn(ctx, "report event publish failed", zap.Error(err))
		}
	}
}

func (e *Evaluator) validate(sub model.Submission) error {
	if strings.TrimSpace(sub.Code) == "" {
		return errors.ValidationError("code", "required")
	}
	if sub.Language != "" && sub.Language != e.compiler.Language() {
		return errors.Newf(errors.LanguageNotSupported, "language %q is not supported", sub.Language)
	}
	if len(sub.Tests) > e.cfg.MaxTestCases {
		return errors.Newf(errors.ValidationFailed, "too many test cases: %d, limit is %d", len(sub.Tests), e.cfg.MaxTestCases)
	}
	return nil
}

// normalizeOutput strips one trailing line terminator so a submission
// printing "42\n" matches an expected value of "42". Interior whitespace is
// preserved.
func normalizeOutput(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	if strings.HasSuffix(s, "\n") {
		return s[:len(s)-1]
	}
	return s
}
