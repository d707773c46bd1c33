// Package compiler turns submitted source into a runnable artifact.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codecoach/internal/evaluation/model"
	"codecoach/internal/evaluation/sandbox/engine"
	"codecoach/internal/evaluation/sandbox/spec"
	"codecoach/internal/evaluation/toolchain"
	"codecoach/internal/evaluation/workspace"
	"codecoach/pkg/errors"
)

const (
	containerWorkDir   = "/box"
	maxDiagnosticBytes = 64 * 1024
)

// Config controls toolchain invocations.
type Config struct {
	Limits         spec.ResourceLimit `yaml:"limits"` // WallTimeMs acts as the compile deadline
	MaxSourceBytes int64              `yaml:"max_source_bytes"`
	UseRootFS      bool               `yaml:"-"`
}

// Invoker compiles submissions through the sandbox engine. The toolchain
// runs under the same isolation as test executions; the artifact is never
// executed here.
type Invoker struct {
	eng engine.Engine
	tc  toolchain.Spec
	cfg Config
}

// NewInvoker creates a compiler invoker for the given toolchain.
func NewInvoker(eng engine.Engine, tc toolchain.Spec, cfg Config) *Invoker {
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = 1 * 1024 * 1024
	}
	return &Invoker{eng: eng, tc: tc, cfg: cfg}
}

// Compile writes the source into the workspace and runs the toolchain on
// it. Compiler failures and timeouts are reported in the outcome; an error
// return means the toolchain could not be invoked at all.
func (c *Invoker) Compile(ctx context.Context, evalID string, ws *workspace.Workspace, code string) (model.CompileOutcome, error) {
	if int64(len(code)) > c.cfg.MaxSourceBytes {
		return model.CompileOutcome{}, errors.Newf(errors.SourceTooLarge,
			"source is %d bytes, limit is %d", len(code), c.cfg.MaxSourceBytes)
	}
	if err := os.WriteFile(ws.SourcePath(), []byte(code), 0o644); err != nil {
		return model.CompileOutcome{}, errors.Wrap(err, errors.CompileInvokeFailed).
			WithMessagef("write source file: %v", err)
	}

	workDir, srcPath, binPath, logPath, mounts := c.layout(ws)
	cmd, err := c.tc.CompileCommand(srcPath, binPath)
	if err != nil {
		return model.CompileOutcome{}, err
	}

	runSpec := spec.RunSpec{
		EvaluationID: evalID,
		Stage:        "compile",
		WorkDir:      workDir,
		Cmd:          cmd,
		// Same file for both streams: diagnostics arrive combined, in order.
		StdoutPath: logPath,
		StderrPath: logPath,
		BindMounts: mounts,
		Limits:     c.cfg.Limits,
	}

	runRes, err := c.eng.Run(ctx, runSpec)
	if err != nil {
		return model.CompileOutcome{}, errors.Wrap(err, errors.CompileInvokeFailed)
	}

	diagnostics := readDiagnostics(ws.CompileLogPath())
	outcome := model.CompileOutcome{
		OK:          runRes.ExitCode == 0 && !runRes.TimedOut,
		Diagnostics: diagnostics,
		ElapsedMs:   runRes.WallTimeMs,
	}
	if runRes.TimedOut {
		note := fmt.Sprintf("compilation timed out after %dms", c.cfg.Limits.WallTimeMs)
		if diagnostics != "" {
			note = diagnostics + "\n" + note
		}
		outcome.Diagnostics = note
	}
	return outcome, nil
}

// Language returns the toolchain's language identifier.
func (c *Invoker) Language() string { return c.tc.Language }

func (c *Invoker) layout(ws *workspace.Workspace) (workDir, srcPath, binPath, logPath string, mounts []spec.MountSpec) {
	if !c.cfg.UseRootFS {
		return ws.Root(), ws.SourcePath(), ws.ArtifactPath(), ws.CompileLogPath(), nil
	}
	workDir = containerWorkDir
	srcPath = filepath.Join(containerWorkDir, filepath.Base(ws.SourcePath()))
	binPath = filepath.Join(containerWorkDir, filepath.Base(ws.ArtifactPath()))
	logPath = filepath.Join(containerWorkDir, filepath.Base(ws.CompileLogPath()))
	mounts = []spec.MountSpec{{Source: ws.Root(), Target: containerWorkDir}}
	return workDir, srcPath, binPath, logPath, mounts
}

func readDiagnostics(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if len(data) > maxDiagnosticBytes {
		data = data[:maxDiagnosticBytes]
	}
	return strings.ToValidUTF8(string(data), "�")
}
