package model

import "time"

// CompileOutcome reports the result of one toolchain invocation.
type CompileOutcome struct {
	OK          bool
	Diagnostics string // combined compiler stdout+stderr, possibly non-empty even when OK
	ElapsedMs   int64
}

// ExecutionOutcome reports one sandboxed run of the compiled artifact.
type ExecutionOutcome struct {
	Stdout    string
	ExitCode  int
	ElapsedMs int64
	TimedOut  bool
	Crashed   bool // exited non-zero or was killed by a signal
}

// TestOutcome is the verdict for one test case.
type TestOutcome struct {
	Index     int // 1-based position in the submission
	Input     string
	Expected  string
	Actual    string
	Passed    bool
	Execution ExecutionOutcome
}

// EvaluationReport is the complete result of one submission.
type EvaluationReport struct {
	ID                   string
	Compiled             bool
	CompileError         string
	CompileTimeMs        int64
	Tests                []TestOutcome
	TotalExecutionTimeMs int64 // sum of per-test run times, compile time excluded
	CreatedAt            time.Time
}

// PassedCount returns the number of passing tests.
func (r *EvaluationReport) PassedCount() int {
	n := 0
	for _, t := range r.Tests {
		if t.Passed {
			n++
		}
	}
	return n
}
