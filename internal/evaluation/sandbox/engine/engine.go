// Package engine runs sandboxed processes on behalf of the evaluator.
//
// The real implementation is Linux-only: it spawns a small helper binary in
// fresh namespaces, confines it with cgroup v2 limits, rlimits and an
// optional seccomp filter, and enforces the wall-clock limit from the parent.
package engine

import (
	"context"

	"codecoach/internal/evaluation/sandbox/spec"
)

// RunResult captures raw sandbox execution data for one process.
type RunResult struct {
	ExitCode   int
	CPUTimeMs  int64
	WallTimeMs int64
	MemoryKB   int64
	OutputKB   int64
	Stdout     string
	Stderr     string
	TimedOut   bool // wall-clock limit hit, process was killed
	OomKilled  bool
}

// Crashed reports whether the process failed for a reason other than the
// wall-clock limit.
func (r RunResult) Crashed() bool {
	return !r.TimedOut && r.ExitCode != 0
}

// Engine executes a RunSpec inside an isolated sandbox.
type Engine interface {
	Run(ctx context.Context, runSpec spec.RunSpec) (RunResult, error)
}
