// Package sandbox executes compiled artifacts against test cases.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"codecoach/internal/evaluation/model"
	"codecoach/internal/evaluation/sandbox/engine"
	"codecoach/internal/evaluation/sandbox/spec"
	"codecoach/internal/evaluation/toolchain"
	"codecoach/internal/evaluation/workspace"
	"codecoach/pkg/errors"
)

// containerWorkDir is where the workspace appears inside a rootfs sandbox.
const containerWorkDir = "/box"

// maxActualBytes caps how much captured stdout is read back for comparison.
const maxActualBytes = 16 * 1024 * 1024

// RunnerConfig controls per-test execution.
type RunnerConfig struct {
	Limits spec.ResourceLimit `yaml:"limits"`
	// UseRootFS mounts the workspace at a fixed path inside the sandbox
	// rootfs. Must match the engine's isolation settings.
	UseRootFS bool `yaml:"-"`
}

// Runner runs one test case at a time inside the sandbox engine.
type Runner struct {
	eng engine.Engine
	tc  toolchain.Spec
	cfg RunnerConfig
}

// NewRunner creates a runner for the given toolchain.
func NewRunner(eng engine.Engine, tc toolchain.Spec, cfg RunnerConfig) *Runner {
	return &Runner{eng: eng, tc: tc, cfg: cfg}
}

// RunTest writes the test input, executes the artifact with stdin and
// stdout redirected to workspace files, and reads the captured output back.
// A timed-out or crashed run is a normal outcome, not an error; errors mean
// the sandbox itself failed.
func (r *Runner) RunTest(ctx context.Context, evalID string, ws *workspace.Workspace, idx int, tc model.TestCase) (model.ExecutionOutcome, error) {
	inputPath := ws.TestInputPath(idx)
	if err := os.WriteFile(inputPath, []byte(tc.Input), 0o644); err != nil {
		return model.ExecutionOutcome{}, errors.Wrapf(err, errors.SandboxError, "write test input %d", idx)
	}

	workDir, binPath, mounts := r.layout(ws)
	cmd, err := r.tc.RunCommand(binPath)
	if err != nil {
		return model.ExecutionOutcome{}, err
	}

	runSpec := spec.RunSpec{
		EvaluationID: evalID,
		Stage:        fmt.Sprintf("test-%d", idx),
		WorkDir:      workDir,
		Cmd:          cmd,
		StdinPath:    r.mapped(ws, inputPath),
		StdoutPath:   r.mapped(ws, ws.TestOutputPath(idx)),
		StderrPath:   r.mapped(ws, ws.TestErrorPath(idx)),
		BindMounts:   mounts,
		Limits:       r.cfg.Limits,
	}

	runRes, err := r.eng.Run(ctx, runSpec)
	if err != nil {
		return model.ExecutionOutcome{}, errors.Wrapf(err, errors.SandboxError, "run test %d", idx)
	}

	actual, err := readCapped(ws.TestOutputPath(idx), maxActualBytes)
	if err != nil {
		return model.ExecutionOutcome{}, errors.Wrapf(err, errors.SandboxError, "read test %d output", idx)
	}

	return model.ExecutionOutcome{
		Stdout:    actual,
		ExitCode:  runRes.ExitCode,
		ElapsedMs: runRes.WallTimeMs,
		TimedOut:  runRes.TimedOut,
		Crashed:   runRes.Crashed(),
	}, nil
}

// layout decides host versus in-sandbox paths for one run.
func (r *Runner) layout(ws *workspace.Workspace) (workDir, binPath string, mounts []spec.MountSpec) {
	if !r.cfg.UseRootFS {
		return ws.RunDir(), ws.ArtifactPath(), nil
	}
	workDir = filepath.Join(containerWorkDir, "run")
	binPath = filepath.Join(containerWorkDir, filepath.Base(ws.ArtifactPath()))
	mounts = []spec.MountSpec{{Source: ws.Root(), Target: containerWorkDir}}
	return workDir, binPath, mounts
}

// mapped rewrites a host workspace path into its in-sandbox location when a
// rootfs is in use.
func (r *Runner) mapped(ws *workspace.Workspace, hostPath string) string {
	if !r.cfg.UseRootFS {
		return hostPath
	}
	rel, err := filepath.Rel(ws.Root(), hostPath)
	if err != nil {
		return hostPath
	}
	return filepath.Join(containerWorkDir, rel)
}

func readCapped(path string, max int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if info.Size() <= max {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, max)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "", err
	}
	return string(buf[:n]), nil
}
