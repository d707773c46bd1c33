package sandbox

import (
	"context"
	"os"
	"strings"
	"testing"

	"codecoach/internal/evaluation/model"
	"codecoach/internal/evaluation/sandbox/engine"
	"codecoach/internal/evaluation/sandbox/spec"
	"codecoach/internal/evaluation/toolchain"
	"codecoach/internal/evaluation/workspace"
	"codecoach/pkg/errors"
)

// echoEngine copies the stdin file to the stdout file, simulating a program
// that echoes its input.
type echoEngine struct {
	result   engine.RunResult
	err      error
	lastSpec spec.RunSpec
}

func (f *echoEngine) Run(ctx context.Context, rs spec.RunSpec) (engine.RunResult, error) {
	f.lastSpec = rs
	if f.err != nil {
		return engine.RunResult{}, f.err
	}
	data, err := os.ReadFile(rs.StdinPath)
	if err != nil {
		return engine.RunResult{}, err
	}
	if err := os.WriteFile(rs.StdoutPath, data, 0o644); err != nil {
		return engine.RunResult{}, err
	}
	return f.result, nil
}

func newTestWorkspace(t *testing.T) *workspace.Workspace {
	t.Helper()
	m, err := workspace.NewManager(workspace.Config{
		RootDir:      t.TempDir(),
		SourceFile:   "solution.cpp",
		ArtifactFile: "solution",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	ws, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	t.Cleanup(func() { _ = m.Release(ws) })
	return ws
}

func TestRunTestCapturesOutput(t *testing.T) {
	eng := &echoEngine{result: engine.RunResult{ExitCode: 0, WallTimeMs: 42}}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{})
	ws := newTestWorkspace(t)

	out, err := r.RunTest(context.Background(), "eval-1", ws, 1, model.TestCase{Input: "hello\n", Expected: "hello"})
	if err != nil {
		t.Fatalf("run test: %v", err)
	}
	if out.Stdout != "hello\n" {
		t.Fatalf("stdout = %q", out.Stdout)
	}
	if out.ElapsedMs != 42 {
		t.Fatalf("elapsed = %d", out.ElapsedMs)
	}
	if out.TimedOut || out.Crashed {
		t.Fatalf("unexpected flags: %+v", out)
	}
}

func TestRunTestWiresSpecPaths(t *testing.T) {
	eng := &echoEngine{}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{
		Limits: spec.ResourceLimit{WallTimeMs: 5000, MemoryMB: 256},
	})
	ws := newTestWorkspace(t)

	if _, err := r.RunTest(context.Background(), "eval-1", ws, 3, model.TestCase{Input: "in"}); err != nil {
		t.Fatalf("run test: %v", err)
	}
	rs := eng.lastSpec
	if rs.Stage != "test-3" {
		t.Fatalf("stage = %q", rs.Stage)
	}
	if rs.StdinPath != ws.TestInputPath(3) {
		t.Fatalf("stdin path = %q", rs.StdinPath)
	}
	if rs.StdoutPath != ws.TestOutputPath(3) {
		t.Fatalf("stdout path = %q", rs.StdoutPath)
	}
	if rs.WorkDir != ws.RunDir() {
		t.Fatalf("work dir = %q", rs.WorkDir)
	}
	if len(rs.Cmd) != 1 || rs.Cmd[0] != ws.ArtifactPath() {
		t.Fatalf("cmd = %v", rs.Cmd)
	}
	if rs.Limits.WallTimeMs != 5000 || rs.Limits.MemoryMB != 256 {
		t.Fatalf("limits = %+v", rs.Limits)
	}

	input, err := os.ReadFile(ws.TestInputPath(3))
	if err != nil {
		t.Fatalf("input file: %v", err)
	}
	if string(input) != "in" {
		t.Fatalf("input content = %q", input)
	}
}

func TestRunTestTimedOutFlag(t *testing.T) {
	eng := &echoEngine{result: engine.RunResult{ExitCode: -1, TimedOut: true, WallTimeMs: 5000}}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{})
	ws := newTestWorkspace(t)

	out, err := r.RunTest(context.Background(), "eval-1", ws, 1, model.TestCase{Input: "x"})
	if err != nil {
		t.Fatalf("run test: %v", err)
	}
	if !out.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if out.Crashed {
		t.Fatal("timeout must not be reported as crash")
	}
}

func TestRunTestCrashFlag(t *testing.T) {
	eng := &echoEngine{result: engine.RunResult{ExitCode: 139}}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{})
	ws := newTestWorkspace(t)

	out, err := r.RunTest(context.Background(), "eval-1", ws, 1, model.TestCase{Input: "x"})
	if err != nil {
		t.Fatalf("run test: %v", err)
	}
	if !out.Crashed {
		t.Fatal("expected Crashed for exit 139")
	}
}

func TestRunTestEngineFailure(t *testing.T) {
	eng := &echoEngine{err: errors.New(errors.SpawnFailed)}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{})
	ws := newTestWorkspace(t)

	_, err := r.RunTest(context.Background(), "eval-1", ws, 1, model.TestCase{Input: "x"})
	if !errors.Is(err, errors.SandboxError) {
		t.Fatalf("expected SandboxError, got %v", err)
	}
}

func TestRunTestMissingOutputIsEmpty(t *testing.T) {
	// An engine that produces no output file at all, like a crash before
	// the first write.
	eng := &noopEngine{result: engine.RunResult{ExitCode: 1}}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{})
	ws := newTestWorkspace(t)

	out, err := r.RunTest(context.Background(), "eval-1", ws, 1, model.TestCase{Input: "x"})
	if err != nil {
		t.Fatalf("run test: %v", err)
	}
	if out.Stdout != "" {
		t.Fatalf("stdout = %q", out.Stdout)
	}
	if !out.Crashed {
		t.Fatal("expected Crashed")
	}
}

type noopEngine struct {
	result engine.RunResult
}

func (f *noopEngine) Run(ctx context.Context, rs spec.RunSpec) (engine.RunResult, error) {
	return f.result, nil
}

func TestRootFSLayoutUsesContainerPaths(t *testing.T) {
	eng := &noopEngine{}
	r := NewRunner(eng, toolchain.DefaultCpp(), RunnerConfig{UseRootFS: true})
	ws := newTestWorkspace(t)

	workDir, binPath, mounts := r.layout(ws)
	if !strings.HasPrefix(workDir, containerWorkDir) {
		t.Fatalf("work dir = %q", workDir)
	}
	if !strings.HasPrefix(binPath, containerWorkDir) {
		t.Fatalf("bin path = %q", binPath)
	}
	if len(mounts) != 1 || mounts[0].Source != ws.Root() {
		t.Fatalf("mounts = %+v", mounts)
	}
}
