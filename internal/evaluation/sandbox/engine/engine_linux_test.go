//go:build linux

package engine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codecoach/internal/evaluation/sandbox/spec"
)

func TestLinuxEngineCapturesStdout(t *testing.T) {
	helperPath := buildHelper(t)
	eng := newTestEngine(t, helperPath)

	workDir := t.TempDir()
	stdinPath := filepath.Join(workDir, "stdin.txt")
	stdoutPath := filepath.Join(workDir, "stdout.txt")
	if err := os.WriteFile(stdinPath, []byte("hello sandbox\n"), 0o644); err != nil {
		t.Fatalf("write stdin: %v", err)
	}

	res, err := eng.Run(context.Background(), spec.RunSpec{
		EvaluationID: "eval-echo",
		Stage:        "test-1",
		WorkDir:      workDir,
		Cmd:          []string{"/bin/cat"},
		StdinPath:    stdinPath,
		StdoutPath:   stdoutPath,
		Limits:       spec.ResourceLimit{WallTimeMs: 5000},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if res.TimedOut {
		t.Fatal("unexpected timeout")
	}
	data, err := os.ReadFile(stdoutPath)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if string(data) != "hello sandbox\n" {
		t.Fatalf("stdout = %q", data)
	}
	if res.Stdout != "hello sandbox\n" {
		t.Fatalf("result stdout = %q", res.Stdout)
	}
}

func TestLinuxEngineWallTimeout(t *testing.T) {
	helperPath := buildHelper(t)
	eng := newTestEngine(t, helperPath)
	workDir := t.TempDir()

	start := time.Now()
	res, err := eng.Run(context.Background(), spec.RunSpec{
		EvaluationID: "eval-timeout",
		Stage:        "test-1",
		WorkDir:      workDir,
		Cmd:          []string{"/bin/sleep", "10"},
		Limits:       spec.ResourceLimit{WallTimeMs: 300},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("kill took too long: %s", elapsed)
	}
	if res.ExitCode == 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
}

func TestLinuxEngineNonZeroExit(t *testing.T) {
	helperPath := buildHelper(t)
	eng := newTestEngine(t, helperPath)
	workDir := t.TempDir()

	res, err := eng.Run(context.Background(), spec.RunSpec{
		EvaluationID: "eval-exit",
		Stage:        "test-1",
		WorkDir:      workDir,
		Cmd:          []string{"/bin/sh", "-c", "exit 3"},
		Limits:       spec.ResourceLimit{WallTimeMs: 5000},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !res.Crashed() {
		t.Fatal("expected Crashed")
	}
	if res.TimedOut {
		t.Fatal("unexpected timeout")
	}
}

func TestLinuxEngineCombinedStreams(t *testing.T) {
	helperPath := buildHelper(t)
	eng := newTestEngine(t, helperPath)
	workDir := t.TempDir()
	logPath := filepath.Join(workDir, "combined.log")

	res, err := eng.Run(context.Background(), spec.RunSpec{
		EvaluationID: "eval-combined",
		Stage:        "compile",
		WorkDir:      workDir,
		Cmd:          []string{"/bin/sh", "-c", "echo to-stdout; echo to-stderr 1>&2"},
		StdoutPath:   logPath,
		StderrPath:   logPath,
		Limits:       spec.ResourceLimit{WallTimeMs: 5000},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d", res.ExitCode)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "to-stdout") || !strings.Contains(string(data), "to-stderr") {
		t.Fatalf("combined log = %q", data)
	}
}

func TestLinuxEngineValidatesSpec(t *testing.T) {
	eng := newTestEngine(t, "sandbox-init")
	if _, err := eng.Run(context.Background(), spec.RunSpec{Stage: "t", WorkDir: "/", Cmd: []string{"true"}}); err == nil {
		t.Fatal("expected error for missing evaluation id")
	}
	if _, err := eng.Run(context.Background(), spec.RunSpec{EvaluationID: "e", WorkDir: "/", Cmd: []string{"true"}}); err == nil {
		t.Fatal("expected error for missing stage")
	}
	if _, err := eng.Run(context.Background(), spec.RunSpec{EvaluationID: "e", Stage: "t", Cmd: []string{"true"}}); err == nil {
		t.Fatal("expected error for missing work dir")
	}
	if _, err := eng.Run(context.Background(), spec.RunSpec{EvaluationID: "e", Stage: "t", WorkDir: "/"}); err == nil {
		t.Fatal("expected error for missing command")
	}
}

func newTestEngine(t *testing.T, helperPath string) Engine {
	t.Helper()
	eng, err := NewEngine(Config{
		HelperPath:       helperPath,
		EnableCgroup:     false,
		EnableNamespaces: false,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

// buildHelper compiles a minimal stand-in for the sandbox-init binary.
// Namespaces, cgroups and seccomp stay off here so the test runs without
// privileges; the helper only has to decode the request, redirect IO and
// run the command.
func buildHelper(t *testing.T) string {
	t.Helper()
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not available")
	}

	helperDir := filepath.Join(t.TempDir(), "helper")
	if err := os.MkdirAll(helperDir, 0o755); err != nil {
		t.Fatalf("create helper dir: %v", err)
	}
	goMod := []byte("module sandboxhelper\n\ngo 1.21\n")
	if err := os.WriteFile(filepath.Join(helperDir, "go.mod"), goMod, 0o644); err != nil {
		t.Fatalf("write helper go.mod: %v", err)
	}
	if err := os.WriteFile(filepath.Join(helperDir, "main.go"), []byte(helperSource), 0o644); err != nil {
		t.Fatalf("write helper main.go: %v", err)
	}

	helperPath := filepath.Join(helperDir, "sandbox-init")
	cmd := exec.Command(goBin, "build", "-o", helperPath, ".")
	cmd.Dir = helperDir
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build helper failed: %v: %s", err, string(output))
	}
	return helperPath
}

const helperSource = `package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

type initRequest struct {
	RunSpec runSpec ` + "`json:\"RunSpec\"`" + `
}

type runSpec struct {
	WorkDir    string   ` + "`json:\"WorkDir\"`" + `
	Cmd        []string ` + "`json:\"Cmd\"`" + `
	Env        []string ` + "`json:\"Env\"`" + `
	StdinPath  string   ` + "`json:\"StdinPath\"`" + `
	StdoutPath string   ` + "`json:\"StdoutPath\"`" + `
	StderrPath string   ` + "`json:\"StderrPath\"`" + `
}

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	os.Exit(exitCode)
}

var exitCode int

func run() error {
	var req initRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if len(req.RunSpec.Cmd) == 0 {
		return fmt.Errorf("command is required")
	}
	if req.RunSpec.WorkDir == "" {
		return fmt.Errorf("work dir is required")
	}

	stdinPath := req.RunSpec.StdinPath
	if stdinPath == "" {
		stdinPath = "/dev/null"
	}
	stdoutPath := req.RunSpec.StdoutPath
	if stdoutPath == "" {
		stdoutPath = "/dev/null"
	}
	stderrPath := req.RunSpec.StderrPath
	if stderrPath == "" {
		stderrPath = "/dev/null"
	}

	stdinFile, err := os.Open(stdinPath)
	if err != nil {
		return fmt.Errorf("open stdin: %w", err)
	}
	stdoutFile, err := os.OpenFile(stdoutPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("open stdout: %w", err)
	}
	var stderrFile *os.File
	if stderrPath == stdoutPath {
		stderrFile = stdoutFile
	} else {
		stderrFile, err = os.OpenFile(stderrPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("open stderr: %w", err)
		}
	}

	cmd := exec.Command(req.RunSpec.Cmd[0], req.RunSpec.Cmd[1:]...)
	cmd.Dir = req.RunSpec.WorkDir
	cmd.Stdin = stdinFile
	cmd.Stdout = stdoutFile
	cmd.Stderr = stderrFile
	if len(req.RunSpec.Env) > 0 {
		cmd.Env = req.RunSpec.Env
	}

	runErr := cmd.Run()
	_ = stdinFile.Close()
	_ = stdoutFile.Close()
	if stderrFile != stdoutFile {
		_ = stderrFile.Close()
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			return nil
		}
		return runErr
	}
	return nil
}
`
