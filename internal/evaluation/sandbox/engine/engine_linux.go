//go:build linux

package engine

import (
	"bytes"
	"context"
	stderrors "errors"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"codecoach/internal/evaluation/sandbox/spec"
	"codecoach/pkg/errors"
	"codecoach/pkg/utils/logger"
)

const defaultStdoutStderrMaxBytes int64 = 64 * 1024

type linuxEngine struct {
	cfg Config
}

// NewEngine creates a Linux sandbox engine.
func NewEngine(cfg Config) (Engine, error) {
	if cfg.StdoutStderrMaxBytes <= 0 {
		cfg.StdoutStderrMaxBytes = defaultStdoutStderrMaxBytes
	}
	if cfg.HelperPath == "" {
		cfg.HelperPath = "sandbox-init"
	}
	if cfg.Isolation.SeccompProfile != "" && !filepath.IsAbs(cfg.Isolation.SeccompProfile) {
		abs, err := filepath.Abs(cfg.Isolation.SeccompProfile)
		if err != nil {
			return nil, errors.Wrapf(err, errors.SandboxError, "resolve seccomp profile %s", cfg.Isolation.SeccompProfile)
		}
		cfg.Isolation.SeccompProfile = abs
	}
	if !cfg.EnableNamespaces && (cfg.Isolation.RootFS != "" || cfg.Isolation.DisableNetwork) {
		return nil, errors.New(errors.SandboxError).WithMessage("rootfs and network isolation require namespaces")
	}
	return &linuxEngine{cfg: cfg}, nil
}

func (e *linuxEngine) Run(ctx context.Context, runSpec spec.RunSpec) (RunResult, error) {
	if err := validateRunSpec(runSpec); err != nil {
		return RunResult{}, err
	}

	cgroupPath := ""
	cgroupCleanup := func() {}
	var err error
	if e.cfg.EnableCgroup {
		cgroupPath, cgroupCleanup, err = createRunCgroup(e.cfg.CgroupRoot, runSpec.EvaluationID, runSpec.Stage)
		if err != nil {
			return RunResult{}, errors.Wrap(err, errors.CgroupError)
		}
		if err := applyCgroupLimits(cgroupPath, runSpec.Limits); err != nil {
			cgroupCleanup()
			return RunResult{}, errors.Wrap(err, errors.CgroupError)
		}
	}
	defer cgroupCleanup()

	initReq := initRequest{
		RunSpec:       runSpec,
		Isolation:     e.cfg.Isolation,
		EnableSeccomp: e.cfg.EnableSeccomp,
		EnableNs:      e.cfg.EnableNamespaces,
	}

	stdinPipe := jsonToPipe(initReq)
	defer stdinPipe.Close()

	cmd := exec.CommandContext(ctx, e.cfg.HelperPath)
	cmd.SysProcAttr = buildSysProcAttr(e.cfg.Isolation, e.cfg.EnableNamespaces)
	cmd.Stdin = stdinPipe

	var helperStderr bytes.Buffer
	cmd.Stderr = &helperStderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return RunResult{}, errors.Wrapf(err, errors.SpawnFailed, "start sandbox helper %s", e.cfg.HelperPath)
	}

	if e.cfg.EnableCgroup {
		if err := addProcessToCgroup(cgroupPath, cmd.Process.Pid); err != nil {
			logger.Warn(ctx, "add process to cgroup failed", zap.String("cgroup", cgroupPath), zap.Error(err))
		}
	}

	var timedOut atomic.Bool
	done := make(chan struct{})
	go func() {
		wallLimit := durationFromMs(runSpec.Limits.WallTimeMs)
		var wallTimer <-chan time.Time
		if wallLimit > 0 {
			wallTimer = time.After(wallLimit)
		}
		select {
		case <-ctx.Done():
			killProcessGroup(cmd.Process.Pid)
		case <-wallTimer:
			timedOut.Store(true)
			killProcessGroup(cmd.Process.Pid)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()
	close(done)

	if waitErr != nil && helperStderr.Len() > 0 {
		logger.Warn(ctx, "sandbox helper failed",
			zap.String("stage", runSpec.Stage),
			zap.String("stderr", helperStderr.String()))
	}

	stdoutPath := resolveHostPath(runSpec.StdoutPath, runSpec)
	stderrPath := resolveHostPath(runSpec.StderrPath, runSpec)
	runResult := RunResult{
		ExitCode:   exitCodeFromErr(waitErr, cmd.ProcessState),
		CPUTimeMs:  cpuTimeMs(cmd.ProcessState),
		WallTimeMs: time.Since(start).Milliseconds(),
		MemoryKB:   memoryPeakKB(cgroupPath, cmd.ProcessState),
		OutputKB:   stdoutSizeKB(stdoutPath),
		Stdout:     readLimitedFile(stdoutPath, e.cfg.StdoutStderrMaxBytes),
		Stderr:     readLimitedFile(stderrPath, e.cfg.StdoutStderrMaxBytes),
		TimedOut:   timedOut.Load(),
		OomKilled:  wasOomKilled(cgroupPath),
	}

	if waitErr != nil && stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		runResult.TimedOut = true
	}
	if runResult.TimedOut && runResult.ExitCode == 0 {
		runResult.ExitCode = -1
	}

	return runResult, nil
}

func exitCodeFromErr(err error, state *os.ProcessState) int {
	if state != nil {
		return state.ExitCode()
	}
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func validateRunSpec(runSpec spec.RunSpec) error {
	if runSpec.EvaluationID == "" {
		return errors.New(errors.SandboxError).WithMessage("evaluation id is required")
	}
	if runSpec.Stage == "" {
		return errors.New(errors.SandboxError).WithMessage("stage is required")
	}
	if runSpec.WorkDir == "" {
		return errors.New(errors.SandboxError).WithMessage("work dir is required")
	}
	if len(runSpec.Cmd) == 0 {
		return errors.New(errors.SandboxError).WithMessage("command is required")
	}
	return nil
}

func jsonToPipe(req initRequest) io.ReadCloser {
	reader, writer := io.Pipe()
	go func() {
		enc := json.NewEncoder(writer)
		err := enc.Encode(req)
		_ = writer.CloseWithError(err)
	}()
	return reader
}

func buildSysProcAttr(iso spec.Isolation, enableNamespaces bool) *syscall.SysProcAttr {
	attr := &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
	if !enableNamespaces {
		return attr
	}

	cloneFlags := uintptr(syscall.CLONE_NEWNS | syscall.CLONE_NEWPID | syscall.CLONE_NEWUTS | syscall.CLONE_NEWIPC)
	if iso.DisableNetwork {
		cloneFlags |= syscall.CLONE_NEWNET
	}
	cloneFlags |= syscall.CLONE_NEWUSER

	attr.Cloneflags = cloneFlags
	attr.GidMappingsEnableSetgroups = false
	attr.UidMappings = []syscall.SysProcIDMap{{
		ContainerID: 0,
		HostID:      os.Getuid(),
		Size:        1,
	}}
	attr.GidMappings = []syscall.SysProcIDMap{{
		ContainerID: 0,
		HostID:      os.Getgid(),
		Size:        1,
	}}
	return attr
}
