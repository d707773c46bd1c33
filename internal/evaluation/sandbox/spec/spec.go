// Package spec defines the execution specification handed to the sandbox.
package spec

// ResourceLimit describes hard limits enforced on one sandboxed process.
// Zero means unlimited for that dimension.
type ResourceLimit struct {
	CPUTimeMs  int64 `yaml:"cpu_time_ms"`
	WallTimeMs int64 `yaml:"wall_time_ms"`
	MemoryMB   int64 `yaml:"memory_mb"`
	StackMB    int64 `yaml:"stack_mb"`
	OutputMB   int64 `yaml:"output_mb"`
	PIDs       int64 `yaml:"pids"`
}

// MountSpec describes a bind mount inside the sandbox.
type MountSpec struct {
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
	ReadOnly bool   `yaml:"read_only"`
}

// Isolation describes namespace, rootfs and seccomp settings. A single
// isolation policy applies to every run; there is no per-run override.
type Isolation struct {
	RootFS         string `yaml:"rootfs"`
	SeccompProfile string `yaml:"seccomp_profile"`
	DisableNetwork bool   `yaml:"disable_network"`
}

// RunSpec is the unified execution specification for one sandboxed process,
// either a toolchain invocation or a test run.
type RunSpec struct {
	EvaluationID string   // owning evaluation, used for cgroup naming
	Stage        string   // "compile" or "test-<n>"
	WorkDir      string
	Cmd          []string
	Env          []string
	StdinPath    string
	StdoutPath   string
	StderrPath   string
	BindMounts   []MountSpec
	Limits       ResourceLimit
}
