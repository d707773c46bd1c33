package engine

import "codecoach/internal/evaluation/sandbox/spec"

// Config controls sandbox engine behavior. One isolation policy covers
// every run the engine performs.
type Config struct {
	CgroupRoot           string         `yaml:"cgroup_root"`
	HelperPath           string         `yaml:"helper_path"`
	StdoutStderrMaxBytes int64          `yaml:"stdout_stderr_max_bytes"`
	Isolation            spec.Isolation `yaml:"isolation"`
	EnableSeccomp        bool           `yaml:"enable_seccomp"`
	EnableCgroup         bool           `yaml:"enable_cgroup"`
	EnableNamespaces     bool           `yaml:"enable_namespaces"`
}
