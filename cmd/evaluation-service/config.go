package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"

	"codecoach/internal/common/cache"
	"codecoach/internal/common/mq"
	"codecoach/internal/evaluation/compiler"
	"codecoach/internal/evaluation/evaluator"
	"codecoach/internal/evaluation/sandbox"
	"codecoach/internal/evaluation/sandbox/engine"
	"codecoach/internal/evaluation/toolchain"
	"codecoach/internal/evaluation/workspace"
	"codecoach/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Minute
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultCompileWallMs = int64(30_000)
	defaultRunWallMs     = int64(5_000)
	defaultRunCPUMs      = int64(5_000)
	defaultRunMemoryMB   = int64(256)
	defaultRunStackMB    = int64(64)
	defaultRunOutputMB   = int64(32)
	defaultRunPIDs       = int64(16)
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// KafkaConfig holds producer settings for completion events.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	ClientID     string        `yaml:"clientID"`
	RequiredAcks int           `yaml:"requiredAcks"`
	BatchSize    int           `yaml:"batchSize"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	Compression  string        `yaml:"compression"`
	Topic        string        `yaml:"topic"`
}

// ReportConfig holds report history settings.
type ReportConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// AppConfig holds evaluation-service config. Redis and Kafka are optional;
// leaving their address fields empty disables report history and
// completion events respectively.
type AppConfig struct {
	Server    ServerConfig         `yaml:"server"`
	Logger    logger.Config        `yaml:"logger"`
	Redis     cache.RedisConfig    `yaml:"redis"`
	Kafka     KafkaConfig          `yaml:"kafka"`
	Report    ReportConfig         `yaml:"report"`
	Workspace workspace.Config     `yaml:"workspace"`
	Sandbox   engine.Config        `yaml:"sandbox"`
	Toolchain toolchain.Spec       `yaml:"toolchain"`
	Compile   compiler.Config      `yaml:"compile"`
	Run       sandbox.RunnerConfig `yaml:"run"`
	Evaluator evaluator.Config     `yaml:"evaluator"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return nil, err
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Redis.Addr != "" {
		applyRedisDefaults(&cfg.Redis)
	}
	if cfg.Toolchain.Language == "" {
		cfg.Toolchain = toolchain.DefaultCpp()
	}
	if err := cfg.Toolchain.Validate(); err != nil {
		return nil, err
	}
	if cfg.Compile.Limits.WallTimeMs == 0 {
		cfg.Compile.Limits.WallTimeMs = defaultCompileWallMs
	}
	applyRunDefaults(&cfg.Run)
	useRootFS := cfg.Sandbox.Isolation.RootFS != ""
	cfg.Compile.UseRootFS = useRootFS
	cfg.Run.UseRootFS = useRootFS
	cfg.Workspace.SourceFile = cfg.Toolchain.SourceFile
	cfg.Workspace.ArtifactFile = cfg.Toolchain.ArtifactFile
	return &cfg, nil
}

func applyRunDefaults(run *sandbox.RunnerConfig) {
	if run.Limits.WallTimeMs == 0 {
		run.Limits.WallTimeMs = defaultRunWallMs
	}
	if run.Limits.CPUTimeMs == 0 {
		run.Limits.CPUTimeMs = defaultRunCPUMs
	}
	if run.Limits.MemoryMB == 0 {
		run.Limits.MemoryMB = defaultRunMemoryMB
	}
	if run.Limits.StackMB == 0 {
		run.Limits.StackMB = defaultRunStackMB
	}
	if run.Limits.OutputMB == 0 {
		run.Limits.OutputMB = defaultRunOutputMB
	}
	if run.Limits.PIDs == 0 {
		run.Limits.PIDs = defaultRunPIDs
	}
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
}

func (k KafkaConfig) toMQConfig() mq.KafkaConfig {
	return mq.KafkaConfig{
		Brokers:      k.Brokers,
		ClientID:     k.ClientID,
		RequiredAcks: kafka.RequiredAcks(k.RequiredAcks),
		BatchSize:    k.BatchSize,
		BatchTimeout: k.BatchTimeout,
		DialTimeout:  k.DialTimeout,
		WriteTimeout: k.WriteTimeout,
		Compression:  parseCompression(k.Compression),
	}
}

func parseCompression(raw string) kafka.Compression {
	switch strings.ToLower(raw) {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Compression(0)
	}
}
