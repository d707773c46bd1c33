//go:build !linux

package engine

import (
	"context"

	"codecoach/internal/evaluation/sandbox/spec"
	"codecoach/pkg/errors"
)

type stubEngine struct{}

func NewEngine(cfg Config) (Engine, error) {
	return &stubEngine{}, nil
}

func (s *stubEngine) Run(ctx context.Context, runSpec spec.RunSpec) (RunResult, error) {
	return RunResult{}, errors.New(errors.PlatformNotHandled)
}
