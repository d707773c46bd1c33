package engine

import "codecoach/internal/evaluation/sandbox/spec"

// initRequest is the JSON document piped to the sandbox-init helper over
// stdin. Field names must stay in sync with the helper's decoder.
type initRequest struct {
	RunSpec       spec.RunSpec
	Isolation     spec.Isolation
	EnableSeccomp bool
	EnableNs      bool
}
