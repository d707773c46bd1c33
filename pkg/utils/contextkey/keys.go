// Package contextkey declares the context keys shared by the http layer and
// the logger, typed to avoid collisions with keys from other packages.
package contextkey

type Key string

const (
	TraceID      Key = "trace_id"
	RequestID    Key = "request_id"
	EvaluationID Key = "evaluation_id"
)
