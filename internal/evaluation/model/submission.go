// Package model defines the evaluation engine's domain and wire types.
package model

// TestCase is one stdin/expected-stdout pair. Order matters: results are
// reported by position.
type TestCase struct {
	Input    string
	Expected string
}

// Submission is one piece of source code plus its ordered test cases.
// Immutable once accepted by the engine.
type Submission struct {
	Code     string
	Language string
	Tests    []TestCase
}
