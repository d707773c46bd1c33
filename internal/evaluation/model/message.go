package model

// Wire formats for the HTTP surface. Field names are part of the public
// contract and must not change.

// TestCaseRequest is one test case as submitted by a client.
type TestCaseRequest struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Code      string            `json:"code"`
	Language  string            `json:"language,omitempty"`
	TestCases []TestCaseRequest `json:"test_cases"`
}

// Submission converts the wire request into the domain form.
func (r *EvaluateRequest) Submission() Submission {
	tests := make([]TestCase, 0, len(r.TestCases))
	for _, tc := range r.TestCases {
		tests = append(tests, TestCase{Input: tc.Input, Expected: tc.Expected})
	}
	return Submission{Code: r.Code, Language: r.Language, Tests: tests}
}

// TestResultResponse is one per-test verdict on the wire.
type TestResultResponse struct {
	TestCase        int    `json:"test_case"` // 1-based
	Input           string `json:"input"`
	Expected        string `json:"expected"`
	Actual          string `json:"actual"`
	Passed          bool   `json:"passed"`
	TimedOut        bool   `json:"timed_out"`
	Crashed         bool   `json:"crashed"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
}

// EvaluateResponse is the body of a successful POST /evaluate.
type EvaluateResponse struct {
	EvaluationID         string               `json:"evaluation_id"`
	Compiled             bool                 `json:"compiled"`
	CompileError         string               `json:"compile_error"`
	CompileTimeMs        int64                `json:"compile_time_ms"`
	TestResults          []TestResultResponse `json:"test_results"`
	TotalExecutionTimeMs int64                `json:"total_execution_time_ms"`
}

// NewEvaluateResponse maps a report onto the wire format. TestResults is
// always a non-nil slice so clients see [] rather than null.
func NewEvaluateResponse(r *EvaluationReport) *EvaluateResponse {
	results := make([]TestResultResponse, 0, len(r.Tests))
	for _, t := range r.Tests {
		results = append(results, TestResultResponse{
			TestCase:        t.Index,
			Input:           t.Input,
			Expected:        t.Expected,
			Actual:          t.Actual,
			Passed:          t.Passed,
			TimedOut:        t.Execution.TimedOut,
			Crashed:         t.Execution.Crashed,
			ExecutionTimeMs: t.Execution.ElapsedMs,
		})
	}
	return &EvaluateResponse{
		EvaluationID:         r.ID,
		Compiled:             r.Compiled,
		CompileError:         r.CompileError,
		CompileTimeMs:        r.CompileTimeMs,
		TestResults:          results,
		TotalExecutionTimeMs: r.TotalExecutionTimeMs,
	}
}
