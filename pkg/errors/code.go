package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 20000-20999: Workspace errors
// 21000-21999: Compile errors
// 22000-22999: Execution & Sandbox errors
// 23000-23999: Report store errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200
	CacheMiss  ErrorCode = 10201

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Workspace Errors (20000-20999) ==========

	WorkspaceError         ErrorCode = 20000
	WorkspaceCreateFailed  ErrorCode = 20001
	WorkspaceReleaseFailed ErrorCode = 20002
	WorkspaceCollision     ErrorCode = 20003

	// ========== Compile Errors (21000-21999) ==========

	CompileInvokeFailed  ErrorCode = 21000
	ToolchainNotFound    ErrorCode = 21001
	BadCommandTemplate   ErrorCode = 21002
	SourceTooLarge       ErrorCode = 21003
	LanguageNotSupported ErrorCode = 21004

	// ========== Execution & Sandbox Errors (22000-22999) ==========

	SandboxError       ErrorCode = 22000
	SpawnFailed        ErrorCode = 22001
	CgroupError        ErrorCode = 22002
	PlatformNotHandled ErrorCode = 22003
	EvaluationCanceled ErrorCode = 22004

	// ========== Report Store Errors (23000-23999) ==========

	ReportNotFound     ErrorCode = 23000
	ReportStoreFailed  ErrorCode = 23001
	ReportEncodeFailed ErrorCode = 23002
	HistoryDisabled    ErrorCode = 23003
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests, please try again later",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Cache
	CacheError: "Cache operation failed",
	CacheMiss:  "Cache miss",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Workspace
	WorkspaceError:         "Workspace operation failed",
	WorkspaceCreateFailed:  "Failed to create workspace",
	WorkspaceReleaseFailed: "Failed to release workspace",
	WorkspaceCollision:     "Workspace path already exists",

	// Compile
	CompileInvokeFailed:  "Failed to invoke toolchain",
	ToolchainNotFound:    "Configured toolchain not found",
	BadCommandTemplate:   "Invalid toolchain command template",
	SourceTooLarge:       "Submitted source is too large",
	LanguageNotSupported: "Programming language not supported",

	// Execution & Sandbox
	SandboxError:       "Sandbox execution failed",
	SpawnFailed:        "Failed to spawn child process",
	CgroupError:        "Cgroup operation failed",
	PlatformNotHandled: "Sandbox is not supported on this platform",
	EvaluationCanceled: "Evaluation canceled",

	// Report store
	ReportNotFound:     "Evaluation report not found",
	ReportStoreFailed:  "Failed to store evaluation report",
	ReportEncodeFailed: "Failed to encode evaluation report",
	HistoryDisabled:    "Report history is not enabled",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ReportNotFound, c == HistoryDisabled:
		return 404
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == SourceTooLarge, c == LanguageNotSupported:
		return 400
	default:
		return 500
	}
}
