package coordination

import "fmt"

// Code identifies a class of coordination failure.
type Code string

const (
	CodeUnknownAgent     Code = "UNKNOWN_AGENT"
	CodeInvalidScenario  Code = "INVALID_SCENARIO"
	CodeAgentUnavailable Code = "AGENT_UNAVAILABLE"
	CodeNoAgreement      Code = "NO_AGREEMENT"
	CodePolicyViolation  Code = "POLICY_VIOLATION"
	CodeLedgerRejected   Code = "LEDGER_REJECTED"
	CodeDeadlineExceeded Code = "DEADLINE_EXCEEDED"
	CodeNotFound         Code = "NOT_FOUND"
)

// CodedError carries a taxonomy Code alongside a wrapped error chain.
type CodedError struct {
	Code    Code
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.Err }

func newError(code Code, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

func wrapError(code Code, message string, err error) *CodedError {
	return &CodedError{Code: code, Message: message, Err: err}
}

// ErrNotFound is returned when a requested session is absent.
var ErrNotFound = newError(CodeNotFound, "session not found")
