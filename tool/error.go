package tool

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ToolErrorCodeUnknownTool is returned when no definition matches the requested name.
	ToolErrorCodeUnknownTool = "UNKNOWN_TOOL"
	// ToolErrorCodeInvalidArguments is returned when arguments violate the tool schema.
	ToolErrorCodeInvalidArguments = "INVALID_ARGUMENTS"
	// ToolErrorCodePreconditionFailed is returned when a cross-field precondition fails.
	ToolErrorCodePreconditionFailed = "PRECONDITION_FAILED"
	// ToolErrorCodeMissingCredential is returned when the upstream API key is not configured.
	ToolErrorCodeMissingCredential = "MISSING_CREDENTIAL"
	// ToolErrorCodeUpstreamFailure is returned for non-success upstream responses.
	ToolErrorCodeUpstreamFailure = "UPSTREAM_FAILURE"
	// ToolErrorCodeTransportFailure is returned when transport I/O fails.
	ToolErrorCodeTransportFailure = "TRANSPORT_FAILURE"
	// ToolErrorCodeMalformedResponse is returned when a success response cannot be decoded or projected.
	ToolErrorCodeMalformedResponse = "MALFORMED_RESPONSE"
	// ToolErrorCodeInvocationFailed is a generic fallback for tool invocation failures.
	ToolErrorCodeInvocationFailed = "INVOCATION_FAILED"
)

// ToolError is a structured invocation error that flows from handlers through
// the dispatcher to the transport without losing its machine-readable code.
type ToolError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
	Cause     error          `json:"-"`
}

func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return ToolErrorCodeInvocationFailed
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError builds a ToolError. An empty code falls back to INVOCATION_FAILED and
// an empty message falls back to the cause text.
func NewError(code, message string, cause error) *ToolError {
	cleanCode := strings.TrimSpace(code)
	if cleanCode == "" {
		cleanCode = ToolErrorCodeInvocationFailed
	}
	cleanMsg := strings.TrimSpace(message)
	if cleanMsg == "" && cause != nil {
		cleanMsg = cause.Error()
	}
	return &ToolError{
		Code:    cleanCode,
		Message: cleanMsg,
		Cause:   cause,
	}
}

// Errorf builds a ToolError with a formatted message and no cause.
func Errorf(code, format string, args ...any) *ToolError {
	return NewError(code, fmt.Sprintf(format, args...), nil)
}

// WithRetryable marks the error as safe for the caller to retry.
func (e *ToolError) WithRetryable(retryable bool) *ToolError {
	if e == nil {
		return nil
	}
	e.Retryable = retryable
	return e
}

// WithDetails merges details into the error.
func (e *ToolError) WithDetails(details map[string]any) *ToolError {
	if e == nil || len(details) == 0 {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for key, value := range details {
		e.Details[key] = value
	}
	return e
}

// AsToolError extracts a *ToolError from an error chain.
func AsToolError(err error) (*ToolError, bool) {
	if err == nil {
		return nil, false
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr != nil {
		return toolErr, true
	}
	return nil, false
}

// ErrorCode returns the ToolError code in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	if toolErr, ok := AsToolError(err); ok {
		return toolErr.Code
	}
	return ""
}

// ErrorCodeOrDefault returns ErrorCode(err), or fallback when err carries no code.
func ErrorCodeOrDefault(err error, fallback string) string {
	if code := ErrorCode(err); strings.TrimSpace(code) != "" {
		return code
	}
	if strings.TrimSpace(fallback) == "" {
		return ToolErrorCodeInvocationFailed
	}
	return fallback
}

// HasCode reports whether err carries the given ToolError code.
func HasCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
