package chat

import (
	"errors"
	"fmt"
)

// ChatError represents errors raised at the conversation boundary
type ChatError struct {
	Type      string
	SessionID string
	Message   string
	Cause     error
}

func (e *ChatError) Error() string {
	scope := ""
	if e.SessionID != "" {
		scope = fmt.Sprintf(" for session %s", e.SessionID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("chat error [%s]%s: %s (caused by: %v)", e.Type, scope, e.Message, e.Cause)
	}
	return fmt.Sprintf("chat error [%s]%s: %s", e.Type, scope, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Cause
}

// Chat error types
const (
	ChatErrorTypeNotFound       = "not_found"
	ChatErrorTypeUpstreamFailed = "upstream_failed"
	ChatErrorTypeRateLimited    = "rate_limited"
)

// NewSessionNotFoundError creates an error for an unknown or missing session id
func NewSessionNotFoundError(sessionID string) *ChatError {
	return &ChatError{
		Type:      ChatErrorTypeNotFound,
		SessionID: sessionID,
		Message:   "session not found",
	}
}

// NewUpstreamError creates an error for a failed or timed-out collaborator call
func NewUpstreamError(sessionID string, cause error) *ChatError {
	return &ChatError{
		Type:      ChatErrorTypeUpstreamFailed,
		SessionID: sessionID,
		Message:   "upstream call failed",
		Cause:     cause,
	}
}

// NewRateLimitedError creates an error for an upstream rate-limit rejection
func NewRateLimitedError(sessionID string, cause error) *ChatError {
	return &ChatError{
		Type:      ChatErrorTypeRateLimited,
		SessionID: sessionID,
		Message:   "upstream rate limited",
		Cause:     cause,
	}
}

// IsSessionNotFound reports whether err is a not-found chat error
func IsSessionNotFound(err error) bool {
	var chatErr *ChatError
	return errors.As(err, &chatErr) && chatErr.Type == ChatErrorTypeNotFound
}

// IsRateLimited reports whether err is a rate-limited chat error
func IsRateLimited(err error) bool {
	var chatErr *ChatError
	return errors.As(err, &chatErr) && chatErr.Type == ChatErrorTypeRateLimited
}
