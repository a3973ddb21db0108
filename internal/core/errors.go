package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeNameTaken        = "name_taken"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeRecipientOffline = "recipient_offline"
	ErrCodeInvalidToken     = "invalid_auth_token"
	ErrCodeTargetNotFound   = "target_not_found"
	ErrCodeNotJoined        = "not_joined"
	ErrCodeBadRequest       = "bad_request"
)

var (
	// ErrNameTaken is reported when another connection already holds the requested name.
	ErrNameTaken = errors.New("name already taken")
	// ErrInvalidToken is reported when a join carries a token the verifier rejects.
	ErrInvalidToken = errors.New("invalid auth token")
	// ErrMissingToken is reported when tokens are required and the join carries none.
	ErrMissingToken = errors.New("auth token required")
	// ErrEmptyContent marks a message with neither text nor a usable file.
	ErrEmptyContent = errors.New("message needs text or file")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
