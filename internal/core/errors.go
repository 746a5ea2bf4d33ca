package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeValidation          = "validation_failed"
	ErrCodePatternMismatch     = "pattern_mismatch"
	ErrCodeInsufficientRights  = "insufficient_rights"
	ErrCodeCooldownActive      = "cooldown_active"
	ErrCodeAmbiguousIdentifier = "ambiguous_identifier"
	ErrCodeUnknownIdentifier   = "unknown_identifier"
	ErrCodePluginNotFound      = "plugin_not_found"
	ErrCodeDuplicateAlias      = "duplicate_alias"
	ErrCodeHookRejected        = "hook_rejected"
	ErrCodeRoomNotFound        = "room_not_found"
	ErrCodeBadRequest          = "bad_request"
)

var (
	ErrAmbiguousIdentifier = errors.New("several users match this identifier")
	ErrUnknownIdentifier   = errors.New("user does not exist")
	ErrRoomNotFound        = errors.New("room not found")
)

// ChatError wraps a code and human-readable message. Every ChatError is
// recoverable at the session boundary: it aborts a single input and is
// surfaced to the offending session only.
type ChatError struct {
	Code    string
	Message string
}

func (e *ChatError) Error() string {
	return e.Message
}

// NewChatError builds a ChatError with the given taxonomy code.
func NewChatError(code, msg string) *ChatError {
	return &ChatError{Code: code, Message: msg}
}

// CodeOf extracts the taxonomy code from err, or bad_request for plain errors.
func CodeOf(err error) string {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrAmbiguousIdentifier):
		return ErrCodeAmbiguousIdentifier
	case errors.Is(err, ErrUnknownIdentifier):
		return ErrCodeUnknownIdentifier
	case errors.Is(err, ErrRoomNotFound):
		return ErrCodeRoomNotFound
	}
	return ErrCodeBadRequest
}
