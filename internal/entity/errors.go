package entity

import "errors"

// Domain errors
var (
	// Conversation errors
	ErrConversationNotFound = errors.New("conversation not found")

	// Provider errors
	ErrRetrievalUnavailable = errors.New("retrieval service unavailable")
	ErrGenerationFailed     = errors.New("generation failed")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
