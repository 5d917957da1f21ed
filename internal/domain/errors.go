package domain

import "errors"

var (
	ErrPromptRequired    = errors.New("Prompt is required")
	ErrInvalidPayload    = errors.New("Invalid JSON body")
	ErrMissingCredential = errors.New("OpenAI API key is not configured")
	ErrUpstream          = errors.New("upstream failure")
)
