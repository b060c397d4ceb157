package service

import (
	"errors"

	"github.com/templui/goalcoach/internal/llm"
)

// CollaboratorError reports a failure of a dependency the chat pipeline cannot
// work around, such as the language model or the goal store.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Hint is a user-facing remedy, empty when there is nothing the operator can
// fix.
func (e *CollaboratorError) Hint() string {
	switch {
	case errors.Is(e.Err, llm.ErrMissingAPIKey):
		return "The language model API key is not set. Configure OPENAI_API_KEY or GEMINI_API_KEY."
	case errors.Is(e.Err, llm.ErrUnauthorized):
		return "The language model rejected the API key. Check OPENAI_API_KEY or GEMINI_API_KEY."
	case errors.Is(e.Err, llm.ErrTimeout):
		return "The language model did not answer in time. Try again shortly."
	}
	return ""
}
