package pipeline

import (
	"errors"
	"fmt"

	"github.com/novaquery/novaquery/internal/nl2sql"
)

type Kind string

const (
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindBackend    Kind = "backend"
	KindExtraction Kind = "extraction"
	KindExecution  Kind = "execution"
)

const (
	ServiceTroubleMessage  = "Sorry, I'm having trouble connecting to my AI service right now. Please try again later or contact support."
	NotUnderstoodMessage   = "Sorry, I couldn't understand that question properly. Please try rephrasing it or ask something simpler."
	ConversationalSQLValue = "N/A (Conversational query)"
)

var ErrNoStatement = errors.New("no SELECT statement in generated text")

// Error is a failed business question. Err carries the operator detail and is
// never shown to callers.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the caller-facing text for the failure kind.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindConnection, KindTimeout, KindBackend:
		return ServiceTroubleMessage
	default:
		return NotUnderstoodMessage
	}
}

func generationError(err error) *Error {
	switch {
	case errors.Is(err, nl2sql.ErrTimeout):
		return &Error{Kind: KindTimeout, Err: err}
	case errors.Is(err, nl2sql.ErrUnavailable):
		return &Error{Kind: KindConnection, Err: err}
	default:
		return &Error{Kind: KindBackend, Err: err}
	}
}

// UserMessage returns the caller-facing text for any pipeline error.
func UserMessage(err error) string {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.UserMessage()
	}
	return NotUnderstoodMessage
}
