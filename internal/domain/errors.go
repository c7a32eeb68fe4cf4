package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a page session has expired or never existed.
	ErrSessionNotFound = errors.New("page session not found")
	// ErrUnknownSection indicates a navigation target outside pre, post and analytics.
	ErrUnknownSection = errors.New("unknown section")
	// ErrUnknownVariant indicates a poll variant other than pre or post.
	ErrUnknownVariant = errors.New("unknown poll variant")
	// ErrUnknownQuestionType indicates a schema entry with an unsupported type tag.
	ErrUnknownQuestionType = errors.New("unknown question type")
	// ErrQuestionNotFound indicates a question id missing from the schema.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a checkbox option missing from its question.
	ErrOptionNotFound = errors.New("option not found")
)

// NetworkError reports a request that never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response. Detail is the server's message verbatim.
type ServerError struct {
	Op     string
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return e.Detail
}

// ParseError reports a response body that is not valid JSON or has the wrong shape.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError is a client-side rejection, e.g. checkbox over-selection.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
