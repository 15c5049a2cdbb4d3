package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindValidation     Kind = "ValidationError"
	KindFetch          Kind = "FetchError"
	KindAnalysis       Kind = "AnalysisError"
	KindMalformedGraph Kind = "MalformedGraphError"
)

// Error is the failure half of an Outcome. Msg is safe to show to callers;
// Err keeps the underlying cause for errors.Is/As and logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Status is the caller-facing classification of an Outcome.
type Status int

const (
	StatusOK Status = iota
	StatusBadInput
	StatusNotFound
	StatusAnalysisFailure
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadInput:
		return "bad-input"
	case StatusNotFound:
		return "not-found"
	case StatusAnalysisFailure:
		return "analysis-failure"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// StatusOf maps an error to its Status. Errors that are not pipeline errors
// count as analysis failures.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var pe *Error
	if !errors.As(err, &pe) {
		return StatusAnalysisFailure
	}
	switch pe.Kind {
	case KindValidation:
		return StatusBadInput
	case KindFetch:
		return StatusNotFound
	}
	return StatusAnalysisFailure
}
