package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInFlight indicates a document submission is already running
	ErrAlreadyInFlight = errors.New("document submission already in flight")
	// ErrNoDocument indicates no document session is active
	ErrNoDocument = errors.New("no active document")
	// ErrEmptyQuestion indicates the question was blank after trimming
	ErrEmptyQuestion = errors.New("empty question")
	// ErrQuestionInFlight indicates the last turn is still awaiting an answer
	ErrQuestionInFlight = errors.New("question already awaiting an answer")
	// ErrInvalidDocument indicates the dropped file cannot be submitted
	ErrInvalidDocument = errors.New("invalid document")
	// ErrTurnNotFound indicates a correlation id no longer matches any turn
	ErrTurnNotFound = errors.New("turn not found")
	// ErrStaleTurn indicates the correlated turn is no longer the last pending entry
	ErrStaleTurn = errors.New("turn is no longer the pending tail")
)

// FailureKind distinguishes where a remote call failed
type FailureKind string

const (
	// FailureTransport covers network errors and non-2xx responses without a body message
	FailureTransport FailureKind = "transport"
	// FailureService covers responses carrying a structured error field
	FailureService FailureKind = "service"
)

// Failure is the normalized error of a remote round-trip.
// The controller only ever displays Message.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewTransportFailure builds a failure from a network or protocol error
func NewTransportFailure(status int, err error) *Failure {
	msg := "request failed"
	switch {
	case err != nil:
		msg = err.Error()
	case status != 0:
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Failure{Kind: FailureTransport, Message: msg, StatusCode: status, Err: err}
}

// NewServiceFailure builds a failure from the service's structured error field
func NewServiceFailure(status int, message string) *Failure {
	return &Failure{Kind: FailureService, Message: message, StatusCode: status}
}

// AsFailure normalizes any error into a Failure
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewTransportFailure(0, err)
}
