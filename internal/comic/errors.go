package comic

import (
	"errors"
)

// Kind classifies a generation failure
type Kind int

const (
	KindInternal Kind = iota
	KindConfiguration
	KindInvalidInput
	KindUpstreamText
	KindUpstreamImage
	KindRetrieval
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidInput:
		return "invalid_input"
	case KindUpstreamText:
		return "upstream_text"
	case KindUpstreamImage:
		return "upstream_image"
	case KindRetrieval:
		return "retrieval"
	default:
		return "internal"
	}
}

// Error is the failure type returned by Service.Generate.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
