package token

import (
	"errors"
	"fmt"
)

// Kind classifies why a token could not be decoded.
type Kind int

const (
	Malformed Kind = iota + 1
	MissingExpiry
	UnknownRole
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case MissingExpiry:
		return "missing expiry"
	case UnknownRole:
		return "unknown role"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels matched by errors.Is against any *DecodeError of the same kind.
var (
	ErrMalformed     = errors.New("token malformed")
	ErrMissingExpiry = errors.New("token missing expiry claim")
	ErrUnknownRole   = errors.New("token carries unknown role")
)

// DecodeError reports a token that cannot back a session.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token: %s: %v", e.Kind, e.Err)
	}
	return "token: " + e.Kind.String()
}

func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	switch e.Kind {
	case Malformed:
		errs = append(errs, ErrMalformed)
	case MissingExpiry:
		errs = append(errs, ErrMissingExpiry)
	case UnknownRole:
		errs = append(errs, ErrUnknownRole)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func decodeErr(kind Kind, err error) error {
	return &DecodeError{Kind: kind, Err: err}
}
