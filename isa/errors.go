package isa

import (
	"errors"
	"fmt"
)

// Every error returned while building a model aborts the build. The
// sentinels let callers tell the kinds apart with errors.Is.
var (
	ErrMalformedEncoding   = errors.New("malformed encoding")
	ErrDuplicateDefinition = errors.New("duplicate definition")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrSyntaxTooLong       = errors.New("syntax too long")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Error reports a problem with one named entity of the catalog.
type Error struct {
	Kind error  // One of the Err sentinels.
	Name string // The instruction, register or class at fault.
	Err  string
}

func (err *Error) Error() string {
	if err.Name == "" {
		return fmt.Sprintf("%v: %s", err.Kind, err.Err)
	}
	return fmt.Sprintf("%v: %s: %s", err.Kind, err.Name, err.Err)
}

func (err *Error) Unwrap() error {
	return err.Kind
}

func errorf(kind error, name string, format string, v ...any) error {
	return &Error{
		Kind: kind,
		Name: name,
		Err:  fmt.Sprintf(format, v...),
	}
}

// withName attributes an error of this package to the named entity, unless
// it already names one.
func withName(err error, name string) error {
	var e *Error
	if errors.As(err, &e) && e.Name == "" {
		return &Error{Kind: e.Kind, Name: name, Err: e.Err}
	}
	return err
}
