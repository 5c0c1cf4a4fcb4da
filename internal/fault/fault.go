// Package fault holds the error kinds shared by the launcher and message
// compile packages. Callers wrap them with context and test with errors.Is.
package fault

import "errors"

var (
	// ErrInvalidInput reports a malformed suite name or an empty source set
	ErrInvalidInput = errors.New("invalid input")
	// ErrIO reports that a generated file could not be written
	ErrIO = errors.New("i/o failure")
)
