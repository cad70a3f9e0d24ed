package darray

import "errors"

var (
	// ErrOutOfRange indicates a checked access at or past the logical size.
	ErrOutOfRange = errors.New("darray: index out of range")

	// ErrBadSize indicates a negative size argument.
	ErrBadSize = errors.New("darray: negative size")

	// ErrTooLarge indicates a capacity whose byte extent overflows int.
	ErrTooLarge = errors.New("darray: capacity too large")
)
