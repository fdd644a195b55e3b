package generator

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidArgument is returned for a non-positive point count, a
	// negative or non-finite sigma, or a missing random source.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrShapeMismatch is returned when a matrix is empty or not rectangular.
	ErrShapeMismatch = errors.New("shape mismatch")
)
