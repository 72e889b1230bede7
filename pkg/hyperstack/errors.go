package hyperstack

import "errors"

// Error taxonomy shared by every package that addresses or restructures
// hyperstacks. Errors are always returned wrapped with a message that names
// the offending axis, index or input; test for them with errors.Is.
var (
	// ErrInvalidAxisSize is returned when an axis size is below 1.
	ErrInvalidAxisSize = errors.New("invalid axis size")

	// ErrOutOfRange is returned when a coordinate or linear index falls
	// outside the declared axis sizes.
	ErrOutOfRange = errors.New("out of range")

	// ErrEmptySelection is returned when an index selection resolves to
	// nothing and the caller did not ask to skip empty work.
	ErrEmptySelection = errors.New("empty selection")

	// ErrEmptyResult is returned when an operation would produce a
	// zero-sized output.
	ErrEmptyResult = errors.New("empty result")

	// ErrAxisSizeMismatch is returned when inputs disagree on the size of an
	// axis that must be equal.
	ErrAxisSizeMismatch = errors.New("axis size mismatch")

	// ErrIncompleteOrDuplicateAssignment is returned when an axis relabeling
	// or iteration order is not a permutation of {C, Z, T}.
	ErrIncompleteOrDuplicateAssignment = errors.New("incomplete or duplicate axis assignment")

	// ErrAxisAlreadyPresent is returned when a new axis is inserted into
	// inputs that already have extent along it.
	ErrAxisAlreadyPresent = errors.New("axis already present")

	// ErrSizeMismatch is returned when planes or inputs differ in width,
	// height, pixel type or non-target axis sizes.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrAllocationFailure is returned when an output buffer cannot be
	// allocated.
	ErrAllocationFailure = errors.New("allocation failure")
)
