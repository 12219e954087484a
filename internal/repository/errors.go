package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrVersionConflict is returned when an aggregate update loses an
	// optimistic concurrency race. Under the per-ride lock this should
	// not happen; it is the storage-level backstop.
	ErrVersionConflict = errors.New("aggregate version conflict")

	// ErrDuplicateMembership is returned when a membership insert violates
	// the one-seat-per-student constraint on a group ride.
	ErrDuplicateMembership = errors.New("student already holds a seat on this ride")
)
