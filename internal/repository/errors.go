package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("record already exists")
	// ErrVersionConflict is returned when a conditional write sees a newer version.
	ErrVersionConflict = errors.New("version conflict")
)
