package services

import "errors"

var (
	// ErrNotFound means the referenced entity is absent. Detected before any
	// mutation; maps to a 404.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden means the acting user does not own the target entity.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict means the requested state transition contradicts existing
	// state, e.g. associating a file that already belongs to another post.
	ErrConflict = errors.New("conflict")
)
