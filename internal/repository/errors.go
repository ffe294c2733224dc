package repository

import "errors"

var (
	// ErrEmailExists is returned when a registration collides with an
	// already stored email.
	ErrEmailExists = errors.New("email already exists")
	// ErrSubscriptionExists is returned when a user who already holds a
	// non-cancelled subscription tries to create another one.
	ErrSubscriptionExists = errors.New("subscription already exists")
	// ErrNotFound is returned when a row is missing or not owned by the
	// caller.
	ErrNotFound = errors.New("not found")
)
