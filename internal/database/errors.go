package database

import "errors"

var (
	// ErrNotFound is returned when a row does not exist or is not owned by
	// the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrEmailExists is returned when registering an email that is taken.
	ErrEmailExists = errors.New("email already exists")
	// ErrSlugExists is returned when a user already has custom media with
	// the same slug.
	ErrSlugExists = errors.New("custom media slug already exists")
	// ErrTimerRunning is returned when starting a timer while another one
	// is still open.
	ErrTimerRunning = errors.New("a timer is already running")
)
