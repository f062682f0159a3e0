package stint

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("stint: no store configured")
	ErrStoreClosed     = errors.New("stint: store closed")
	ErrMigrationFailed = errors.New("stint: migration failed")

	// Not found errors.
	ErrJobNotFound   = errors.New("stint: job not found")
	ErrTimerNotFound = errors.New("stint: timer not found")
	ErrItemNotFound  = errors.New("stint: item not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("stint: job already exists")

	// State errors.
	ErrInvalidState   = errors.New("stint: invalid state transition")
	ErrNoProcessor    = errors.New("stint: no processor registered")
	ErrInvalidRequest = errors.New("stint: invalid job request")
)
