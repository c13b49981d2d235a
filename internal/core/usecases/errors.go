package usecases

import "errors"

var (
	// ErrInvalidSession is returned for session ids outside [A-Za-z0-9_-]{1,64}.
	ErrInvalidSession = errors.New("invalid session id")

	// ErrInvalidName is returned when a saved path name is empty or too long.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidZoom is returned for a negative or non-finite zoom.
	ErrInvalidZoom = errors.New("invalid zoom")
)
