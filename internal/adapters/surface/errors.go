package surface

import "errors"

var (
	// ErrDisplayClosed is returned when rendering to a hub that has shut down.
	ErrDisplayClosed = errors.New("display hub closed")
	// ErrDisplayNotRunning is returned when a hub whose Run loop never
	// started has no room left to queue a message.
	ErrDisplayNotRunning = errors.New("display hub not running")
)
