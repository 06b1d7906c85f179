package reveal

import "errors"

// Sentinel kinds for reveal errors. Start reports them synchronously and
// leaves the sequencer Idle with the surface untouched.
var (
	ErrNotPresentable = errors.New("scoreboard is not presentable")
	ErrInvalidState   = errors.New("invalid sequencer state")
	ErrInvalidOptions = errors.New("invalid reveal options")
	ErrPlayback       = errors.New("reveal playback failed")
)
