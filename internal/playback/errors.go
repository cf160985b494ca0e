package playback

import "errors"

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("playback: session closed")

	// ErrNotActive is returned when a jump is requested before the session
	// is fully connected.
	ErrNotActive = errors.New("playback: demo must be active first")

	// ErrJumpBackwards is returned for a jump target behind the clock.
	ErrJumpBackwards = errors.New("playback: cannot jump backwards")

	// ErrBadJump is returned for a malformed jump argument.
	ErrBadJump = errors.New("playback: usage [+|-][m:]<s>")
)
