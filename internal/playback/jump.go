package playback

import (
	"fmt"
	"strconv"
	"strings"
)

// Jump is a parsed demo_jump argument.
type Jump struct {
	// Direction is -1 or 1 for a relative jump, 0 for an absolute one.
	Direction int
	Seconds   int
}

// ParseJump parses "[+|-][m:]<s>".
func ParseJump(arg string) (Jump, error) {
	var j Jump
	text := arg
	switch {
	case strings.HasPrefix(text, "-"):
		j.Direction = -1
		text = text[1:]
	case strings.HasPrefix(text, "+"):
		j.Direction = 1
		text = text[1:]
	case text == "" || text[0] < '0' || text[0] > '9':
		return j, fmt.Errorf("%w: %q", ErrBadJump, arg)
	}

	parts := strings.Split(text, ":")
	if len(parts) > 2 {
		return j, fmt.Errorf("%w: %q", ErrBadJump, arg)
	}
	for i, part := range parts {
		if part == "" {
			continue
		}
		if strings.TrimLeft(part, "0123456789") != "" {
			return j, fmt.Errorf("%w: %q", ErrBadJump, arg)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return j, fmt.Errorf("%w: %q", ErrBadJump, arg)
		}
		if i == 0 && len(parts) == 2 {
			n *= 60
		}
		j.Seconds += n
	}
	return j, nil
}

// Target returns the clock a jump lands on from clock, given the clock value
// at which the demo became active.
func (j Jump) Target(clock, start float64) float64 {
	if j.Direction != 0 {
		return clock + float64(j.Direction*j.Seconds)
	}
	return start + float64(j.Seconds)
}

// Jump moves the clock forward as described by arg.
func (s *Session) Jump(arg string) error {
	if s.state == Idle {
		return ErrClosed
	}
	if !s.active {
		return ErrNotActive
	}
	j, err := ParseJump(arg)
	if err != nil {
		return err
	}
	target := j.Target(s.clock, s.startTime)
	if target < s.clock {
		return fmt.Errorf("%w: %.1f < %.1f", ErrJumpBackwards, target, s.clock)
	}
	s.clock = target
	return nil
}
