package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// UserCmdSize is the packed size of a movement command.
	UserCmdSize = 24
	// CommandSize adds the three view angle floats that follow it.
	CommandSize = UserCmdSize + 12
)

// UserCmd is one client movement command.
type UserCmd struct {
	Msec    uint8
	Angles  [3]float32
	Forward int16
	Side    int16
	Up      int16
	Buttons uint8
	Impulse uint8
}

// Command is the payload of a command record.
type Command struct {
	UserCmd
	ViewAngles [3]float32
}

// AppendBinary appends the little-endian encoding of c to b.
func (c Command) AppendBinary(b []byte) ([]byte, error) {
	le := binary.LittleEndian
	b = append(b, c.Msec, 0, 0, 0)
	for _, a := range c.Angles {
		b = le.AppendUint32(b, math.Float32bits(a))
	}
	b = le.AppendUint16(b, uint16(c.Forward))
	b = le.AppendUint16(b, uint16(c.Side))
	b = le.AppendUint16(b, uint16(c.Up))
	b = append(b, c.Buttons, c.Impulse)
	for _, a := range c.ViewAngles {
		b = le.AppendUint32(b, math.Float32bits(a))
	}
	return b, nil
}

func (c Command) MarshalBinary() ([]byte, error) {
	return c.AppendBinary(make([]byte, 0, CommandSize))
}

func (c *Command) UnmarshalBinary(p []byte) error {
	if len(p) != CommandSize {
		return fmt.Errorf("command: got %d bytes, want %d", len(p), CommandSize)
	}
	le := binary.LittleEndian
	c.Msec = p[0]
	for i := range c.Angles {
		c.Angles[i] = math.Float32frombits(le.Uint32(p[4+4*i:]))
	}
	c.Forward = int16(le.Uint16(p[16:]))
	c.Side = int16(le.Uint16(p[18:]))
	c.Up = int16(le.Uint16(p[20:]))
	c.Buttons = p[22]
	c.Impulse = p[23]
	for i := range c.ViewAngles {
		c.ViewAngles[i] = math.Float32frombits(le.Uint32(p[UserCmdSize+4*i:]))
	}
	return nil
}
