// Package record writes demos: the startup snapshot burst, the recorded
// stream of commands and messages, and the closing records.
package record

import (
	"fmt"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/msg"
)

// Entity is an entity state as sent in spawn and baseline messages.
type Entity struct {
	ModelIndex byte
	Frame      byte
	Colormap   byte
	Skin       byte
	Origin     [3]float32
	Angles     [3]float32
}

// StaticSound is an ambient sound fixed in the level.
type StaticSound struct {
	Origin      [3]float32
	Sound       byte
	Volume      byte
	Attenuation byte
}

// Player is the scoreboard state of one client slot.
type Player struct {
	Frags  int16
	Ping   int16
	PL     byte
	UserID int32

	// Connected is how long the player has been on the server, in seconds.
	Connected float32
	UserInfo  string
}

// Snapshot is the session state needed to start a demo mid-game.
type Snapshot struct {
	ServerCount int32
	GameDir     string
	PlayerNum   byte
	Spectator   bool
	LevelName   string
	MoveVars    [10]float32
	ServerInfo  string

	// Sounds and Models list precache names starting at index 1.
	Sounds []string
	Models []string

	Statics      []Entity
	StaticSounds []StaticSound

	// Baselines is indexed by entity number; zero values are not written.
	Baselines []Entity

	Players     [msg.MaxClients]Player
	LightStyles [msg.MaxLightStyles]string
	Stats       [msg.MaxStats]int32

	Outgoing int32
	Incoming int32
}

// chunker collects startup messages and flushes them as separate records.
type chunker struct {
	enc *frame.Encoder
	buf *msg.Buffer
	t   float64
	seq int32
}

func (c *chunker) full() bool { return c.buf.Len() > msg.MaxMsgLen/2 }

func (c *chunker) flush() error {
	payload := c.buf.Bytes()
	var err error
	if c.enc.Family() == frame.MVD {
		err = c.enc.WriteRouted(c.t, frame.ToAll(), payload)
	} else {
		framed := msg.NewBuffer(len(payload) + 8)
		framed.PutLong(c.seq)
		framed.PutLong(c.seq)
		framed.Put(payload)
		err = c.enc.WriteMessage(c.t, framed.Bytes())
	}
	c.seq++
	c.buf.Reset()
	if err != nil {
		return fmt.Errorf("writing startup chunk %d: %w", c.seq-1, err)
	}
	return nil
}

func (c *chunker) flushIfFull() error {
	if c.full() {
		return c.flush()
	}
	return nil
}

func (c *chunker) flushIfAny() error {
	if c.buf.Len() > 0 {
		return c.flush()
	}
	return nil
}

// WriteStartup writes the snapshot as a burst of message records stamped t,
// followed by the sequence record. The order lets a reader rebuild the full
// session from the burst alone.
func WriteStartup(enc *frame.Encoder, snap *Snapshot, t float64) error {
	c := &chunker{enc: enc, buf: msg.NewBuffer(msg.MaxMsgLen * 2), t: t, seq: 1}
	b := c.buf

	b.PutByte(msg.SvcServerData)
	b.PutLong(msg.ProtocolVersion)
	b.PutLong(snap.ServerCount)
	b.PutString(snap.GameDir)
	if snap.Spectator {
		b.PutByte(snap.PlayerNum | 128)
	} else {
		b.PutByte(snap.PlayerNum)
	}
	b.PutString(snap.LevelName)
	for _, v := range snap.MoveVars {
		b.PutFloat(v)
	}
	b.PutByte(msg.SvcCDTrack)
	b.PutByte(0)
	b.PutByte(msg.SvcStuffText)
	b.PutString(fmt.Sprintf("fullserverinfo \"%s\"\n", snap.ServerInfo))
	if err := c.flush(); err != nil {
		return err
	}

	if err := writeList(c, msg.SvcSoundList, snap.Sounds); err != nil {
		return err
	}
	if err := writeList(c, msg.SvcModelList, snap.Models); err != nil {
		return err
	}

	for _, e := range snap.Statics {
		b.PutByte(msg.SvcSpawnStatic)
		b.PutByte(e.ModelIndex)
		b.PutByte(e.Frame)
		b.PutByte(0)
		b.PutByte(e.Skin)
		putOrigin(b, e)
		if err := c.flushIfFull(); err != nil {
			return err
		}
	}

	for _, ss := range snap.StaticSounds {
		b.PutByte(msg.SvcSpawnStaticSound)
		for _, v := range ss.Origin {
			b.PutCoord(v)
		}
		b.PutByte(ss.Sound)
		b.PutByte(ss.Volume)
		b.PutByte(ss.Attenuation)
		if err := c.flushIfFull(); err != nil {
			return err
		}
	}

	for i, e := range snap.Baselines {
		if e == (Entity{}) {
			continue
		}
		b.PutByte(msg.SvcSpawnBaseline)
		b.PutShort(int16(i))
		b.PutByte(e.ModelIndex)
		b.PutByte(e.Frame)
		b.PutByte(e.Colormap)
		b.PutByte(e.Skin)
		putOrigin(b, e)
		if err := c.flushIfFull(); err != nil {
			return err
		}
	}

	b.PutByte(msg.SvcStuffText)
	b.PutString(fmt.Sprintf("cmd spawn %d 0\n", snap.ServerCount))
	if err := c.flushIfAny(); err != nil {
		return err
	}

	for i, p := range snap.Players {
		slot := byte(i)
		b.PutByte(msg.SvcUpdateFrags)
		b.PutByte(slot)
		b.PutShort(p.Frags)

		b.PutByte(msg.SvcUpdatePing)
		b.PutByte(slot)
		b.PutShort(p.Ping)

		b.PutByte(msg.SvcUpdatePL)
		b.PutByte(slot)
		b.PutByte(p.PL)

		b.PutByte(msg.SvcUpdateEnterTime)
		b.PutByte(slot)
		b.PutFloat(p.Connected)

		b.PutByte(msg.SvcUpdateUserInfo)
		b.PutByte(slot)
		b.PutLong(p.UserID)
		b.PutString(p.UserInfo)

		if err := c.flushIfFull(); err != nil {
			return err
		}
	}

	for i, style := range snap.LightStyles {
		if style == "" {
			continue
		}
		b.PutByte(msg.SvcLightStyle)
		b.PutByte(byte(i))
		b.PutString(style)
	}

	for i, v := range snap.Stats {
		if v == 0 {
			continue
		}
		if v >= 0 && v <= 255 {
			b.PutByte(msg.SvcUpdateStat)
			b.PutByte(byte(i))
			b.PutByte(byte(v))
		} else {
			b.PutByte(msg.SvcUpdateStatLong)
			b.PutByte(byte(i))
			b.PutLong(v)
		}
		if err := c.flushIfFull(); err != nil {
			return err
		}
	}

	b.PutByte(msg.SvcStuffText)
	b.PutString("skins\n")
	if err := c.flush(); err != nil {
		return err
	}

	if err := enc.WriteSet(t, snap.Outgoing, snap.Incoming); err != nil {
		return fmt.Errorf("writing sequence record: %w", err)
	}
	return nil
}

// writeList writes a precache list, split whenever a chunk passes half the
// maximum message size. Each partial list ends with the index to resume at.
func writeList(c *chunker, svc byte, names []string) error {
	b := c.buf
	b.PutByte(svc)
	b.PutByte(0)
	for n, name := range names {
		b.PutString(name)
		if c.full() {
			b.PutByte(0)
			b.PutByte(byte(n))
			if err := c.flush(); err != nil {
				return err
			}
			b.PutByte(svc)
			b.PutByte(byte(n + 1))
		}
	}
	if b.Len() > 0 {
		b.PutByte(0)
		b.PutByte(0)
		return c.flush()
	}
	return nil
}

func putOrigin(b *msg.Buffer, e Entity) {
	for j := 0; j < 3; j++ {
		b.PutCoord(e.Origin[j])
		b.PutAngle(e.Angles[j])
	}
}
