// Package frame encodes and decodes the demo record envelope for single
// observer (QWD) and multi-observer (MVD) streams.
package frame

import "fmt"

// Family selects the time field encoding of a stream.
type Family int

const (
	// QWD records carry an absolute float32 time.
	QWD Family = iota
	// MVD records carry a one byte millisecond delta.
	MVD
)

func (f Family) String() string {
	switch f {
	case QWD:
		return "qwd"
	case MVD:
		return "mvd"
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// TimeSize is the width of the leading time field.
func (f Family) TimeSize() int {
	if f == MVD {
		return 1
	}
	return 4
}

// MaxHeaderSize is the longest record header: an MVD time delta, the kind
// byte, a recipient mask and the length field.
const MaxHeaderSize = 1 + 1 + 4 + 4

// Kind is the 3-bit record tag.
type Kind uint8

const (
	KindCommand  Kind = 0
	KindRead     Kind = 1
	KindSet      Kind = 2
	KindMultiple Kind = 3
	KindSingle   Kind = 4
	KindStats    Kind = 5
	KindAll      Kind = 6
)

var kindNames = [...]string{"cmd", "read", "set", "multiple", "single", "stats", "all"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsRouting reports whether k is a routing prefix for the following message.
func (k Kind) IsRouting() bool { return k >= KindMultiple && k <= KindAll }

// Valid reports whether k is a known tag.
func (k Kind) Valid() bool { return k <= KindAll }

// KindByte is the on-disk kind byte: a tag in the low 3 bits and, for
// single recipient kinds, the recipient index in the high 5 bits.
type KindByte byte

func MakeKindByte(k Kind, aux uint8) KindByte {
	return KindByte(byte(k)&7 | aux<<3)
}

func (b KindByte) Tag() Kind  { return Kind(b & 7) }
func (b KindByte) Aux() uint8 { return uint8(b >> 3) }

// RouteKind names the audience of an MVD message.
type RouteKind uint8

const (
	RouteNone RouteKind = iota
	RouteAll
	RouteSingle
	RouteStats
	RouteMask
)

func (k RouteKind) String() string {
	switch k {
	case RouteAll:
		return "all"
	case RouteSingle:
		return "single"
	case RouteStats:
		return "stats"
	case RouteMask:
		return "mask"
	}
	return "none"
}

// Routing is the recipient selector set by a routing prefix.
type Routing struct {
	Kind RouteKind
	To   uint32
}

func ToAll() Routing              { return Routing{Kind: RouteAll} }
func ToOne(player int) Routing    { return Routing{Kind: RouteSingle, To: uint32(player)} }
func StatsFor(player int) Routing { return Routing{Kind: RouteStats, To: uint32(player)} }
func ToMask(mask uint32) Routing  { return Routing{Kind: RouteMask, To: mask} }

// Addresses reports whether a viewer tracking player track receives the
// message. track is -1 when no player is tracked.
func (r Routing) Addresses(track int) bool {
	switch r.Kind {
	case RouteMask:
		return track >= 0 && track < 32 && r.To&(1<<uint(track)) != 0
	case RouteSingle:
		return track >= 0 && r.To == uint32(track)
	}
	return true
}

func (r Routing) String() string {
	switch r.Kind {
	case RouteSingle, RouteStats:
		return fmt.Sprintf("%s:%d", r.Kind, r.To)
	case RouteMask:
		return fmt.Sprintf("mask:%08x", r.To)
	}
	return r.Kind.String()
}

func routingFromHeader(b KindByte, mask uint32) Routing {
	switch b.Tag() {
	case KindMultiple:
		return ToMask(mask)
	case KindSingle:
		return ToOne(int(b.Aux()))
	case KindStats:
		return StatsFor(int(b.Aux()))
	case KindAll:
		return ToAll()
	}
	return Routing{}
}

func (r Routing) kindByte() (KindByte, error) {
	switch r.Kind {
	case RouteAll:
		return MakeKindByte(KindAll, 0), nil
	case RouteSingle:
		if r.To > 31 {
			return 0, fmt.Errorf("recipient %d out of range", r.To)
		}
		return MakeKindByte(KindSingle, uint8(r.To)), nil
	case RouteStats:
		if r.To > 31 {
			return 0, fmt.Errorf("recipient %d out of range", r.To)
		}
		return MakeKindByte(KindStats, uint8(r.To)), nil
	case RouteMask:
		return MakeKindByte(KindMultiple, 0), nil
	}
	return MakeKindByte(KindRead, 0), nil
}
