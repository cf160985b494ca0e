package frame

import "errors"

var (
	// ErrCorrupt is returned for a kind byte outside the known set.
	ErrCorrupt = errors.New("corrupted demo")

	// ErrOversized is returned when a message length exceeds the allowed maximum.
	ErrOversized = errors.New("demo message exceeds maximum size")

	// ErrTruncated is returned when a stream ends inside a record.
	ErrTruncated = errors.New("unexpected end of demo")

	// ErrWrongFamily is returned for a record kind the stream family cannot carry.
	ErrWrongFamily = errors.New("record kind not valid for demo family")
)
