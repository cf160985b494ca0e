package qtv

import "errors"

var (
	// ErrProtocol reports a malformed or incomplete proxy response.
	ErrProtocol = errors.New("qtv: protocol error")

	// ErrRefused reports that the proxy answered with an error instead of a stream.
	ErrRefused = errors.New("qtv: stream refused")

	ErrBadAddress = errors.New("qtv: bad address")
)
