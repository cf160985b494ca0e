package relay

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Encoder compresses chunk data for clients that negotiated zstd.
type Encoder struct {
	zstdEncoder *zstd.Encoder
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc}, nil
}

// Encode compresses data. EncodeAll is safe for concurrent use.
func (e *Encoder) Encode(data []byte) []byte {
	return e.zstdEncoder.EncodeAll(data, nil)
}

// Close releases encoder resources.
func (e *Encoder) Close() {
	if e.zstdEncoder != nil {
		e.zstdEncoder.Close()
	}
}

// Decoder reverses Encoder.
type Decoder struct {
	zstdDecoder *zstd.Decoder
}

// NewDecoder creates a new Decoder.
func NewDecoder() (*Decoder, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Decoder{zstdDecoder: dec}, nil
}

// Decode decompresses one chunk.
func (d *Decoder) Decode(data []byte) ([]byte, error) {
	out, err := d.zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk: %w", err)
	}
	return out, nil
}

// Close releases decoder resources.
func (d *Decoder) Close() {
	if d.zstdDecoder != nil {
		d.zstdDecoder.Close()
	}
}
