package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/dgnsrekt/qwdemo/internal/feed"
)

// Conn is the viewer side of a relay stream. It satisfies ring.Source and
// yields the demo's raw records.
type Conn struct {
	*feed.Feed

	Hello Hello

	conn    *websocket.Conn
	decoder *Decoder
	end     *End
}

// Dial connects to a relay URL such as ws://host/relay/demos/duel.mvd.
// depth is the number of chunks queued ahead of playback.
func Dial(ctx context.Context, url string, compress bool, depth int) (*Conn, error) {
	dialer := *websocket.DefaultDialer
	dialer.Subprotocols = []string{Subprotocol}
	if compress {
		dialer.Subprotocols = []string{SubprotocolZstd, Subprotocol}
	}

	ws, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial relay %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}

	_, data, err := ws.ReadMessage()
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("reading relay hello: %w", err)
	}
	env, err := UnmarshalEnvelope(data)
	if err != nil {
		ws.Close()
		return nil, err
	}
	if env.Hello == nil {
		ws.Close()
		return nil, fmt.Errorf("%w: expected hello", ErrBadEnvelope)
	}

	c := &Conn{Hello: *env.Hello, conn: ws}
	if c.Hello.Compressed {
		if c.decoder, err = NewDecoder(); err != nil {
			ws.Close()
			return nil, err
		}
	}
	c.Feed = feed.New(c.next, depth, closerFunc(c.close))
	return c, nil
}

// End returns the relay's closing message. It is set once TryRead has
// reported eof after a complete stream.
func (c *Conn) End() *End { return c.end }

func (c *Conn) next() ([]byte, error) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		env, err := UnmarshalEnvelope(data)
		if err != nil {
			return nil, err
		}
		switch {
		case env.End != nil:
			c.end = env.End
			return nil, io.EOF
		case env.Chunk != nil:
			if c.decoder == nil {
				return env.Chunk.Data, nil
			}
			return c.decoder.Decode(env.Chunk.Data)
		case env.Hello != nil:
			return nil, fmt.Errorf("%w: repeated hello", ErrBadEnvelope)
		}
	}
}

func (c *Conn) close() error {
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if errors.Is(err, websocket.ErrCloseSent) {
		err = nil
	}
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	if c.decoder != nil {
		// The pump may be mid Decode until the closed socket unblocks it.
		<-c.Stopped()
		c.decoder.Close()
	}
	return err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// URL builds the relay websocket URL for a demo on an HTTP base address.
func URL(base, demo string) string {
	base = strings.TrimSuffix(base, "/")
	switch {
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	}
	return base + "/relay/demos/" + demo
}
