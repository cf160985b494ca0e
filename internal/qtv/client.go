package qtv

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/feed"
)

// DefaultDialTimeout bounds connecting and reading the response header.
const DefaultDialTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	DialTimeout time.Duration

	// Depth is the number of network chunks queued ahead of playback.
	Depth  int
	Logger *zap.Logger
}

// Client talks to QTV proxies.
type Client struct {
	dialer  net.Dialer
	timeout time.Duration
	depth   int
	logger  *zap.Logger
}

// NewClient creates a Client.
func NewClient(opts Options) *Client {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		dialer:  net.Dialer{Timeout: opts.DialTimeout},
		timeout: opts.DialTimeout,
		depth:   opts.Depth,
		logger:  opts.Logger,
	}
}

// Stream is a negotiated QTV stream. It satisfies ring.Source; Seed holds
// the stream bytes that arrived with the response header.
type Stream struct {
	*feed.Feed

	Address  Address
	Response *Response
	Seed     []byte
}

// exchange sends req and reads the response header with a deadline.
func (c *Client) exchange(ctx context.Context, host string, req []byte) (net.Conn, *Response, []byte, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("couldn't connect to proxy %s: %w", host, err)
	}
	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("sending qtv request: %w", err)
	}
	resp, rest, err := ReadResponse(conn)
	if err != nil {
		conn.Close()
		return nil, nil, nil, err
	}
	conn.SetDeadline(time.Time{})

	for _, p := range resp.Prints {
		c.logger.Info("qtv", zap.String("host", host), zap.String("print", p))
	}
	for _, e := range resp.Errors {
		c.logger.Warn("qtv error", zap.String("host", host), zap.String("error", e))
	}
	return conn, resp, rest, nil
}

// Dial negotiates a stream from the proxy at addr.
func (c *Client) Dial(ctx context.Context, addr Address) (*Stream, error) {
	conn, resp, rest, err := c.exchange(ctx, addr.Host, StreamRequest(addr.Stream))
	if err != nil {
		return nil, err
	}
	if !resp.Begin {
		conn.Close()
		if err := resp.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no BEGIN from %s", ErrProtocol, addr)
	}

	c.logger.Info("qtv stream begins",
		zap.String("address", addr.String()),
		zap.Int("seed", len(rest)),
	)
	return &Stream{
		Feed:     feed.FromReader(conn, c.depth),
		Address:  addr,
		Response: resp,
		Seed:     rest,
	}, nil
}

// List asks the proxy at host for its sources.
func (c *Client) List(ctx context.Context, host string) (*Response, error) {
	addr, err := ParseAddress(host)
	if err != nil {
		return nil, err
	}
	conn, resp, _, err := c.exchange(ctx, addr.Host, ListRequest())
	if err != nil {
		return nil, err
	}
	conn.Close()
	if len(resp.Sources) == 0 && len(resp.Demos) == 0 {
		if err := resp.Err(); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
