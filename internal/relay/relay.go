// Package relay streams demos to websocket viewers at demo pace and lets a
// viewer consume such a stream as a playback source.
package relay

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/qwdemo/internal/frame"
)

// ErrNoDemo is returned by an Opener for an unknown demo.
var ErrNoDemo = errors.New("relay: no such demo")

// MaxPace bounds the pace a viewer may request.
const MaxPace = 20

// Opener opens demos by name.
type Opener interface {
	OpenDemo(name string) (io.ReadCloser, frame.Family, error)
}

// Options configures a Relay.
type Options struct {
	// Pace is the default replay speed; zero streams without waiting.
	Pace float64

	// Compress allows viewers to negotiate zstd chunks.
	Compress bool

	SendBuffer int

	// Rate caps chunks per second for each viewer. Zero disables the cap.
	Rate  float64
	Burst int
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
	Subprotocols:    []string{SubprotocolZstd, Subprotocol},
}

// Relay serves demos over websocket.
type Relay struct {
	hub     *Hub
	opener  Opener
	encoder *Encoder
	opts    Options
	logger  *zap.Logger
}

// New creates a Relay. Its hub must be running for viewers to connect.
func New(hub *Hub, opener Opener, opts Options, logger *zap.Logger) (*Relay, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return &Relay{
		hub:     hub,
		opener:  opener,
		encoder: enc,
		opts:    opts,
		logger:  logger,
	}, nil
}

// Hub returns the relay's hub.
func (r *Relay) Hub() *Hub { return r.hub }

// Run drives the hub until ctx is cancelled. Streams in progress stop with it.
func (r *Relay) Run(ctx context.Context) {
	r.hub.Run(ctx)
}

// Close releases the shared encoder once no stream is running.
func (r *Relay) Close() {
	r.encoder.Close()
}

// Serve upgrades the request and streams the demo name to the viewer. The
// optional "pace" query parameter overrides the default pace.
func (r *Relay) Serve(w http.ResponseWriter, req *http.Request, name string) {
	src, family, err := r.opener.OpenDemo(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoDemo) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	pace := r.opts.Pace
	if v := req.URL.Query().Get("pace"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 || p > MaxPace {
			src.Close()
			http.Error(w, "pace must be between 0 and 20", http.StatusBadRequest)
			return
		}
		pace = p
	}

	// Negotiate subprotocol - check what client requested
	compressed := false
	var responseHeader http.Header
	for _, proto := range websocket.Subprotocols(req) {
		switch proto {
		case SubprotocolZstd:
			if !r.opts.Compress {
				continue
			}
			compressed = true
			responseHeader = http.Header{"Sec-WebSocket-Protocol": {proto}}
		case Subprotocol:
			responseHeader = http.Header{"Sec-WebSocket-Protocol": {proto}}
		}
		if responseHeader != nil {
			break
		}
	}

	conn, err := upgrader.Upgrade(w, req, responseHeader)
	if err != nil {
		src.Close()
		r.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.New().String()
	client := newClient(r.hub, conn, connID, name, compressed, r.opts.SendBuffer)
	if !r.hub.join(client) {
		src.Close()
		conn.Close()
		return
	}

	hello := &Envelope{Hello: &Hello{ConnID: connID, Demo: name, Family: family, Compressed: compressed}}
	client.send <- hello.Marshal()

	go client.writePump()
	go client.readPump()
	go r.stream(client, src, family, pace)
}

func (r *Relay) stream(c *Client, src io.ReadCloser, family frame.Family, pace float64) {
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	var limiter *rate.Limiter
	if r.opts.Rate > 0 {
		burst := r.opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(r.opts.Rate), burst)
	}

	r.logger.Info("relay stream started",
		zap.String("connID", c.connID),
		zap.String("demo", c.demo),
		zap.Float64("pace", pace),
		zap.Bool("compressed", c.compressed),
	)
	out := NewStreamer(r.encoder, pace, limiter, r.logger).Run(ctx, c, src, family)
	r.logger.Info("relay stream finished",
		zap.String("connID", c.connID),
		zap.String("demo", c.demo),
		zap.Stringer("outcome", out),
	)
	c.stop()
}

// demoHandler serves one fixed demo.
type demoHandler struct {
	relay *Relay
	name  string
}

func (h *demoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.relay.Serve(w, r, h.name)
}

// Handler returns an http.Handler streaming the named demo.
func (r *Relay) Handler(name string) http.Handler {
	return &demoHandler{relay: r, name: name}
}
