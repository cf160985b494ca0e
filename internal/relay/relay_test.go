package relay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dgnsrekt/qwdemo/internal/frame"
)

type memOpener map[string][]byte

func (m memOpener) OpenDemo(name string) (io.ReadCloser, frame.Family, error) {
	b, ok := m[name]
	if !ok {
		return nil, 0, ErrNoDemo
	}
	family := frame.QWD
	if strings.HasSuffix(name, ".mvd") {
		family = frame.MVD
	}
	return io.NopCloser(bytes.NewReader(b)), family, nil
}

func buildMVD(t *testing.T, times ...float64) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := frame.NewEncoder(&buf, frame.MVD)
	for i, ts := range times {
		if err := enc.WriteRouted(ts, frame.ToAll(), []byte{1, byte(i)}); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func startRelay(t *testing.T, opener Opener, opts Options) (*Relay, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub("test", zap.NewNop())
	r, err := New(hub, opener, opts, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	go r.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.Serve(w, req, strings.TrimPrefix(req.URL.Path, "/relay/demos/"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return r, srv
}

func readAll(t *testing.T, c *Conn) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 512)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, eof, err := c.TryRead(buf)
		if err != nil {
			t.Fatalf("TryRead: %v", err)
		}
		out = append(out, buf[:n]...)
		if eof {
			return out
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	t.Fatal("relay stream never ended")
	return nil
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := []*Envelope{
		{Hello: &Hello{ConnID: "abc", Demo: "duel.mvd", Family: frame.MVD, Compressed: true}},
		{Hello: &Hello{Demo: "x.qwd", Family: frame.QWD}},
		{Chunk: &Chunk{Seq: 7, TimeMS: 1500, Data: []byte{0, 1, 2}}},
		{End: &End{Reason: "end of demo", Records: 42}},
	}
	for _, e := range in {
		got, err := UnmarshalEnvelope(e.Marshal())
		if err != nil {
			t.Fatalf("UnmarshalEnvelope: %v", err)
		}
		switch {
		case e.Hello != nil:
			if got.Hello == nil || *got.Hello != *e.Hello {
				t.Errorf("hello = %+v, want %+v", got.Hello, e.Hello)
			}
		case e.Chunk != nil:
			if got.Chunk == nil || got.Chunk.Seq != 7 || got.Chunk.TimeMS != 1500 || !bytes.Equal(got.Chunk.Data, e.Chunk.Data) {
				t.Errorf("chunk = %+v", got.Chunk)
			}
		case e.End != nil:
			if got.End == nil || *got.End != *e.End {
				t.Errorf("end = %+v", got.End)
			}
		}
	}
}

func TestEnvelopeSkipsUnknownFields(t *testing.T) {
	b := protowire.AppendTag(nil, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 123)
	b = append(b, (&Envelope{End: &End{Reason: "x"}}).Marshal()...)

	got, err := UnmarshalEnvelope(b)
	if err != nil {
		t.Fatalf("UnmarshalEnvelope: %v", err)
	}
	if got.End == nil || got.End.Reason != "x" {
		t.Errorf("end = %+v", got.End)
	}

	if _, err := UnmarshalEnvelope(nil); !errors.Is(err, ErrBadEnvelope) {
		t.Errorf("empty: got %v", err)
	}
	if _, err := UnmarshalEnvelope([]byte{0x0a, 0x05, 0x01}); !errors.Is(err, ErrBadEnvelope) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestStreamDeliversDemo(t *testing.T) {
	demo := buildMVD(t, 0, 0, 0.05, 0.1, 0.1, 0.3)

	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			_, srv := startRelay(t, memOpener{"duel.mvd": demo}, Options{Compress: true})

			c, err := Dial(context.Background(), URL(srv.URL, "duel.mvd"), compress, 0)
			if err != nil {
				t.Fatalf("Dial: %v", err)
			}
			defer c.Close()

			if c.Hello.Demo != "duel.mvd" || c.Hello.Family != frame.MVD || c.Hello.Compressed != compress {
				t.Errorf("hello = %+v", c.Hello)
			}
			if c.Hello.ConnID == "" {
				t.Error("missing connection id")
			}

			got := readAll(t, c)
			if !bytes.Equal(got, demo) {
				t.Errorf("relayed %d bytes, want %d", len(got), len(demo))
			}
			if c.End() == nil || c.End().Records != 6 {
				t.Errorf("end = %+v", c.End())
			}
		})
	}
}

func TestCompressionNeedsServerConsent(t *testing.T) {
	_, srv := startRelay(t, memOpener{"duel.mvd": buildMVD(t, 0)}, Options{})

	c, err := Dial(context.Background(), URL(srv.URL, "duel.mvd"), true, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()
	if c.Hello.Compressed {
		t.Error("server without compression negotiated zstd")
	}
}

func TestUnknownDemo(t *testing.T) {
	_, srv := startRelay(t, memOpener{}, Options{})

	if _, err := Dial(context.Background(), URL(srv.URL, "missing.mvd"), false, 0); err == nil {
		t.Fatal("expected dial to fail")
	}
}

func TestPacedStream(t *testing.T) {
	demo := buildMVD(t, 0, 0.3)
	r, srv := startRelay(t, memOpener{"duel.mvd": demo}, Options{Pace: 1})

	start := time.Now()
	c, err := Dial(context.Background(), URL(srv.URL, "duel.mvd"), false, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	deadline := time.Now().Add(2 * time.Second)
	for len(r.Hub().Groups()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	groups := r.Hub().Groups()
	if len(groups) != 1 || groups[0].Demo != "duel.mvd" || groups[0].Viewers != 1 {
		t.Errorf("groups = %+v", groups)
	}

	if got := readAll(t, c); !bytes.Equal(got, demo) {
		t.Errorf("relayed %d bytes, want %d", len(got), len(demo))
	}
	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("stream finished after %v, expected demo pace", elapsed)
	}
}

func TestCloseDuringCompressedStream(t *testing.T) {
	demo := buildMVD(t, 0, 0.01, 0.02, 5, 10)
	_, srv := startRelay(t, memOpener{"duel.mvd": demo}, Options{Pace: 1, Compress: true})

	c, err := Dial(context.Background(), URL(srv.URL, "duel.mvd"), true, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if !c.Hello.Compressed {
		t.Fatal("expected a zstd stream")
	}

	buf := make([]byte, 256)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, _, err := c.TryRead(buf)
		if err != nil {
			t.Fatalf("TryRead: %v", err)
		}
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	select {
	case <-c.Stopped():
	default:
		t.Fatal("relay reader still running after Close")
	}
}

func TestURL(t *testing.T) {
	for in, want := range map[string]string{
		"http://localhost:8080": "ws://localhost:8080/relay/demos/a.mvd",
		"https://example.com/":  "wss://example.com/relay/demos/a.mvd",
		"ws://10.0.0.1:9000":    "ws://10.0.0.1:9000/relay/demos/a.mvd",
	} {
		if got := URL(in, "a.mvd"); got != want {
			t.Errorf("URL(%q) = %q, want %q", in, got, want)
		}
	}
}
