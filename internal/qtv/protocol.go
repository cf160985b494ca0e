// Package qtv is a client for QuakeTV proxies. It negotiates a stream,
// lists the proxy's sources and exposes the stream as a ring source.
package qtv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
)

// DefaultPort is the port proxies listen on when the address names none.
const DefaultPort = 27599

// MaxHeader bounds the response header read before the stream begins.
const MaxHeader = 8192

// Address is a parsed [stream@]host[:port] string.
type Address struct {
	Stream string
	Host   string
}

// ParseAddress splits s at its last '@', since proxies can be chained.
func ParseAddress(s string) (Address, error) {
	var a Address
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		a.Stream, s = s[:i], s[i+1:]
	}
	if s == "" {
		return a, fmt.Errorf("%w: missing host", ErrBadAddress)
	}
	if _, _, err := net.SplitHostPort(s); err != nil {
		s = net.JoinHostPort(s, strconv.Itoa(DefaultPort))
	}
	a.Host = s
	return a, nil
}

func (a Address) String() string {
	if a.Stream == "" {
		return a.Host
	}
	return a.Stream + "@" + a.Host
}

// StreamRequest builds the request for a stream. An empty source asks for
// the proxy's default stream.
func StreamRequest(source string) []byte {
	var b bytes.Buffer
	b.WriteString("QTV\nVERSION: 1\n")
	if source != "" {
		fmt.Fprintf(&b, "SOURCE: %s\n", source)
	}
	b.WriteString("\n")
	return b.Bytes()
}

// ListRequest builds the request for a source listing.
func ListRequest() []byte {
	return []byte("QTV\nVERSION: 1\nSOURCELIST\n\n")
}

// Response is the header a proxy sends ahead of any stream data.
type Response struct {
	Begin   bool
	Sources []string
	Demos   []string
	Prints  []string
	Errors  []string
}

// Err returns ErrRefused when the proxy reported an error.
func (r *Response) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRefused, strings.Join(r.Errors, "; "))
}

// ReadResponse reads a response header terminated by a blank line. Any
// bytes read past the header are returned as the start of the stream.
func ReadResponse(r io.Reader) (*Response, []byte, error) {
	buf := make([]byte, 0, 1024)
	chunk := make([]byte, 1024)
	for {
		if i := bytes.Index(buf, []byte("\n\n")); i >= 0 {
			resp := parseHeader(buf[:i+1])
			rest := append([]byte(nil), buf[i+2:]...)
			return resp, rest, nil
		}
		if len(buf) >= MaxHeader {
			return nil, nil, fmt.Errorf("%w: header exceeds %d bytes", ErrProtocol, MaxHeader)
		}
		n, err := r.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if i := bytes.Index(buf, []byte("\n\n")); i >= 0 {
					continue
				}
				return nil, nil, fmt.Errorf("%w: connection closed during header", ErrProtocol)
			}
			return nil, nil, fmt.Errorf("reading qtv header: %w", err)
		}
	}
}

func parseHeader(b []byte) *Response {
	resp := &Response{}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		key, value, found := strings.Cut(line, ":")
		if !found {
			if line == "BEGIN" {
				resp.Begin = true
			}
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "PERROR", "TERROR":
			resp.Errors = append(resp.Errors, value)
		case "PRINT":
			resp.Prints = append(resp.Prints, value)
		case "ADEMO":
			resp.Demos = append(resp.Demos, value)
		case "ASOURCE":
			resp.Sources = append(resp.Sources, value)
		case "BEGIN":
			resp.Begin = true
		}
	}
	return resp
}

// DirectiveKind is the action named by a .qtv file.
type DirectiveKind int

const (
	DirectiveStream DirectiveKind = iota + 1
	DirectiveJoin
	DirectiveObserve
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveStream:
		return "stream"
	case DirectiveJoin:
		return "join"
	case DirectiveObserve:
		return "observe"
	}
	return "unknown"
}

// Directive is the first actionable line of a .qtv file.
type Directive struct {
	Kind   DirectiveKind
	Target string
}

var directivePrefixes = []struct {
	key  string
	kind DirectiveKind
}{
	{"Stream", DirectiveStream},
	{"Join", DirectiveJoin},
	{"Observe", DirectiveObserve},
}

// ParseDirective scans a .qtv file for a Stream, Join or Observe line.
func ParseDirective(r io.Reader) (Directive, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		for _, p := range directivePrefixes {
			if !strings.HasPrefix(line, p.key) || len(line) <= len(p.key) {
				continue
			}
			if sep := line[len(p.key)]; sep != '=' && sep != ':' {
				continue
			}
			return Directive{Kind: p.kind, Target: strings.TrimSpace(line[len(p.key)+1:])}, nil
		}
	}
	if err := sc.Err(); err != nil {
		return Directive{}, err
	}
	return Directive{}, fmt.Errorf("%w: no Stream, Join or Observe line", ErrProtocol)
}

// ReadDirectiveFile opens and parses a .qtv file.
func ReadDirectiveFile(path string) (Directive, error) {
	f, err := os.Open(path)
	if err != nil {
		return Directive{}, fmt.Errorf("opening qtv file: %w", err)
	}
	defer f.Close()
	return ParseDirective(f)
}
