package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/api"
	"github.com/dgnsrekt/qwdemo/internal/api/generated"
	"github.com/dgnsrekt/qwdemo/internal/catalog"
	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/relay"
)

func demoBytes(t *testing.T, family frame.Family) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := frame.NewEncoder(&buf, family)
	for i := 0; i < 4; i++ {
		var err error
		if family == frame.MVD {
			err = enc.WriteRouted(float64(i)*0.05, frame.ToAll(), []byte{1})
		} else {
			err = enc.WriteMessage(float64(i)*0.05, []byte{0, 0, 0, 0, 0, 0, 0, 0, 1})
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "duel.qwd"), demoBytes(t, frame.QWD), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "4on4.mvd"), demoBytes(t, frame.MVD), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := zap.NewNop()
	cat, err := catalog.New(dir, 0, logger)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rl, err := relay.New(relay.NewHub("test", logger), cat, relay.Options{Compress: true}, logger)
	if err != nil {
		t.Fatal(err)
	}
	go rl.Run(ctx)

	server := NewServer(cat, rl, logger)
	go server.EnableEvents("test", 20*time.Millisecond).Run(ctx)

	router, err := NewRouter(server, logger)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, dir
}

func get(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestEmbeddedSpecMatchesDocument(t *testing.T) {
	ctx := context.Background()
	doc, err := openapi3.NewLoader().LoadFromData(api.OpenAPISpec)
	if err != nil {
		t.Fatalf("loading openapi.yaml: %v", err)
	}
	if err := doc.Validate(ctx); err != nil {
		t.Fatalf("validating openapi.yaml: %v", err)
	}

	embedded, err := generated.GetSwagger()
	if err != nil {
		t.Fatalf("GetSwagger: %v", err)
	}
	if embedded.Paths.Find("/demos/{name}") == nil {
		t.Error("embedded spec missing /demos/{name}")
	}
	for path := range doc.Paths.Map() {
		if embedded.Paths.Find(path) == nil {
			t.Errorf("embedded spec missing %s, regenerate internal/api/generated", path)
		}
	}
	for name := range doc.Components.Schemas {
		if _, ok := embedded.Components.Schemas[name]; !ok {
			t.Errorf("embedded spec missing schema %s, regenerate internal/api/generated", name)
		}
	}
}

func TestErrorsAreJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, tt := range []struct {
		path string
		code int
	}{
		{"/demos/missing.qwd", http.StatusNotFound},
		{"/demos/missing.qwd/report", http.StatusNotFound},
		{"/demos?family=dem", http.StatusBadRequest},
	} {
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		var body generated.Error
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if resp.StatusCode != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.path, resp.StatusCode, tt.code)
		}
		if err != nil || body.Error == "" {
			t.Errorf("%s: body = %+v, err = %v", tt.path, body, err)
		}
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	var h generated.Health
	if code := get(t, srv.URL+"/health", &h); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if h.Status != "ok" || h.Demos != 2 {
		t.Errorf("health = %+v", h)
	}
}

func TestListDemos(t *testing.T) {
	srv, _ := newTestServer(t)

	var all []generated.Demo
	if code := get(t, srv.URL+"/demos", &all); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(all) != 2 || all[0].Name != "4on4.mvd" {
		t.Errorf("demos = %+v", all)
	}

	var mvd []generated.Demo
	get(t, srv.URL+"/demos?family=mvd", &mvd)
	if len(mvd) != 1 || mvd[0].Family != "mvd" {
		t.Errorf("mvd demos = %+v", mvd)
	}

	if code := get(t, srv.URL+"/demos?family=dem", nil); code != http.StatusBadRequest {
		t.Errorf("invalid family: status = %d, want 400", code)
	}
}

func TestGetDemo(t *testing.T) {
	srv, _ := newTestServer(t)

	var e generated.Demo
	if code := get(t, srv.URL+"/demos/duel.qwd", &e); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if e.Name != "duel.qwd" || e.Family != "qwd" || e.Compression != "plain" {
		t.Errorf("entry = %+v", e)
	}

	if code := get(t, srv.URL+"/demos/missing.qwd", nil); code != http.StatusNotFound {
		t.Errorf("missing demo: status = %d, want 404", code)
	}
	if code := get(t, srv.URL+"/demos/readme.txt", nil); code != http.StatusBadRequest {
		t.Errorf("bad name: status = %d, want 400", code)
	}
}

func TestGetDemoReport(t *testing.T) {
	srv, _ := newTestServer(t)

	var rep generated.Report
	if code := get(t, srv.URL+"/demos/4on4.mvd/report", &rep); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if rep.Records != 4 || rep.Family != "mvd" || rep.Error != nil {
		t.Errorf("report = %+v", rep)
	}
	if rep.Duration != rep.End-rep.Start {
		t.Errorf("duration = %v, want %v", rep.Duration, rep.End-rep.Start)
	}
}

func TestRescan(t *testing.T) {
	srv, dir := newTestServer(t)
	if err := os.WriteFile(filepath.Join(dir, "new.qwd"), demoBytes(t, frame.QWD), 0o644); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(srv.URL+"/demos/rescan", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var res generated.RescanResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Demos != 3 {
		t.Errorf("rescan found %d demos, want 3", res.Demos)
	}
}

func TestRelayEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	want := demoBytes(t, frame.MVD)

	c, err := relay.Dial(context.Background(), relay.URL(srv.URL, "4on4.mvd"), true, 0)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	var got []byte
	buf := make([]byte, 256)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, eof, err := c.TryRead(buf)
		if err != nil {
			t.Fatalf("TryRead: %v", err)
		}
		got = append(got, buf[:n]...)
		if eof {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("relayed %d bytes, want %d", len(got), len(want))
	}

	var status generated.RelayStatus
	if code := get(t, srv.URL+"/relay", &status); code != http.StatusOK {
		t.Fatalf("relay status = %d", code)
	}
	if status.Groups == nil {
		t.Error("relay status groups should encode as an empty list")
	}
}

func TestOpenAPIDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	if code := get(t, srv.URL+"/openapi.yaml", nil); code != http.StatusOK {
		t.Errorf("status = %d", code)
	}
}

func readEvent(t *testing.T, r *bufio.Reader) (string, generated.StatusEvent) {
	t.Helper()
	var name string
	var ev generated.StatusEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("reading event: %v", err)
		}
		line = strings.TrimSuffix(line, "\n")
		switch {
		case line == "":
			return name, ev
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("decoding event: %v", err)
			}
		}
	}
}

func TestRelayEvents(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/relay/events?demo=4on4.mvd")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	name, ev := readEvent(t, r)
	if name != "snapshot" {
		t.Errorf("first event = %q, want snapshot", name)
	}
	if ev.BroadcasterId != "test" || ev.Demos != 2 || ev.Sequence == 0 {
		t.Errorf("snapshot = %+v", ev)
	}

	name, next := readEvent(t, r)
	if name != "status" || next.Sequence <= ev.Sequence {
		t.Errorf("second event %q = %+v", name, next)
	}
}
