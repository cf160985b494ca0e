package record

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/msg"
	"github.com/dgnsrekt/qwdemo/internal/playback"
)

type memSink struct {
	bytes.Buffer
	failAfter int
	flushes   int
	closed    bool
}

func (s *memSink) Write(p []byte) (int, error) {
	if s.failAfter > 0 && s.Len()+len(p) > s.failAfter {
		return 0, errors.New("disk full")
	}
	return s.Buffer.Write(p)
}

func (s *memSink) Flush() error { s.flushes++; return nil }
func (s *memSink) Close() error { s.closed = true; return nil }

type sliceSource struct{ data []byte }

func (s *sliceSource) TryRead(p []byte) (int, bool, error) {
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, len(s.data) == 0, nil
}

func testSnapshot() *Snapshot {
	snap := &Snapshot{
		ServerCount: 7,
		GameDir:     "qw",
		PlayerNum:   2,
		Spectator:   true,
		LevelName:   "The Abandoned Base",
		ServerInfo:  `\maxclients\8\map\dm3`,
		Statics:     []Entity{{ModelIndex: 3, Origin: [3]float32{8, 16, 24}}},
		StaticSounds: []StaticSound{
			{Origin: [3]float32{1, 2, 3}, Sound: 4, Volume: 255, Attenuation: 64},
		},
		Baselines: make([]Entity, 10),
		Outgoing:  40,
		Incoming:  30,
	}
	snap.MoveVars[0] = 800
	for i := 0; i < 80; i++ {
		snap.Sounds = append(snap.Sounds, fmt.Sprintf("weapons/sound_number_%02d.wav", i))
	}
	snap.Models = []string{"maps/dm3.bsp", "progs/player.mdl"}
	snap.Baselines[5] = Entity{ModelIndex: 2, Frame: 1}
	snap.Players[0] = Player{Frags: 12, Ping: 25, UserID: 99, UserInfo: `\name\player`}
	snap.LightStyles[0] = "m"
	snap.Stats[1] = 100
	snap.Stats[2] = 1000
	return snap
}

// ops lists the server opcodes in a startup payload and appends any
// stufftext commands to stuff.
func ops(t *testing.T, payload []byte, stuff *[]string) []byte {
	t.Helper()
	r := msg.NewReader(payload)
	var out []byte
	skip := func(n int) {
		for i := 0; i < n; i++ {
			if _, err := r.Byte(); err != nil {
				t.Fatalf("short payload after %v", out)
			}
		}
	}
	str := func() string {
		s, err := r.CString()
		if err != nil {
			t.Fatalf("unterminated string after %v", out)
		}
		return s
	}
	for r.Remaining() > 0 {
		op, _ := r.Byte()
		out = append(out, op)
		switch op {
		case msg.SvcServerData:
			skip(8)
			str()
			skip(1)
			str()
			skip(40)
		case msg.SvcCDTrack:
			skip(1)
		case msg.SvcStuffText:
			*stuff = append(*stuff, strings.TrimSuffix(str(), "\n"))
		case msg.SvcSoundList, msg.SvcModelList:
			skip(1)
			for str() != "" {
			}
			skip(1)
		case msg.SvcSpawnStatic:
			skip(4 + 9)
		case msg.SvcSpawnStaticSound:
			skip(6 + 3)
		case msg.SvcSpawnBaseline:
			skip(2 + 4 + 9)
		case msg.SvcUpdateFrags, msg.SvcUpdatePing:
			skip(3)
		case msg.SvcUpdatePL, msg.SvcUpdateStat:
			skip(2)
		case msg.SvcUpdateEnterTime, msg.SvcUpdateStatLong:
			skip(5)
		case msg.SvcUpdateUserInfo:
			skip(5)
			str()
		case msg.SvcLightStyle:
			skip(1)
			str()
		default:
			t.Fatalf("unexpected opcode %d after %v", op, out)
		}
	}
	return out
}

func collapse(in []byte) []byte {
	var out []byte
	for _, b := range in {
		if len(out) == 0 || out[len(out)-1] != b {
			out = append(out, b)
		}
	}
	return out
}

func TestStartupOrder(t *testing.T) {
	sink := &memSink{}
	r := New(sink, Options{Family: frame.QWD, Logger: zap.NewNop()})
	if err := r.Start(1.25, testSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := r.Stop(2); err != nil {
		t.Fatal(err)
	}

	s := frame.NewScanner(bytes.NewReader(sink.Bytes()), frame.QWD)
	var all []byte
	var stuff []string
	var seqs []int32
	var soundChunks int
	sawSet := false
	for s.Scan() {
		rec := s.Record()
		if rec.Kind == frame.KindSet {
			if rec.Out != 40 || rec.In != 30 {
				t.Fatalf("set = %d/%d", rec.Out, rec.In)
			}
			sawSet = true
			break
		}
		if rec.Time != 1.25 {
			t.Fatalf("startup record stamped %v", rec.Time)
		}
		if len(rec.Payload) > msg.MaxMsgLen {
			t.Fatalf("chunk of %d bytes", len(rec.Payload))
		}
		hdr := msg.NewReader(rec.Payload)
		a, _ := hdr.Long()
		b, _ := hdr.Long()
		if a != b {
			t.Fatalf("sequence header %d/%d", a, b)
		}
		seqs = append(seqs, a)
		body := rec.Payload[8:]
		if body[0] == msg.SvcSoundList {
			soundChunks++
		}
		all = append(all, ops(t, body, &stuff)...)
	}
	if err := s.Err(); err != nil {
		t.Fatal(err)
	}
	if !sawSet {
		t.Fatal("no sequence record after the startup burst")
	}

	want := []byte{
		msg.SvcServerData, msg.SvcCDTrack, msg.SvcStuffText,
		msg.SvcSoundList, msg.SvcModelList,
		msg.SvcSpawnStatic, msg.SvcSpawnStaticSound, msg.SvcSpawnBaseline,
		msg.SvcStuffText,
	}
	for i := 0; i < msg.MaxClients; i++ {
		want = append(want, msg.SvcUpdateFrags, msg.SvcUpdatePing, msg.SvcUpdatePL,
			msg.SvcUpdateEnterTime, msg.SvcUpdateUserInfo)
	}
	want = append(want, msg.SvcLightStyle, msg.SvcUpdateStat, msg.SvcUpdateStatLong, msg.SvcStuffText)

	if got := collapse(all); !bytes.Equal(got, collapse(want)) {
		t.Fatalf("opcode order\n got %v\nwant %v", got, collapse(want))
	}
	if soundChunks < 2 {
		t.Fatalf("sound list not split: %d chunks", soundChunks)
	}
	for i, seq := range seqs {
		if seq != int32(i+1) {
			t.Fatalf("chunk sequence numbers %v", seqs)
		}
	}
	if len(stuff) != 3 || !strings.HasPrefix(stuff[0], `fullserverinfo "\maxclients`) ||
		stuff[1] != "cmd spawn 7 0" || stuff[2] != "skins" {
		t.Fatalf("stufftext = %q", stuff)
	}
}

func TestSkipsBlankBaselines(t *testing.T) {
	snap := &Snapshot{Baselines: make([]Entity, 4)}
	snap.Baselines[3] = Entity{Skin: 1}

	var buf bytes.Buffer
	if err := WriteStartup(frame.NewEncoder(&buf, frame.QWD), snap, 0); err != nil {
		t.Fatal(err)
	}
	count := bytes.Count(buf.Bytes(), []byte{msg.SvcSpawnBaseline, 3, 0, 0, 0, 0, 1})
	if count != 1 {
		t.Fatalf("baseline for entity 3 written %d times", count)
	}
}

func TestRecordedDemoPlaysBack(t *testing.T) {
	sink := &memSink{}
	r := New(sink, Options{Family: frame.QWD, CacheSize: 1, Signature: "recorded by qwdemo"})
	if err := r.Start(0, &Snapshot{}); err != nil {
		t.Fatal(err)
	}
	r.SetSequences(41, 31, 31)
	if err := r.RecordCommand(0.5, frame.Command{UserCmd: frame.UserCmd{Msec: 13}}); err != nil {
		t.Fatal(err)
	}
	if err := r.RecordMessage(0.5, []byte{1, 0, 0, 0, 1, 0, 0, 0, msg.SvcNop}, nil); err != nil {
		t.Fatal(err)
	}
	if sink.Len() != 0 {
		t.Fatalf("cache passed %d bytes through before stop", sink.Len())
	}
	if err := r.Stop(1); err != nil {
		t.Fatal(err)
	}
	if !sink.closed {
		t.Fatal("sink not closed")
	}
	if err := r.RecordSet(2, 0, 0); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("write after stop err = %v", err)
	}

	var reason playback.EndReason = -1
	var cmds int
	s, err := playback.New(&sliceSource{data: sink.Bytes()}, playback.Options{
		Family:    frame.QWD,
		Benchmark: true,
		OnEnd:     func(er playback.EndReason) { reason = er },
		OnCommand: func(int, frame.Command) { cmds++ },
	})
	if err != nil {
		t.Fatal(err)
	}

	var last []byte
	var printed bool
	for i := 0; i < 200 && s.State() != playback.Ended; i++ {
		m, ok, err := s.Poll()
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			s.Advance(0.1)
			continue
		}
		if bytes.Contains(m.Payload, []byte("recorded by qwdemo")) {
			printed = true
			if in, _ := msg.NewReader(m.Payload).Long(); in != 32 {
				t.Fatalf("signature sequence = %d, want 32", in)
			}
		}
		last = m.Payload
	}
	if reason != playback.Disconnected {
		t.Fatalf("end reason = %v, state %s", reason, s.State())
	}
	if !printed || cmds != 1 {
		t.Fatalf("printed=%v cmds=%d", printed, cmds)
	}
	if !bytes.HasSuffix(last, append([]byte(EndOfDemo), 0)) {
		t.Fatalf("last message = %q", last)
	}
}

func TestWriteFailureAborts(t *testing.T) {
	sink := &memSink{failAfter: 64}
	r := New(sink, Options{Family: frame.QWD})
	err := r.Start(0, testSnapshot())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if !sink.closed {
		t.Fatal("sink left open after abort")
	}
	if again := r.RecordMessage(1, []byte{1}, nil); again != err {
		t.Fatalf("later call err = %v", again)
	}
}

func TestMVDRecorder(t *testing.T) {
	sink := &memSink{}
	r := New(sink, Options{Family: frame.MVD})
	if err := r.RecordCommand(0, frame.Command{}); !errors.Is(err, frame.ErrWrongFamily) {
		t.Fatalf("command err = %v", err)
	}
	rt := frame.ToOne(4)
	if err := r.RecordMessage(0.02, []byte{msg.SvcNop}, &rt); err != nil {
		t.Fatalf("wrong family aborted the recording: %v", err)
	}
	if err := r.Stop(0.03); err != nil {
		t.Fatal(err)
	}

	s := frame.NewScanner(bytes.NewReader(sink.Bytes()), frame.MVD)
	var routes []frame.Routing
	for s.Scan() {
		routes = append(routes, s.Record().Routing)
	}
	if s.Err() != nil || len(routes) != 2 || routes[0] != rt || routes[1] != frame.ToAll() {
		t.Fatalf("routes = %v err = %v", routes, s.Err())
	}
}

func TestPingRequestsAreRateLimited(t *testing.T) {
	pings := 0
	r := New(&memSink{}, Options{
		Family:    frame.QWD,
		PingEvery: time.Hour,
		OnPing:    func() { pings++ },
	})
	for i := 0; i < 5; i++ {
		if err := r.RecordMessage(float64(i), []byte{1, 2, 3}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if pings != 1 {
		t.Fatalf("pings = %d, want 1", pings)
	}
}
