package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/frame"
	"github.com/dgnsrekt/qwdemo/internal/matchrec"
	"github.com/dgnsrekt/qwdemo/internal/playback"
	"github.com/dgnsrekt/qwdemo/internal/relay"
	"github.com/dgnsrekt/qwdemo/internal/ring"
)

// MaxMessageLimit is the largest playback.max_message whose records still
// fit in the playback ring.
const MaxMessageLimit = ring.DefaultCapacity - frame.MaxHeaderSize

// InvalidValue is one rejected configuration key.
type InvalidValue struct {
	Key    string
	Value  any
	Reason string
}

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	Invalid []InvalidValue
}

func (e *ValidationErrors) add(key string, value any, reason string) {
	e.Invalid = append(e.Invalid, InvalidValue{Key: key, Value: value, Reason: reason})
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Invalid) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	for _, iv := range e.Invalid {
		sb.WriteString(fmt.Sprintf("  - %s = %v: %s\n", iv.Key, iv.Value, iv.Reason))
	}

	return sb.String()
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Demo.Dir == "" {
		errs.add("demo.dir", c.Demo.Dir, "must not be empty")
	}
	if c.Demo.CacheKB < 0 {
		errs.add("demo.cache_kb", c.Demo.CacheKB, "must be >= 0")
	}
	if _, err := demofile.ParseFormat(c.Demo.Format); err != nil {
		errs.add("demo.format", c.Demo.Format, "valid formats: "+strings.Join(formatNames(), ", "))
	}
	if c.Demo.Pings && c.Demo.PingRate <= 0 {
		errs.add("demo.ping_rate", c.Demo.PingRate, "must be positive when pings are enabled")
	}

	if c.Playback.Speed < 0 {
		errs.add("playback.speed", c.Playback.Speed, "must be >= 0")
	}
	if c.Playback.Prebuffer < 0 {
		errs.add("playback.prebuffer", c.Playback.Prebuffer, "must be >= 0")
	}
	if c.Playback.MaxMessage < 0 || c.Playback.MaxMessage > MaxMessageLimit {
		errs.add("playback.max_message", c.Playback.MaxMessage,
			fmt.Sprintf("must be between 0 and %d", MaxMessageLimit))
	}
	if c.Playback.Track < playback.NoTrack || c.Playback.Track >= 32 {
		errs.add("playback.track", c.Playback.Track, "must be -1 or a player slot 0-31")
	}

	if c.QTV.DialTimeout <= 0 {
		errs.add("qtv.dial_timeout", c.QTV.DialTimeout, "must be positive")
	}
	if c.QTV.Buffer < 1 {
		errs.add("qtv.buffer", c.QTV.Buffer, "must be >= 1")
	}

	if c.Relay.Pace < 0 || c.Relay.Pace > relay.MaxPace {
		errs.add("relay.pace", c.Relay.Pace, fmt.Sprintf("must be between 0 and %d", relay.MaxPace))
	}
	if c.Relay.SendBuffer < 1 {
		errs.add("relay.send_buffer", c.Relay.SendBuffer, "must be >= 1")
	}
	if c.Relay.Rate < 0 {
		errs.add("relay.rate", c.Relay.Rate, "must be >= 0")
	}
	if c.Relay.Rate > 0 && c.Relay.Burst < 1 {
		errs.add("relay.burst", c.Relay.Burst, "must be >= 1 when rate is set")
	}
	if c.Relay.RescanInterval < 0 {
		errs.add("relay.rescan_interval", c.Relay.RescanInterval, "must be >= 0")
	}
	if c.Relay.EventsInterval < 0 {
		errs.add("relay.events_interval", c.Relay.EventsInterval, "must be >= 0")
	}

	if _, err := matchrec.ParseMode(c.Record.Mode); err != nil {
		errs.add("record.mode", c.Record.Mode, "valid modes: off (0), manual (1), auto (2)")
	}
	if c.Record.MinLength < 0 {
		errs.add("record.min_length", c.Record.MinLength, "must be >= 0")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs.add("logging.level", c.Logging.Level, "valid levels: debug, info, warn, error")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func formatNames() []string {
	names := make([]string, 0, len(demofile.Extensions))
	for _, ext := range demofile.Extensions {
		names = append(names, strings.TrimPrefix(ext, "."))
	}
	return names
}
