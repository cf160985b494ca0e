package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/qwdemo/internal/demofile"
	"github.com/dgnsrekt/qwdemo/internal/matchrec"
	"github.com/dgnsrekt/qwdemo/internal/msg"
	"github.com/dgnsrekt/qwdemo/internal/qtv"
	"github.com/dgnsrekt/qwdemo/internal/ring"
	"github.com/dgnsrekt/qwdemo/internal/writecache"
)

type Config struct {
	Demo     DemoConfig     `mapstructure:"demo"`
	Playback PlaybackConfig `mapstructure:"playback"`
	QTV      QTVConfig      `mapstructure:"qtv"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Record   RecordConfig   `mapstructure:"record"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DemoConfig struct {
	Dir      string        `mapstructure:"dir"`
	CacheKB  int           `mapstructure:"cache_kb"`
	Format   string        `mapstructure:"format"`
	Pings    bool          `mapstructure:"pings"`
	PingRate time.Duration `mapstructure:"ping_rate"`
}

type PlaybackConfig struct {
	Timedemo   bool          `mapstructure:"timedemo"`
	Speed      float64       `mapstructure:"speed"`
	Prebuffer  time.Duration `mapstructure:"prebuffer"`
	MaxMessage int           `mapstructure:"max_message"`
	Track      int           `mapstructure:"track"`
}

type QTVConfig struct {
	Address     string        `mapstructure:"address"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Buffer      int           `mapstructure:"buffer"`
}

type RelayConfig struct {
	Listen         string        `mapstructure:"listen"`
	Pace           float64       `mapstructure:"pace"`
	Compress       bool          `mapstructure:"compress"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	Rate           float64       `mapstructure:"rate"`
	Burst          int           `mapstructure:"burst"`
	RescanInterval time.Duration `mapstructure:"rescan_interval"`
	EventsInterval time.Duration `mapstructure:"events_interval"`
}

type RecordConfig struct {
	Mode      string        `mapstructure:"mode"`
	MinLength time.Duration `mapstructure:"min_length"`
	Dir       string        `mapstructure:"dir"`
	TempDir   string        `mapstructure:"temp_dir"`
	Signature string        `mapstructure:"signature"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("demo.dir", "demos")
	v.SetDefault("demo.cache_kb", 0)
	v.SetDefault("demo.format", "qwd")
	v.SetDefault("demo.pings", false)
	v.SetDefault("demo.ping_rate", "1s")
	v.SetDefault("playback.timedemo", false)
	v.SetDefault("playback.speed", 1.0)
	v.SetDefault("playback.prebuffer", ring.DefaultPrebuffer.String())
	v.SetDefault("playback.max_message", msg.MaxNetMessage)
	v.SetDefault("playback.track", -1)
	v.SetDefault("qtv.address", "")
	v.SetDefault("qtv.dial_timeout", qtv.DefaultDialTimeout.String())
	v.SetDefault("qtv.buffer", 64)
	v.SetDefault("relay.listen", ":8080")
	v.SetDefault("relay.pace", 1.0)
	v.SetDefault("relay.compress", true)
	v.SetDefault("relay.send_buffer", 256)
	v.SetDefault("relay.rate", 0)
	v.SetDefault("relay.burst", 32)
	v.SetDefault("relay.rescan_interval", "1m")
	v.SetDefault("relay.events_interval", "1s")
	v.SetDefault("record.mode", "off")
	v.SetDefault("record.min_length", "2m")
	v.SetDefault("record.dir", "")
	v.SetDefault("record.temp_dir", "")
	v.SetDefault("record.signature", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")

	// Environment variable support
	v.SetEnvPrefix("QWDEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// DemoFormat is the format new recordings are written in.
func (c *Config) DemoFormat() demofile.Format {
	f, _ := demofile.ParseFormat(c.Demo.Format)
	return f
}

// CacheSize is the recorder write cache size in bytes, or zero when
// caching is off.
func (c *Config) CacheSize() int {
	if c.Demo.CacheKB <= 0 {
		return 0
	}
	return writecache.SizeFromKB(c.Demo.CacheKB)
}

// MatchMode is the parsed record.mode.
func (c *Config) MatchMode() matchrec.Mode {
	m, _ := matchrec.ParseMode(c.Record.Mode)
	return m
}

// RecordDir is where recordings are saved, defaulting to the demo dir.
func (c *Config) RecordDir() string {
	if c.Record.Dir != "" {
		return c.Record.Dir
	}
	return c.Demo.Dir
}

// LogLevel is the parsed logging.level.
func (c *Config) LogLevel() zap.AtomicLevel {
	lvl := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	_ = lvl.UnmarshalText([]byte(c.Logging.Level))
	return lvl
}
