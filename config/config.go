// Package config loads fearrpc.toml through viper. Every key has a default,
// a missing file is replaced by a freshly written default one, and any key
// can be overridden from the environment as FEARRPC_<SECTION>_<KEY>.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fearrpc/discovery"
	"fearrpc/presence"
	"fearrpc/process"
	"fearrpc/session"
	"fearrpc/tracker"
)

const (
	DefaultFile = "fearrpc.toml"
	EnvPrefix   = "FEARRPC"

	DefaultAppID        = "1169265821965627492"
	DefaultPollInterval = 2 * time.Second
	DefaultStatsFile    = "GameStats.log"
	DefaultLevelDBFile  = "LevelDatabase.yaml"
)

type Session struct {
	File             string        `mapstructure:"file"`
	MaxAge           time.Duration `mapstructure:"max_age"`
	AutoSaveInterval time.Duration `mapstructure:"autosave_interval"`
}

type Redis struct {
	// URL is a redis:// URL; empty disables the publisher.
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type Anchor struct {
	Match  string `mapstructure:"match"`
	Offset int64  `mapstructure:"offset"`
}

// Discovery overrides the scan heuristics. Zero fields keep the built-in value.
type Discovery struct {
	LevelPatterns     []string `mapstructure:"level_patterns"`
	LegacyLevelOffset int64    `mapstructure:"legacy_level_offset"`
	LevelWindow       uint64   `mapstructure:"level_window"`
	HealthWindow      uint64   `mapstructure:"health_window"`
	DeathWindow       uint64   `mapstructure:"death_window"`
	DeathUpperBound   int32    `mapstructure:"death_upper_bound"`
	DeathOffsets      []int64  `mapstructure:"death_offsets"`
	Anchors           []Anchor `mapstructure:"anchors"`
}

type HealthChain struct {
	Description string  `mapstructure:"description"`
	Offsets     []int64 `mapstructure:"offsets"`
}

type Config struct {
	AppID         string        `mapstructure:"app_id"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	ImageInterval time.Duration `mapstructure:"image_interval"`
	StatsFile     string        `mapstructure:"stats_file"`
	LevelDatabase string        `mapstructure:"level_database"`
	Verbose       bool          `mapstructure:"verbose"`

	Images    presence.Images `mapstructure:"images"`
	Session   Session         `mapstructure:"session"`
	Redis     Redis           `mapstructure:"redis"`
	Discovery Discovery       `mapstructure:"discovery"`

	Processes    []tracker.Candidate         `mapstructure:"processes"`
	Health       map[string]discovery.Bounds `mapstructure:"health"`
	HealthChains []HealthChain               `mapstructure:"health_chains"`

	// Path is the file the configuration was read from.
	Path string `mapstructure:"-"`
}

func Default() Config {
	chains := discovery.DefaultHealthChains()
	hc := make([]HealthChain, 0, len(chains))
	for _, c := range chains {
		hc = append(hc, HealthChain{Description: c.Description, Offsets: append([]int64(nil), c.Offsets...)})
	}

	dc := discovery.DefaultConfig()
	anchors := make([]Anchor, 0, len(dc.Anchors))
	for _, a := range dc.Anchors {
		anchors = append(anchors, Anchor{Match: a.Match, Offset: a.Offset})
	}

	return Config{
		AppID:         DefaultAppID,
		PollInterval:  DefaultPollInterval,
		ImageInterval: presence.DefaultImageInterval,
		StatsFile:     DefaultStatsFile,
		LevelDatabase: DefaultLevelDBFile,
		Images:        presence.DefaultImages(),
		Session: Session{
			File:             session.DefaultFile,
			MaxAge:           session.DefaultMaxAge,
			AutoSaveInterval: session.DefaultAutoSaveInterval,
		},
		Redis: Redis{Channel: presence.DefaultChannel},
		Discovery: Discovery{
			LevelPatterns:     dc.LevelPatterns,
			LegacyLevelOffset: dc.LegacyLevelOffset,
			LevelWindow:       uint64(dc.LevelWindow),
			HealthWindow:      uint64(dc.HealthWindow),
			DeathWindow:       uint64(dc.DeathWindow),
			DeathUpperBound:   dc.DeathUpperBound,
			DeathOffsets:      dc.DeathOffsets,
			Anchors:           anchors,
		},
		Processes:    tracker.DefaultCandidates(),
		Health:       discovery.DefaultBoundsTable(),
		HealthChains: hc,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("app_id", d.AppID)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("image_interval", d.ImageInterval)
	v.SetDefault("stats_file", d.StatsFile)
	v.SetDefault("level_database", d.LevelDatabase)
	v.SetDefault("verbose", false)

	v.SetDefault("images.large", d.Images.Large)
	v.SetDefault("images.menu", d.Images.Menu)
	v.SetDefault("images.multiplayer", d.Images.Multiplayer)
	v.SetDefault("images.fear2", d.Images.Fear2)
	v.SetDefault("images.fear3", d.Images.Fear3)

	v.SetDefault("session.file", d.Session.File)
	v.SetDefault("session.max_age", d.Session.MaxAge)
	v.SetDefault("session.autosave_interval", d.Session.AutoSaveInterval)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.channel", d.Redis.Channel)

	v.SetDefault("discovery.legacy_level_offset", d.Discovery.LegacyLevelOffset)
	v.SetDefault("discovery.level_window", d.Discovery.LevelWindow)
	v.SetDefault("discovery.health_window", d.Discovery.HealthWindow)
	v.SetDefault("discovery.death_window", d.Discovery.DeathWindow)
	v.SetDefault("discovery.death_upper_bound", d.Discovery.DeathUpperBound)
}

// Load reads the configuration at path. When the file does not exist the
// defaults are written there first.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultFile
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := WriteDefault(path); err != nil {
			return Config{}, err
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read default config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Path = path
	cfg.fill()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fill restores the tables that have no scalar default.
func (c *Config) fill() {
	d := Default()
	if len(c.Processes) == 0 {
		c.Processes = d.Processes
	}
	if len(c.HealthChains) == 0 {
		c.HealthChains = d.HealthChains
	}
	if len(c.Health) == 0 {
		c.Health = d.Health
	}
	if len(c.Discovery.LevelPatterns) == 0 {
		c.Discovery.LevelPatterns = d.Discovery.LevelPatterns
	}
	if len(c.Discovery.DeathOffsets) == 0 {
		c.Discovery.DeathOffsets = d.Discovery.DeathOffsets
	}
	if len(c.Discovery.Anchors) == 0 {
		c.Discovery.Anchors = d.Discovery.Anchors
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval))
	}
	if c.ImageInterval < 0 {
		errs = append(errs, fmt.Errorf("image_interval must not be negative, got %s", c.ImageInterval))
	}
	if c.Session.File == "" {
		errs = append(errs, errors.New("session.file is empty"))
	}
	for i, p := range c.Processes {
		if p.Version == "" || p.Executable == "" {
			errs = append(errs, fmt.Errorf("processes[%d] needs both version and executable", i))
		}
	}
	for version, b := range c.Health {
		if b.Max <= b.Min {
			errs = append(errs, fmt.Errorf("health.%s: max %.1f must exceed min %.1f", version, b.Max, b.Min))
		}
	}
	for i, hc := range c.HealthChains {
		if len(hc.Offsets) == 0 {
			errs = append(errs, fmt.Errorf("health_chains[%d] has no offsets", i))
		}
	}
	return errors.Join(errs...)
}

func (c Config) BoundsTable() discovery.BoundsTable {
	t := make(discovery.BoundsTable, len(c.Health))
	for k, b := range c.Health {
		t[k] = b
	}
	return t
}

// DiscoveryConfig merges the overrides into discovery.DefaultConfig.
func (c Config) DiscoveryConfig() discovery.Config {
	dc := discovery.DefaultConfig()
	d := c.Discovery

	if len(d.LevelPatterns) > 0 {
		dc.LevelPatterns = d.LevelPatterns
	}
	if d.LegacyLevelOffset != 0 {
		dc.LegacyLevelOffset = d.LegacyLevelOffset
	}
	if d.LevelWindow != 0 {
		dc.LevelWindow = process.ProcessMemorySize(d.LevelWindow)
	}
	if d.HealthWindow != 0 {
		dc.HealthWindow = process.ProcessMemorySize(d.HealthWindow)
	}
	if d.DeathWindow != 0 {
		dc.DeathWindow = process.ProcessMemorySize(d.DeathWindow)
	}
	if d.DeathUpperBound != 0 {
		dc.DeathUpperBound = d.DeathUpperBound
	}
	if len(d.DeathOffsets) > 0 {
		dc.DeathOffsets = d.DeathOffsets
	}
	if len(d.Anchors) > 0 {
		dc.Anchors = dc.Anchors[:0:0]
		for _, a := range d.Anchors {
			dc.Anchors = append(dc.Anchors, discovery.Anchor{Match: a.Match, Offset: a.Offset})
		}
	}
	if len(c.HealthChains) > 0 {
		dc.HealthChains = dc.HealthChains[:0:0]
		for _, hc := range c.HealthChains {
			dc.HealthChains = append(dc.HealthChains, process.NewPointerChain(hc.Description, hc.Offsets...))
		}
	}
	return dc
}

// Resolve makes a relative file setting relative to the directory of the config file.
func (c Config) Resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || c.Path == "" {
		return name
	}
	return filepath.Join(filepath.Dir(c.Path), name)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
