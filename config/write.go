package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"fearrpc/discovery"
	"fearrpc/presence"
	"fearrpc/tracker"
)

// The on-disk layout. Durations are written as strings so the file stays readable.
type fileSession struct {
	File             string `toml:"file"`
	MaxAge           string `toml:"max_age"`
	AutoSaveInterval string `toml:"autosave_interval"`
}

type fileRedis struct {
	URL     string `toml:"url"`
	Channel string `toml:"channel"`
}

type fileAnchor struct {
	Match  string `toml:"match"`
	Offset int64  `toml:"offset"`
}

type fileDiscovery struct {
	LevelPatterns     []string     `toml:"level_patterns"`
	LegacyLevelOffset int64        `toml:"legacy_level_offset"`
	LevelWindow       uint64       `toml:"level_window"`
	HealthWindow      uint64       `toml:"health_window"`
	DeathWindow       uint64       `toml:"death_window"`
	DeathUpperBound   int32        `toml:"death_upper_bound"`
	DeathOffsets      []int64      `toml:"death_offsets"`
	Anchors           []fileAnchor `toml:"anchors"`
}

type fileHealthChain struct {
	Description string  `toml:"description"`
	Offsets     []int64 `toml:"offsets"`
}

type document struct {
	AppID         string `toml:"app_id"`
	PollInterval  string `toml:"poll_interval"`
	ImageInterval string `toml:"image_interval"`
	StatsFile     string `toml:"stats_file"`
	LevelDatabase string `toml:"level_database"`
	Verbose       bool   `toml:"verbose"`

	Images    presence.Images             `toml:"images"`
	Session   fileSession                 `toml:"session"`
	Redis     fileRedis                   `toml:"redis"`
	Health    map[string]discovery.Bounds `toml:"health"`
	Discovery fileDiscovery               `toml:"discovery"`

	Processes    []tracker.Candidate `toml:"processes"`
	HealthChains []fileHealthChain   `toml:"health_chains"`
}

func toDocument(c Config) document {
	doc := document{
		AppID:         c.AppID,
		PollInterval:  c.PollInterval.String(),
		ImageInterval: c.ImageInterval.String(),
		StatsFile:     c.StatsFile,
		LevelDatabase: c.LevelDatabase,
		Verbose:       c.Verbose,
		Images:        c.Images,
		Session: fileSession{
			File:             c.Session.File,
			MaxAge:           c.Session.MaxAge.String(),
			AutoSaveInterval: c.Session.AutoSaveInterval.String(),
		},
		Redis:  fileRedis{URL: c.Redis.URL, Channel: c.Redis.Channel},
		Health: c.Health,
		Discovery: fileDiscovery{
			LevelPatterns:     c.Discovery.LevelPatterns,
			LegacyLevelOffset: c.Discovery.LegacyLevelOffset,
			LevelWindow:       c.Discovery.LevelWindow,
			HealthWindow:      c.Discovery.HealthWindow,
			DeathWindow:       c.Discovery.DeathWindow,
			DeathUpperBound:   c.Discovery.DeathUpperBound,
			DeathOffsets:      c.Discovery.DeathOffsets,
		},
		Processes: c.Processes,
	}
	for _, a := range c.Discovery.Anchors {
		doc.Discovery.Anchors = append(doc.Discovery.Anchors, fileAnchor{Match: a.Match, Offset: a.Offset})
	}
	for _, hc := range c.HealthChains {
		doc.HealthChains = append(doc.HealthChains, fileHealthChain{Description: hc.Description, Offsets: hc.Offsets})
	}
	return doc
}

// Marshal renders c as TOML.
func Marshal(c Config) ([]byte, error) {
	return toml.Marshal(toDocument(c))
}

// WriteDefault writes the default configuration to path unless a file is already there.
func WriteDefault(path string) error {
	if exists(path) {
		return nil
	}
	data, err := Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
