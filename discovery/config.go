package discovery

import (
	"math"
	"strings"

	"fearrpc/process"
)

// Bounds is the plausible health range of a game version.
type Bounds struct {
	Min float32 `mapstructure:"min" toml:"min"`
	Max float32 `mapstructure:"max" toml:"max"`
}

// DefaultBounds applies to versions missing from a BoundsTable.
var DefaultBounds = Bounds{Min: 0, Max: 100}

func (b Bounds) Contains(v float32) bool {
	return v >= b.Min && v <= b.Max
}

// Clamp forces v into the range. NaN clamps to Min.
func (b Bounds) Clamp(v float32) float32 {
	switch {
	case math.IsNaN(float64(v)), v < b.Min:
		return b.Min
	case v > b.Max:
		return b.Max
	}
	return v
}

// BoundsTable maps version tags to health bounds.
type BoundsTable map[string]Bounds

// Lookup matches the version tag case-insensitively.
func (t BoundsTable) Lookup(version string) Bounds {
	if b, ok := t[version]; ok {
		return b
	}
	for k, b := range t {
		if strings.EqualFold(k, version) {
			return b
		}
	}
	return DefaultBounds
}

// DefaultBoundsTable returns the stock health ranges of the three games.
func DefaultBoundsTable() BoundsTable {
	return BoundsTable{
		"FEAR":    {Min: 0, Max: 150},
		"FEARMP":  {Min: 0, Max: 150},
		"FEAR2":   {Min: 0, Max: 200},
		"FEAR2MP": {Min: 0, Max: 200},
		"FEAR3":   {Min: 0, Max: 100},
		"Fear3":   {Min: 0, Max: 100},
	}
}

// Anchor assigns a module offset to every chain whose description contains Match.
type Anchor struct {
	Match  string
	Offset int64
}

// Config holds the discovery heuristics. The zero value finds nothing;
// start from DefaultConfig.
type Config struct {
	LevelPatterns     []string
	LevelMarker       string
	LevelSignature    string
	LevelProbeLength  process.ProcessMemorySize
	LegacyLevelOffset int64
	LegacyProbeLength process.ProcessMemorySize
	LevelWindow       process.ProcessMemorySize

	HealthChains []process.PointerChain
	Anchors      []Anchor
	HealthWindow process.ProcessMemorySize

	DeathOffsets    []int64
	DeathUpperBound int32
	DeathWindow     process.ProcessMemorySize
}

// DefaultHealthChains are the known health pointer chains, in priority order.
func DefaultHealthChains() []process.PointerChain {
	return []process.PointerChain{
		process.NewPointerChain("chain 1: FEAR.exe+03ACC -> 928 -> 70 -> 0 -> 0 -> 40 -> 17C -> 604", 0x928, 0x70, 0x0, 0x0, 0x40, 0x17C, 0x604),
		process.NewPointerChain("chain 2: FEAR.exe+03ACC -> 928 -> 70 -> 0 -> 0 -> 40 -> 1BC -> 604", 0x928, 0x70, 0x0, 0x0, 0x40, 0x1BC, 0x604),
		process.NewPointerChain("chain 3: FEAR.exe+04654 -> 778 -> 0 -> 4 -> 0 -> 32C -> 12C", 0x778, 0x0, 0x4, 0x0, 0x32C, 0x12C),
	}
}

// DefaultAnchors is the description-to-module-offset dispatch table.
func DefaultAnchors() []Anchor {
	return []Anchor{
		{Match: "03ACC", Offset: 0x03ACC},
		{Match: "04654", Offset: 0x04654},
		{Match: "0894C", Offset: 0x0894C},
		{Match: "13628", Offset: 0x13628},
		{Match: "21007F", Offset: 0x21007F},
	}
}

func DefaultConfig() Config {
	return Config{
		LevelPatterns:     []string{".World00p", ".World", "Intro", "Docks"},
		LevelMarker:       ".World",
		LevelSignature:    ".World00p",
		LevelProbeLength:  50,
		LegacyLevelOffset: 0x16C045,
		LegacyProbeLength: 128,
		LevelWindow:       0x100000,

		HealthChains: DefaultHealthChains(),
		Anchors:      DefaultAnchors(),
		HealthWindow: 0x200000,

		DeathOffsets:    []int64{-0x100, -0x80, 0x80, 0x100, 0x120, 0x140, 0x200},
		DeathUpperBound: 1000,
		DeathWindow:     0x100000,
	}
}

// Anchor returns the module offset for a chain description, first table match wins.
func (c Config) Anchor(description string) (int64, bool) {
	for _, a := range c.Anchors {
		if strings.Contains(description, a.Match) {
			return a.Offset, true
		}
	}
	return 0, false
}
