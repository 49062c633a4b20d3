// Package gamestate reads the game values through resolved addresses and
// turns consecutive readings into level, health and death events.
package gamestate

import (
	"math"
	"strings"

	"fearrpc/discovery"
	"fearrpc/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	// LevelNotResolved is reported while no level address is known.
	LevelNotResolved = "Searching for game..."
	// LevelReadError is reported when the level address could not be read.
	LevelReadError = "Read error"
	// MenuLabel replaces an empty level name.
	MenuLabel = "Menu"

	// LevelSuffix marks a playable level file.
	LevelSuffix = ".World00p"

	MaxLevelNameLength   = 128
	MaxLevelReadFailures = 5
	HealthDeadBand       = 1.0
)

// State is the last observed game state.
type State struct {
	Level       string
	Health      float32
	HealthKnown bool
	Deaths      int32
	Multiplayer bool
	Version     string
	InMenu      bool
}

// IsMenuLevel reports whether a level name denotes a menu rather than a playable level.
func IsMenuLevel(level string) bool {
	return level == MenuLabel || !strings.HasSuffix(strings.ToLower(level), strings.ToLower(LevelSuffix))
}

// Tracker owns the game state of one monitor. It is not safe for concurrent use.
type Tracker struct {
	state       State
	lastLevel   string
	failedReads int
	log         *logger.Logger
}

func NewTracker() *Tracker {
	return &Tracker{
		state: State{InMenu: true},
		log:   logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "gamestate")),
	}
}

func (t *Tracker) State() State { return t.state }

// LastLevel is the most recent non-menu level.
func (t *Tracker) LastLevel() string { return t.lastLevel }

// SetMode records the version of the attached process.
func (t *Tracker) SetMode(version string, multiplayer bool) {
	t.state.Version = version
	t.state.Multiplayer = multiplayer
}

// RestoreDeaths raises the tracked death count to at least n.
func (t *Tracker) RestoreDeaths(n int32) {
	if n > t.state.Deaths {
		t.state.Deaths = n
	}
}

// ProcessGone forgets everything read from the previous process. The death
// count and the last level survive.
func (t *Tracker) ProcessGone() {
	t.state.Level = ""
	t.state.Health = 0
	t.state.HealthKnown = false
	t.state.InMenu = true
	t.failedReads = 0
}

// Tick reads one round of values and returns the events they produce.
// A nil reader means no process is attached.
func (t *Tracker) Tick(r process.Reader, addrs *discovery.Addresses, bounds discovery.Bounds) []Event {
	var events []Event

	level := t.readLevel(r, addrs)
	t.state.Level = level
	t.state.InMenu = IsMenuLevel(level)
	if !t.state.InMenu && level != t.lastLevel {
		events = append(events, Event{Kind: LevelChanged, OldLevel: t.lastLevel, NewLevel: level})
		t.log.Infoln("Level changed:", t.lastLevel, "->", level)
		t.lastLevel = level
	}

	health, known := t.readHealth(r, addrs, bounds)
	if known && t.state.HealthKnown {
		prev := t.state.Health
		if prev > 0 && health <= 0 {
			t.state.Deaths++
			events = append(events, Event{Kind: Death, Deaths: t.state.Deaths})
			t.log.Infoln("Death", t.state.Deaths)
		}
		if math.Abs(float64(prev-health)) > HealthDeadBand {
			events = append(events, Event{Kind: HealthChanged, OldHealth: prev, NewHealth: health})
		}
	}
	t.state.Health = health
	t.state.HealthKnown = known

	t.readDeaths(r, addrs)

	return events
}

func (t *Tracker) readLevel(r process.Reader, addrs *discovery.Addresses) string {
	addr, ok := addrs.Level.Get()
	if r == nil || !ok {
		return LevelNotResolved
	}

	level, err := process.TryReadString(r, addr, MaxLevelNameLength)
	if err != nil {
		t.failedReads++
		if t.failedReads > MaxLevelReadFailures {
			t.log.Warn("Level address ", addr.ToString(), " failed ", t.failedReads, " reads, rediscovering")
			addrs.InvalidateLevel()
			t.failedReads = 0
		}
		return LevelReadError
	}
	t.failedReads = 0

	if strings.TrimSpace(level) == "" {
		level = MenuLabel
	}
	return level
}

// readHealth returns the clamped health and whether it is meaningful.
func (t *Tracker) readHealth(r process.Reader, addrs *discovery.Addresses, bounds discovery.Bounds) (float32, bool) {
	addr, ok := addrs.Health.Get()
	if r == nil || !ok || t.state.Multiplayer {
		return 0, false
	}
	v, err := process.TryReadF32(r, addr)
	if err != nil {
		return 0, false
	}
	return bounds.Clamp(v), true
}

func (t *Tracker) readDeaths(r process.Reader, addrs *discovery.Addresses) {
	addr, ok := addrs.Deaths.Get()
	if r == nil || !ok || t.state.Multiplayer {
		return
	}
	v, err := process.TryReadI32(r, addr)
	if err != nil {
		return
	}
	if v > t.state.Deaths {
		t.state.Deaths = v
	}
}
