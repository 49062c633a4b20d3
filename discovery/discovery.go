// Package discovery locates the level, health and death counter addresses
// inside the game module.
package discovery

import (
	"strings"

	"fearrpc/process"
	"fearrpc/search"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Addresses is the resolved location of each tracked value.
type Addresses struct {
	Level  process.ResolvedAddress
	Health process.ResolvedAddress
	Deaths process.ResolvedAddress
}

// Reset forgets every address.
func (a *Addresses) Reset() {
	*a = Addresses{}
}

// InvalidateLevel forces the level address to be discovered again.
func (a *Addresses) InvalidateLevel() {
	a.Level = process.Unresolved()
}

// Complete reports whether all three values are resolved.
func (a Addresses) Complete() bool {
	return a.Level.IsResolved() && a.Health.IsResolved() && a.Deaths.IsResolved()
}

func (a Addresses) String() string {
	return "level=" + a.Level.String() + " health=" + a.Health.String() + " deaths=" + a.Deaths.String()
}

type Engine struct {
	cfg Config
	log *logger.Logger
}

func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		log: logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "discovery")),
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Discover fills every unresolved address, in the order level, health,
// deaths. A miss leaves the value unresolved for the next attempt.
func (e *Engine) Discover(r process.Reader, base process.ProcessMemoryAddress, bounds Bounds, addrs *Addresses) {
	if base == 0 {
		return
	}

	if !addrs.Level.IsResolved() {
		addrs.Level = e.FindLevel(r, base)
		e.report("level", addrs.Level)
	}
	if !addrs.Health.IsResolved() {
		addrs.Health = e.FindHealth(r, base, bounds)
		e.report("health", addrs.Health)
	}
	if !addrs.Deaths.IsResolved() {
		addrs.Deaths = e.FindDeaths(r, base, addrs.Health)
		e.report("deaths", addrs.Deaths)
	}
}

func (e *Engine) report(what string, addr process.ResolvedAddress) {
	if addr.IsResolved() {
		e.log.Infoln("Found", what, "at", addr.String())
		return
	}
	e.log.Debugln("No address for", what)
}

func (e *Engine) levelShapeOK(r process.Reader, addr process.ProcessMemoryAddress, probe process.ProcessMemorySize) bool {
	s := process.ReadString(r, addr, probe)
	return s != "" && strings.Contains(s, e.cfg.LevelMarker)
}

// FindLevel tries the level-name string scan, then the signature scan, then the legacy offset.
func (e *Engine) FindLevel(r process.Reader, base process.ProcessMemoryAddress) process.ResolvedAddress {
	w := search.ModuleWindow(base, e.cfg.LevelWindow)
	validate := func(addr process.ProcessMemoryAddress) bool {
		return e.levelShapeOK(r, addr, e.cfg.LevelProbeLength)
	}

	for _, pattern := range e.cfg.LevelPatterns {
		if pattern == "" {
			continue
		}
		if found := search.FindString(r, w, pattern, search.WithStringMode(), search.WithValidator(validate)); found.IsResolved() {
			e.log.Debugln("Level found by pattern", pattern)
			return found
		}
	}

	if e.cfg.LevelSignature != "" {
		if found := search.FindString(r, w, e.cfg.LevelSignature, search.WithValidator(validate)); found.IsResolved() {
			e.log.Debugln("Level found by signature")
			return found
		}
	}

	if e.cfg.LegacyLevelOffset != 0 {
		addr := base.Offset(e.cfg.LegacyLevelOffset)
		if e.levelShapeOK(r, addr, e.cfg.LegacyProbeLength) {
			e.log.Debugln("Level found at legacy offset", addr.ToString())
			return process.At(addr)
		}
	}

	return process.Unresolved()
}

// FindHealth resolves the configured pointer chains, falling back to a float range scan.
func (e *Engine) FindHealth(r process.Reader, base process.ProcessMemoryAddress, bounds Bounds) process.ResolvedAddress {
	if found := e.HealthFromChains(r, base, bounds); found.IsResolved() {
		return found
	}

	e.log.Debugln("Pointer chains failed, scanning for health")
	return search.FindFloat32InRange(r, search.ModuleWindow(base, e.cfg.HealthWindow), bounds.Min, bounds.Max)
}

// HealthFromChains returns the first chain whose target holds a float within bounds.
func (e *Engine) HealthFromChains(r process.Reader, base process.ProcessMemoryAddress, bounds Bounds) process.ResolvedAddress {
	for _, chain := range e.cfg.HealthChains {
		offset, ok := e.cfg.Anchor(chain.Description)
		if !ok {
			e.log.Debugln("No anchor for chain", chain.Description)
			continue
		}

		target := process.ResolvePointerChain(r, chain.WithBase(base.Offset(offset)))
		addr, ok := target.Get()
		if !ok {
			continue
		}

		health, err := process.TryReadF32(r, addr)
		if err != nil || !bounds.Contains(health) {
			continue
		}

		e.log.Debugln("Health", health, "via", chain.Description)
		return target
	}
	return process.Unresolved()
}

// FindDeaths probes fixed offsets around the health address, falling back to an int range scan.
func (e *Engine) FindDeaths(r process.Reader, base process.ProcessMemoryAddress, health process.ResolvedAddress) process.ResolvedAddress {
	if h, ok := health.Get(); ok {
		for _, off := range e.cfg.DeathOffsets {
			addr := h.Offset(off)
			v, err := process.TryReadI32(r, addr)
			if err != nil {
				continue
			}
			if v >= 0 && v < e.cfg.DeathUpperBound {
				e.log.Debugln("Deaths", v, "at health offset", off)
				return process.At(addr)
			}
		}
	}

	return search.FindInt32InRange(r, search.ModuleWindow(base, e.cfg.DeathWindow), 0, e.cfg.DeathUpperBound)
}
