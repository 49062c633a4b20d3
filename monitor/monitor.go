// Package monitor owns one engine context and drives it tick by tick:
// process lifecycle, address discovery, state reads, event fan-out,
// presence and session persistence.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"

	"fearrpc/discovery"
	"fearrpc/gamestate"
	"fearrpc/leveldb"
	"fearrpc/presence"
	"fearrpc/process"
	"fearrpc/session"
	"fearrpc/tracker"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPanicPause   = 8 * time.Second
)

type Options struct {
	Candidates []tracker.Candidate
	Finder     process.ProcessFinder
	Opener     process.ProcessOpener
	Ladder     *tracker.StartTimeLadder

	Discovery discovery.Config
	Bounds    discovery.BoundsTable
	Levels    *leveldb.Database

	Session   *session.Store
	Rotator   *presence.Rotator
	Publisher presence.Publisher
	Sinks     []gamestate.Sink

	PollInterval time.Duration
	PanicPause   time.Duration
	Verbose      bool
	Now          func() time.Time
}

type Monitor struct {
	tracker *tracker.Tracker
	engine  *discovery.Engine
	addrs   discovery.Addresses
	game    *gamestate.Tracker

	bounds    discovery.BoundsTable
	levels    *leveldb.Database
	store     *session.Store
	snap      session.Snapshot
	rotator   *presence.Rotator
	publisher presence.Publisher
	sinks     []gamestate.Sink

	pollInterval time.Duration
	panicPause   time.Duration
	verbose      bool
	now          func() time.Time
	log          *logger.Logger
}

func New(opts Options) *Monitor {
	m := &Monitor{
		tracker:      tracker.New(opts.Candidates, opts.Finder, opts.Opener, opts.Ladder),
		engine:       discovery.New(opts.Discovery),
		game:         gamestate.NewTracker(),
		bounds:       opts.Bounds,
		levels:       opts.Levels,
		store:        opts.Session,
		rotator:      opts.Rotator,
		publisher:    opts.Publisher,
		sinks:        opts.Sinks,
		pollInterval: opts.PollInterval,
		panicPause:   opts.PanicPause,
		verbose:      opts.Verbose,
		now:          opts.Now,
		log:          logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "monitor")),
	}
	if m.bounds == nil {
		m.bounds = discovery.DefaultBoundsTable()
	}
	if m.levels == nil {
		m.levels = leveldb.Default()
	}
	if m.rotator == nil {
		m.rotator = presence.NewRotator(presence.DefaultImages(), presence.DefaultImageInterval)
	}
	if m.publisher == nil {
		m.publisher = presence.NewLogPublisher()
	}
	if m.pollInterval <= 0 {
		m.pollInterval = DefaultPollInterval
	}
	if m.panicPause <= 0 {
		m.panicPause = DefaultPanicPause
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.snap = session.Fresh(m.now())
	return m
}

// Restore loads the saved session and carries its counters over.
func (m *Monitor) Restore() session.Status {
	if m.store == nil {
		return session.StatusFresh
	}
	snap, status := m.store.Load(m.now())
	m.snap = snap
	m.game.RestoreDeaths(snap.Deaths)
	m.rotator.SetIndex(int(snap.ImageIndex))
	m.game.SetMode(snap.Version, snap.Multiplayer)
	return status
}

func (m *Monitor) State() gamestate.State        { return m.game.State() }
func (m *Monitor) Addresses() discovery.Addresses { return m.addrs }
func (m *Monitor) Snapshot() session.Snapshot     { return m.snap }
func (m *Monitor) TrackerState() tracker.State    { return m.tracker.State() }

// Tick runs one full step: attach check, discovery if needed, state read,
// event dispatch, presence and session bookkeeping.
func (m *Monitor) Tick(ctx context.Context) error {
	now := m.now()
	m.autosave(now)

	if tr, changed := m.tracker.Poll(); changed {
		m.onTransition(ctx, tr)
	}

	proc := m.tracker.Process()
	if proc == nil {
		return nil
	}

	version := m.tracker.Version()
	bounds := m.bounds.Lookup(version)

	if !m.addrs.Complete() {
		m.engine.Discover(proc, m.tracker.Attachment().ModuleBase, bounds, &m.addrs)
	}

	events := m.game.Tick(proc, &m.addrs, bounds)
	gamestate.Dispatch(events, m.sinks...)
	for _, ev := range events {
		m.logEvent(ev)
	}

	st := m.game.State()
	if m.verbose {
		m.logStatus(st, bounds)
	}
	return m.publish(ctx, st, bounds, now)
}

func (m *Monitor) onTransition(ctx context.Context, tr tracker.Transition) {
	m.addrs.Reset()
	m.game.ProcessGone()

	if tr.Exited() {
		m.game.SetMode("", false)
		m.snap.Version = ""
		m.snap.Multiplayer = false
		m.rotator.Reset()
		if err := m.publisher.Clear(ctx); err != nil {
			m.log.Warn("Unable to clear presence: ", err)
		}
		m.log.Infoln("Game closed, waiting for restart")
		return
	}

	att := m.tracker.Attachment()
	m.game.SetMode(att.Version, m.tracker.IsMultiplayer())
	m.snap.Version = att.Version
	m.snap.Multiplayer = m.tracker.IsMultiplayer()
	m.snap.ProcessStart = att.StartTime
}

func (m *Monitor) logEvent(ev gamestate.Event) {
	switch ev.Kind {
	case gamestate.LevelChanged:
		info := m.levels.Lookup(ev.NewLevel)
		m.log.Infoln("Level:", info.EpisodeName, "-", info.Location)
	case gamestate.Death:
		m.log.Infoln("Death", fmt.Sprintf("#%d", ev.Deaths))
	case gamestate.HealthChanged:
		if ev.NewHealth < ev.OldHealth {
			m.log.Debugln("Damage taken:", fmt.Sprintf("%.1f", ev.OldHealth-ev.NewHealth))
		} else {
			m.log.Debugln("Health restored:", fmt.Sprintf("%.1f", ev.NewHealth-ev.OldHealth))
		}
	}
}

func (m *Monitor) logStatus(st gamestate.State, bounds discovery.Bounds) {
	att := m.tracker.Attachment()
	mode := "single player"
	if st.Multiplayer {
		mode = "multiplayer"
	}
	line := fmt.Sprintf("%s | %s | level %s | %s", presence.GameTitle(st.Version), mode, st.Level, att.Info.Name)
	if !st.Multiplayer && st.HealthKnown && st.Health > 0 {
		line += fmt.Sprintf(" | health %.1f/%.0f", st.Health, bounds.Max)
	}
	if !att.StartTime.IsZero() {
		line += " | played " + m.now().Sub(att.StartTime).Round(time.Second).String()
	}
	if st.Deaths > 0 {
		line += fmt.Sprintf(" | deaths %d", st.Deaths)
	}
	m.log.Infoln(line)
}

func (m *Monitor) publish(ctx context.Context, st gamestate.State, bounds discovery.Bounds, now time.Time) error {
	in := presence.Input{
		Version:          st.Version,
		Multiplayer:      st.Multiplayer,
		InMenu:           st.InMenu,
		Level:            st.Level,
		Health:           st.Health,
		HealthKnown:      st.HealthKnown,
		Bounds:           bounds,
		Deaths:           st.Deaths,
		Start:            presence.StartTime(m.snap.ProcessStart, m.snap.GameStart, now),
		LargeImage:       m.rotator.Next(st.Version, now),
		MultiplayerImage: m.rotator.Images().Multiplayer,
	}
	if !st.InMenu {
		info := m.levels.Lookup(st.Level)
		in.Info = &info
	}
	if err := m.publisher.Publish(ctx, presence.Build(in)); err != nil {
		return fmt.Errorf("publish presence: %w", err)
	}
	return nil
}

// updateSnapshot copies the live state into the session record.
func (m *Monitor) updateSnapshot(now time.Time) {
	st := m.game.State()
	att := m.tracker.Attachment()

	m.snap.ProcessID = int32(att.Info.PID)
	m.snap.ProcessName = att.Info.Name
	m.snap.LastLevel = m.game.LastLevel()
	m.snap.Deaths = st.Deaths
	m.snap.ImageIndex = int32(m.rotator.Index())
	m.snap.Multiplayer = st.Multiplayer
	m.snap.Version = st.Version
	if m.snap.SessionStart.IsZero() {
		m.snap.SessionStart = now.UTC()
	}

	if att.Info.PID != 0 {
		if !att.StartTime.IsZero() {
			m.snap.GameStart = att.StartTime.UTC()
			m.snap.ProcessStart = att.StartTime.UTC()
		} else if m.snap.GameStart.IsZero() {
			m.snap.GameStart = now.UTC()
		}
	}
}

func (m *Monitor) autosave(now time.Time) {
	if m.store == nil {
		return
	}
	m.updateSnapshot(now)
	if _, err := m.store.MaybeSave(m.snap, now); err != nil {
		m.log.Warn("Unable to save session: ", err)
	}
}

// Run ticks until ctx is cancelled. A panicking tick is logged and followed
// by a longer pause.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Infoln("Monitoring every", m.pollInterval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		wait := m.pollInterval
		if err := m.safeTick(ctx); err != nil {
			var pe *PanicError
			if errors.As(err, &pe) {
				wait = m.panicPause
			}
			m.log.Warn("Tick failed: ", err)
		}
		timer.Reset(wait)
	}
}

// PanicError wraps a value recovered from a tick.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (m *Monitor) safeTick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return m.Tick(ctx)
}

// Close saves the session, clears presence and releases the process handle.
func (m *Monitor) Close(ctx context.Context) error {
	m.log.Infoln("Shutting down")
	if m.store != nil {
		now := m.now()
		m.updateSnapshot(now)
		if err := m.store.Save(m.snap, now); err != nil {
			m.log.Warn("Unable to save session: ", err)
		}
	}
	if err := m.publisher.Clear(ctx); err != nil {
		m.log.Warn("Unable to clear presence: ", err)
	}
	return m.tracker.Close()
}
