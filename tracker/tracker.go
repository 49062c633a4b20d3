// Package tracker follows the lifecycle of the game process among a set of
// candidate executables.
package tracker

import (
	"errors"
	"fmt"
	"strings"

	"fearrpc/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Candidate maps a game version tag to its executable name.
type Candidate struct {
	Version    string `mapstructure:"version" toml:"version"`
	Executable string `mapstructure:"executable" toml:"executable"`
}

// DefaultCandidates are the stock executables, in probe order.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Version: "FEAR", Executable: "FEAR.exe"},
		{Version: "FEARMP", Executable: "FEARMP.exe"},
		{Version: "FEAR2", Executable: "FEAR2.exe"},
		{Version: "FEAR2MP", Executable: "FEAR2MP.exe"},
		{Version: "FEAR3", Executable: "F3AR.exe"},
		{Version: "Fear3", Executable: "Fear3.exe"},
	}
}

// IsMultiplayerVersion reports whether a version tag denotes a multiplayer build.
func IsMultiplayerVersion(version string) bool {
	return strings.Contains(strings.ToUpper(version), "MP")
}

type State int

const (
	Detached State = iota
	Attaching
	Attached
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Attaching:
		return "attaching"
	case Attached:
		return "attached"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transition is reported when the tracked process changes. A zero PID on
// either side means no process.
type Transition struct {
	From process.ProcessInfo
	To   process.ProcessInfo
}

func (t Transition) Exited() bool {
	return t.To.PID == 0
}

// Tracker owns the process handle. It is not safe for concurrent use.
type Tracker struct {
	candidates []Candidate
	finder     process.ProcessFinder
	opener     process.ProcessOpener
	ladder     *StartTimeLadder
	log        *logger.Logger

	state       State
	attachment  process.Attachment
	proc        process.Process
	multiplayer bool
}

func New(candidates []Candidate, finder process.ProcessFinder, opener process.ProcessOpener, ladder *StartTimeLadder) *Tracker {
	if ladder == nil {
		ladder = NewStartTimeLadder(CreateTimeSource{})
	}
	return &Tracker{
		candidates: append([]Candidate(nil), candidates...),
		finder:     finder,
		opener:     opener,
		ladder:     ladder,
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "tracker")),
	}
}

func (t *Tracker) State() State { return t.state }

// Process returns the open handle, nil unless Attached.
func (t *Tracker) Process() process.Process {
	if t.state != Attached {
		return nil
	}
	return t.proc
}

func (t *Tracker) Attachment() process.Attachment { return t.attachment }
func (t *Tracker) Version() string                { return t.attachment.Version }
func (t *Tracker) IsMultiplayer() bool            { return t.multiplayer }

// find returns the lowest-PID process of the first candidate that has one.
// The error is non-nil only when every lookup failed.
func (t *Tracker) find() (process.ProcessInfo, string, bool, error) {
	var errs []error
	for _, c := range t.candidates {
		found, err := t.finder.FindProcessByName(c.Executable)
		if err != nil {
			t.log.Debugln("Process lookup failed for", c.Executable, ":", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Executable, err))
			continue
		}
		if len(found) == 0 {
			continue
		}
		info := found[0]
		for _, f := range found[1:] {
			if f.PID < info.PID {
				info = f
			}
		}
		if info.Name == "" {
			info.Name = c.Executable
		}
		return info, c.Version, true, nil
	}
	if len(errs) > 0 && len(errs) == len(t.candidates) {
		return process.ProcessInfo{}, "", false, errors.Join(errs...)
	}
	return process.ProcessInfo{}, "", false, nil
}

// Poll runs one lifecycle step. It returns the transition, if any, so the
// caller can discard everything derived from the previous process.
func (t *Tracker) Poll() (Transition, bool) {
	info, version, found, err := t.find()
	if err != nil {
		// enumeration itself failed; keep whatever is attached
		t.log.Warn("Process enumeration failed: ", err)
		return Transition{}, false
	}

	var (
		tr      Transition
		changed bool
	)
	switch {
	case info.PID != t.attachment.Info.PID:
		tr = Transition{From: t.attachment.Info, To: info}
		changed = true
		t.transition(info, version, found)
	case t.state == Attached && !t.alive():
		t.log.Infoln("Lost handle on", t.attachment.Info.Name, "pid", t.attachment.Info.PID, ", reopening")
		tr = Transition{From: t.attachment.Info, To: t.attachment.Info}
		changed = true
		t.reopen()
	}

	if t.state == Attaching {
		t.attach()
	}

	return tr, changed
}

func (t *Tracker) transition(info process.ProcessInfo, version string, found bool) {
	if t.attachment.Info.PID != 0 {
		t.log.Infoln("Process", t.attachment.Info.Name, "pid", t.attachment.Info.PID, "is gone")
	}
	t.release()

	if !found {
		return
	}

	t.attachment = process.Attachment{
		Info:      info,
		Version:   version,
		StartTime: t.ladder.ProcessStartTime(info.PID),
	}
	t.multiplayer = IsMultiplayerVersion(version)
	t.state = Attaching

	t.log.Infoln("Found", version, "process", info.Name, "pid", info.PID, "started", t.attachment.StartTime.Format("2006-01-02 15:04:05"))
}

func (t *Tracker) attach() {
	proc, err := t.opener.OpenProcess(t.attachment.Info)
	if err != nil {
		t.log.Warn("Unable to open process ", t.attachment.Info.PID, ": ", err)
		return
	}

	base, err := proc.ModuleBase()
	if err != nil {
		t.log.Warn("Unable to resolve module base for ", t.attachment.Info.Name, ": ", err)
		_ = proc.Close()
		return
	}

	t.proc = proc
	t.attachment.ModuleBase = base
	t.state = Attached
	t.log.Infoln("Attached to", t.attachment.Info.Name, "module base", base.ToString())
}

// alive reports whether the open handle still serves reads. Only a closed
// handle counts as dead; an unmapped module page does not.
func (t *Tracker) alive() bool {
	_, err := t.proc.ReadMemory(t.attachment.ModuleBase, 1)
	return !errors.Is(err, process.ErrProcessNotOpen)
}

// reopen drops the handle but keeps the attachment, so the next attach
// reuses pid, version and start time.
func (t *Tracker) reopen() {
	if err := t.proc.Close(); err != nil {
		t.log.Debugln("Close failed:", err)
	}
	t.proc = nil
	t.attachment.ModuleBase = 0
	t.state = Attaching
}

func (t *Tracker) release() {
	if t.proc != nil {
		if err := t.proc.Close(); err != nil {
			t.log.Debugln("Close failed:", err)
		}
		t.proc = nil
	}
	t.attachment = process.Attachment{}
	t.multiplayer = false
	t.state = Detached
}

// Close releases the handle.
func (t *Tracker) Close() error {
	t.release()
	return nil
}
