// Package session persists the counters that must survive a restart of the monitor.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	DefaultFile             = "Session.dat"
	DefaultMaxAge           = 24 * time.Hour
	DefaultAutoSaveInterval = 2 * time.Second
)

// Snapshot is the durable session record. Field order is the file order.
type Snapshot struct {
	GameStart    time.Time
	SessionStart time.Time
	ProcessID    int32
	ProcessName  string
	LastLevel    string
	Deaths       int32
	ImageIndex   int32
	Multiplayer  bool
	Version      string
	ProcessStart time.Time
}

// Fresh returns a new snapshot with every timestamp set to now.
func Fresh(now time.Time) Snapshot {
	now = now.UTC()
	return Snapshot{GameStart: now, SessionStart: now, ProcessStart: now}
}

// Age is the time elapsed since the session started.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.SessionStart)
}

// expire resets the counters and timestamps of a stale snapshot.
func (s Snapshot) expire(now time.Time) Snapshot {
	fresh := Fresh(now)
	s.GameStart, s.SessionStart, s.ProcessStart = fresh.GameStart, fresh.SessionStart, fresh.ProcessStart
	s.Deaths = 0
	s.ImageIndex = 0
	return s
}

type Status int

const (
	StatusFresh Status = iota
	StatusRestored
	StatusStale
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusRestored:
		return "restored"
	case StatusStale:
		return "stale"
	case StatusCorrupt:
		return "corrupt"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Load reads the snapshot at path. It never fails: a missing, unreadable or
// corrupt file yields Fresh(now) and a stale one is expired. The error, if
// any, is returned for logging only.
func Load(path string, maxAge time.Duration, now time.Time) (Snapshot, Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Fresh(now), StatusFresh, nil
		}
		return Fresh(now), StatusCorrupt, fmt.Errorf("read session file: %w", err)
	}

	var s Snapshot
	if err := s.UnmarshalBinary(data); err != nil {
		return Fresh(now), StatusCorrupt, fmt.Errorf("decode session file: %w", err)
	}

	if maxAge > 0 && s.Age(now) > maxAge {
		return s.expire(now), StatusStale, nil
	}
	return s, StatusRestored, nil
}

// WriteFile replaces path atomically with the encoded snapshot.
func WriteFile(path string, s Snapshot) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}

	parent := filepath.Dir(path)
	tempFile, err := os.CreateTemp(parent, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS != "windows" {
			return fmt.Errorf("rename temp session file: %w", err)
		}
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("remove session file before rename: %w", removeErr)
		}
		if renameErr := os.Rename(tempPath, path); renameErr != nil {
			return fmt.Errorf("rename temp session file after remove: %w", renameErr)
		}
	}
	cleanup = false
	return nil
}

// Store owns the session file and rate-limits writes to it.
type Store struct {
	path     string
	maxAge   time.Duration
	interval time.Duration
	lastSave time.Time
	log      *logger.Logger
}

func NewStore(path string, maxAge, interval time.Duration) *Store {
	if path == "" {
		path = DefaultFile
	}
	return &Store{
		path:     path,
		maxAge:   maxAge,
		interval: interval,
		log:      logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "session")),
	}
}

func (st *Store) Path() string { return st.path }

// Load restores the snapshot, logging what happened.
func (st *Store) Load(now time.Time) (Snapshot, Status) {
	s, status, err := Load(st.path, st.maxAge, now)
	switch status {
	case StatusCorrupt:
		st.log.Warn("Session file ", st.path, " unusable, starting fresh: ", err)
	case StatusStale:
		st.log.Infoln("Session is older than", st.maxAge, "starting a new one")
	case StatusRestored:
		st.log.Infoln("Session restored, age", s.Age(now).Round(time.Minute), "version", s.Version, "deaths", s.Deaths)
	}
	return s, status
}

// Save writes the snapshot unconditionally.
func (st *Store) Save(s Snapshot, now time.Time) error {
	if err := WriteFile(st.path, s); err != nil {
		return err
	}
	st.lastSave = now
	st.log.Debugln("Session saved")
	return nil
}

// MaybeSave writes the snapshot unless the last save is more recent than the interval.
func (st *Store) MaybeSave(s Snapshot, now time.Time) (bool, error) {
	if !st.lastSave.IsZero() && now.Sub(st.lastSave) < st.interval {
		return false, nil
	}
	if err := st.Save(s, now); err != nil {
		return false, err
	}
	return true, nil
}
