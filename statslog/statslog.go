// Package statslog appends game events to a plain text journal.
//
// Lines look like
//
//	2025-03-14 18:30:15 | Level: Docks.World00p -> Incident at the Port
package statslog

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fearrpc/gamestate"
	"fearrpc/leveldb"
)

const DefaultFile = "GameStats.log"

type Journal struct {
	zl   *zap.Logger
	file *os.File
	db   *leveldb.Database
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " | ",
	}
}

// Open appends to path, creating it and its directory if needed.
func Open(path string, db *leveldb.Database) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create stats dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open stats file: %w", err)
	}
	j := newJournal(zapcore.AddSync(f), db, nil)
	j.file = f
	return j, nil
}

func newJournal(ws zapcore.WriteSyncer, db *leveldb.Database, clock zapcore.Clock) *Journal {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), ws, zapcore.InfoLevel)
	opts := []zap.Option{}
	if clock != nil {
		opts = append(opts, zap.WithClock(clock))
	}
	if db == nil {
		db = leveldb.Default()
	}
	return &Journal{zl: zap.New(core, opts...), db: db}
}

func (j *Journal) Line(msg string) {
	j.zl.Info(msg)
}

// HandleEvent journals level changes and deaths.
func (j *Journal) HandleEvent(ev gamestate.Event) {
	switch ev.Kind {
	case gamestate.LevelChanged:
		if gamestate.IsMenuLevel(ev.NewLevel) {
			return
		}
		j.Line(fmt.Sprintf("Level: %s -> %s", ev.NewLevel, j.db.Lookup(ev.NewLevel).Location))
	case gamestate.Death:
		j.Line(fmt.Sprintf("Death #%d", ev.Deaths))
	}
}

func (j *Journal) Close() error {
	_ = j.zl.Sync()
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}

var _ gamestate.Sink = (*Journal)(nil)
