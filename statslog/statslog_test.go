package statslog

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"fearrpc/gamestate"
	"fearrpc/leveldb"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

func (c fixedClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

func TestJournalLines(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 3, 14, 18, 30, 15, 0, time.Local)
	j := newJournal(zapcore.AddSync(&buf), leveldb.Default(), fixedClock(at))

	gamestate.Dispatch([]gamestate.Event{
		{Kind: gamestate.LevelChanged, OldLevel: gamestate.MenuLabel, NewLevel: "Docks.World00p"},
		{Kind: gamestate.HealthChanged, OldHealth: 100, NewHealth: 40},
		{Kind: gamestate.Death, Deaths: 3},
		{Kind: gamestate.LevelChanged, OldLevel: "Docks.World00p", NewLevel: gamestate.MenuLabel},
	}, j)

	assert.Equal(t,
		"2025-03-14 18:30:15 | Level: Docks.World00p -> Incident at the Port\n"+
			"2025-03-14 18:30:15 | Death #3\n",
		buf.String())
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", DefaultFile)

	j, err := Open(path, nil)
	require.NoError(t, err)
	j.Line("first")
	require.NoError(t, j.Close())

	j, err = Open(path, nil)
	require.NoError(t, err)
	j.Line("second")
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)
	assert.True(t, bytes.HasSuffix(lines[0], []byte(" | first")))
	assert.True(t, bytes.HasSuffix(lines[1], []byte(" | second")))
}
