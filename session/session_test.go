package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 18, 30, 15, 123456700, time.UTC)

func sample() Snapshot {
	return Snapshot{
		GameStart:    now.Add(-2 * time.Hour),
		SessionStart: now.Add(-time.Hour),
		ProcessID:    4242,
		ProcessName:  "FEAR.exe",
		LastLevel:    "Docks.World00p",
		Deaths:       17,
		ImageIndex:   1,
		Multiplayer:  false,
		Version:      "FEAR",
		ProcessStart: now.Add(-2 * time.Hour),
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	want := sample()
	want.LastLevel = "Café_Ø.World00p"

	require.NoError(t, WriteFile(path, want))

	got, status, err := Load(path, DefaultMaxAge, now)
	require.NoError(t, err)
	assert.Equal(t, StatusRestored, status)
	assert.Equal(t, want, got)
}

func TestStaleSessionResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	old := sample()
	old.SessionStart = now.Add(-48 * time.Hour)
	require.NoError(t, WriteFile(path, old))

	got, status, err := Load(path, 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, StatusStale, status)
	assert.Equal(t, int32(0), got.Deaths)
	assert.Equal(t, int32(0), got.ImageIndex)
	assert.Equal(t, now, got.SessionStart)
	assert.Equal(t, now, got.GameStart)
	assert.Equal(t, now, got.ProcessStart)
	assert.Equal(t, "FEAR", got.Version)
	assert.Equal(t, "Docks.World00p", got.LastLevel)
}

func TestMissingEmptyAndTruncatedFilesAreFresh(t *testing.T) {
	dir := t.TempDir()

	got, status, err := Load(filepath.Join(dir, "missing.dat"), DefaultMaxAge, now)
	require.NoError(t, err)
	assert.Equal(t, StatusFresh, status)
	assert.Equal(t, Fresh(now), got)

	empty := filepath.Join(dir, "empty.dat")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	got, status, err = Load(empty, DefaultMaxAge, now)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, StatusCorrupt, status)
	assert.Equal(t, Fresh(now), got)

	full, err := sample().MarshalBinary()
	require.NoError(t, err)
	for _, n := range []int{1, 8, 20, len(full) - 1} {
		truncated := filepath.Join(dir, "truncated.dat")
		require.NoError(t, os.WriteFile(truncated, full[:n], 0644))
		got, status, err = Load(truncated, DefaultMaxAge, now)
		assert.ErrorIs(t, err, ErrCorrupt, "length %d", n)
		assert.Equal(t, StatusCorrupt, status)
		assert.Equal(t, Fresh(now), got)
	}
}

func TestTrailingBytesRejected(t *testing.T) {
	data, err := sample().MarshalBinary()
	require.NoError(t, err)

	var s Snapshot
	assert.ErrorIs(t, s.UnmarshalBinary(append(data, 0)), ErrCorrupt)
}

func TestWireLayout(t *testing.T) {
	s := Snapshot{ProcessID: 7, ProcessName: "ab", Multiplayer: true}
	data, err := s.MarshalBinary()
	require.NoError(t, err)

	// zero times are DateTime.MinValue
	assert.Equal(t, make([]byte, 16), data[:16])
	assert.Equal(t, []byte{7, 0, 0, 0}, data[16:20])
	assert.Equal(t, []byte{2, 'a', 'b'}, data[20:23])
	assert.Equal(t, byte(0), data[23], "empty LastLevel")
	assert.Equal(t, byte(1), data[32], "multiplayer flag")
}

func TestTicksMatchDotNet(t *testing.T) {
	// DateTime(2000, 1, 1, 0, 0, 0, DateTimeKind.Utc).ToBinary()
	ts := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, uint64(630822816000000000)|kindUTC, toTicks(ts))
	assert.Equal(t, ts, fromTicks(toTicks(ts)))

	// a local-kind value still decodes to the same instant
	assert.Equal(t, ts, fromTicks(uint64(630822816000000000)|uint64(1)<<63))
}

func TestLongStringLength(t *testing.T) {
	s := Snapshot{LastLevel: string(make([]byte, 300))}
	data, err := s.MarshalBinary()
	require.NoError(t, err)

	var got Snapshot
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Len(t, got.LastLevel, 300)
	// 300 needs two 7-bit groups
	assert.Equal(t, []byte{0xAC, 0x02}, data[21:23])
}

func TestStoreMaybeSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	st := NewStore(path, DefaultMaxAge, DefaultAutoSaveInterval)

	saved, err := st.MaybeSave(sample(), now)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = st.MaybeSave(sample(), now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, saved, "rate limited")

	saved, err = st.MaybeSave(sample(), now.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, saved)

	got, status := st.Load(now)
	assert.Equal(t, StatusRestored, status)
	assert.Equal(t, sample(), got)
}
