package process_blob

import (
	"testing"

	"fearrpc/process"
	"fearrpc/process/memory_map"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDumpReads(t *testing.T) {
	img := NewProcessDump(4)
	high := img.AddRegion(0x20000, 0x100)
	low := img.AddRegion(0x10000, 0x100)

	low.PutF32(0x10010, 42)
	high.PutString(0x200F0, "Intro")

	assert.Equal(t, float32(42), process.ReadF32(img, 0x10010))
	assert.Equal(t, "Intro", process.ReadString(img, 0x200F0, 16))

	// crossing the end of a region is a short read
	data, err := img.ReadMemory(0x200FC, 16)
	require.NoError(t, err)
	assert.Len(t, data, 4)

	_, err = img.ReadMemory(0x15000, 4)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)

	require.NoError(t, img.Close())
	_, err = img.ReadMemory(0x10010, 4)
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
}

func TestProcessDumpPointerWidth(t *testing.T) {
	img := NewProcessDump(8)
	r := img.AddRegion(0x1000, 0x40)
	r.PutPointer(0x1000, 0x1020, 8)

	ptr, err := process.ReadPointer(img, 0x1000)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(0x1020), ptr)
}

func TestProcessBlobPutOutOfBoundsPanics(t *testing.T) {
	b := NewProcessBlob(0x1000, make([]byte, 4))
	assert.Panics(t, func() { b.PutI32(0x1002, 1) })
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	src := NewProcessDump(4)
	src.Metadata = Metadata{PID: 1234, Name: "FEAR.exe", Version: "FEAR", ModuleBase: 0x400000, PointerSize: 4}
	r := src.AddRegion(0x400000, 0x1000)
	r.PutString(0x400100, ".World00p")

	regions := append(src.MemoryMap(), memory_map.MemoryMapItem{Address: 0x900000, Size: 0x1000, Perms: "---p"})

	stats, err := Save(dir, src, src.Metadata, regions)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Saved)
	assert.Equal(t, 1, stats.Unreadable)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, process.ProcessID(1234), loaded.GetPID())
	assert.Equal(t, "FEAR", loaded.Metadata.Version)

	base, err := loaded.ModuleBase()
	require.NoError(t, err)
	assert.Equal(t, process.ProcessMemoryAddress(0x400000), base)
	assert.Equal(t, ".World00p", process.ReadString(loaded, 0x400100, 32))
}

func TestLoadMissingDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
