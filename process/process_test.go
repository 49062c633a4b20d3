package process

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sparseReader serves reads from a single contiguous region and counts calls.
type sparseReader struct {
	base  ProcessMemoryAddress
	data  []byte
	width int
	reads []ProcessMemoryAddress
}

func newSparseReader(base ProcessMemoryAddress, size int, width int) *sparseReader {
	return &sparseReader{base: base, data: make([]byte, size), width: width}
}

func (s *sparseReader) ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	s.reads = append(s.reads, addr)
	if addr < s.base || addr >= s.base+ProcessMemoryAddress(len(s.data)) {
		return nil, NewReadError(addr, size, ErrAddressNotMapped)
	}
	off := int(addr - s.base)
	end := off + int(size)
	if end > len(s.data) {
		end = len(s.data)
	}
	out := make([]byte, end-off)
	copy(out, s.data[off:end])
	return out, nil
}

func (s *sparseReader) PointerSize() int { return s.width }

func (s *sparseReader) putPtr(addr ProcessMemoryAddress, v uint64) {
	off := int(addr - s.base)
	if s.width == 4 {
		binary.LittleEndian.PutUint32(s.data[off:], uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(s.data[off:], v)
}

func TestReadBytesRejectsNullAndEmpty(t *testing.T) {
	r := newSparseReader(0x1000, 0x100, 4)

	_, err := ReadBytes(r, 0, 4)
	require.ErrorIs(t, err, ErrNullAddress)

	_, err = ReadBytes(r, 0x1000, 0)
	require.ErrorIs(t, err, ErrInvalidSize)

	assert.Empty(t, r.reads, "invalid requests must not reach the reader")
}

func TestReadBytesShortRead(t *testing.T) {
	r := newSparseReader(0x1000, 0x10, 4)

	data, err := ReadBytes(r, 0x100C, 16)
	require.NoError(t, err)
	assert.Len(t, data, 4)

	_, err = ReadExact(r, 0x100C, 16)
	require.Error(t, err)

	var rerr *ReadError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, ProcessMemoryAddress(0x100C), rerr.Addr)
}

func TestTypedReads(t *testing.T) {
	r := newSparseReader(0x1000, 0x40, 4)
	binary.LittleEndian.PutUint32(r.data[0:], math.Float32bits(87.5))
	binary.LittleEndian.PutUint32(r.data[4:], uint32(0xFFFFFFFE))
	copy(r.data[8:], []byte("Docks\x00garbage"))

	assert.Equal(t, float32(87.5), ReadF32(r, 0x1000))
	assert.Equal(t, int32(-2), ReadI32(r, 0x1004))
	assert.Equal(t, "Docks", ReadString(r, 0x1008, 32))

	// unmapped reads fall back to zero values
	assert.Equal(t, float32(0), ReadF32(r, 0x9000))
	assert.Equal(t, int32(0), ReadI32(r, 0x9000))
	assert.Equal(t, "", ReadString(r, 0x9000, 32))

	// a float straddling the end of the region is a failure
	_, err := TryReadF32(r, 0x103E)
	assert.Error(t, err)
}

func TestDecodeString(t *testing.T) {
	assert.Equal(t, "abc", DecodeString([]byte("abc\x00\x00")))
	assert.Equal(t, "a?c", DecodeString([]byte{'a', 0xC3, 'c'}))
	assert.Equal(t, "", DecodeString([]byte{0, 'x'}))
}

func TestDecodePointerWidths(t *testing.T) {
	p, err := DecodePointer([]byte{0x78, 0x56, 0x34, 0x92}, 4)
	require.NoError(t, err)
	assert.Equal(t, ProcessMemoryAddress(0x92345678), p)

	p, err = DecodePointer([]byte{1, 0, 0, 0, 0, 0, 0, 0x10}, 8)
	require.NoError(t, err)
	assert.Equal(t, ProcessMemoryAddress(0x1000000000000001), p)

	_, err = DecodePointer([]byte{1, 2}, 4)
	assert.ErrorIs(t, err, ErrInvalidPointer)

	_, err = DecodePointer(make([]byte, 8), 3)
	assert.ErrorIs(t, err, ErrInvalidPointer)
}

func TestResolvedAddress(t *testing.T) {
	assert.False(t, Unresolved().IsResolved())
	assert.False(t, At(0).IsResolved())

	addr, ok := At(0x400).Get()
	assert.True(t, ok)
	assert.Equal(t, ProcessMemoryAddress(0x400), addr)
	assert.Equal(t, "0x400", At(0x400).String())
}

func TestResolvePointerChain(t *testing.T) {
	r := newSparseReader(0x1000, 0x200, 4)
	// base -> 0x1100, +0x10 -> 0x1110 holds 0x1180, +0x8 -> 0x1188
	r.putPtr(0x1000, 0x1100)
	r.putPtr(0x1110, 0x1180)

	chain := NewPointerChain("test", 0x10, 0x8).WithBase(0x1000)
	got := ResolvePointerChain(r, chain)

	addr, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, ProcessMemoryAddress(0x1188), addr)
	assert.Equal(t, []ProcessMemoryAddress{0x1000, 0x1110}, r.reads)
}

func TestResolvePointerChainNegativeOffset(t *testing.T) {
	r := newSparseReader(0x1000, 0x200, 8)
	r.putPtr(0x1000, 0x1100)

	got := ResolvePointerChain(r, NewPointerChain("neg", -0x80).WithBase(0x1000))
	addr, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, ProcessMemoryAddress(0x1080), addr)
}

func TestResolvePointerChainStopsAtNull(t *testing.T) {
	r := newSparseReader(0x1000, 0x200, 4)
	r.putPtr(0x1000, 0x1100)
	// 0x1104 is left NULL

	chain := NewPointerChain("null at hop 1", 0x4, 0x20, 0x30).WithBase(0x1000)
	got := ResolvePointerChain(r, chain)

	assert.False(t, got.IsResolved())
	assert.Equal(t, []ProcessMemoryAddress{0x1000, 0x1104}, r.reads, "no reads after the NULL hop")
}

func TestResolvePointerChainStopsAtUnmapped(t *testing.T) {
	r := newSparseReader(0x1000, 0x200, 4)
	r.putPtr(0x1000, 0x5000)

	chain := NewPointerChain("unmapped", 0x0, 0x10).WithBase(0x1000)
	_, err := WalkPointerChain(r, chain)
	require.ErrorIs(t, err, ErrAddressNotMapped)
	assert.Len(t, r.reads, 2)
}

func TestResolvePointerChainZeroBase(t *testing.T) {
	r := newSparseReader(0x1000, 0x200, 4)

	got := ResolvePointerChain(r, NewPointerChain("no base", 0x10))
	assert.False(t, got.IsResolved())
	assert.Empty(t, r.reads)
}

func TestPointerChainWithBaseCopiesOffsets(t *testing.T) {
	offsets := []int64{0x928, 0x70}
	chain := NewPointerChain("copy", offsets...)
	offsets[0] = 0

	anchored := chain.WithBase(0x400000)
	assert.Equal(t, int64(0x928), anchored.Offsets[0])
	assert.Equal(t, ProcessMemoryAddress(0), chain.Base)
	assert.Equal(t, 2, anchored.Hops())
	assert.Equal(t, "0x400000 -> +928 -> +70", anchored.String())
}
