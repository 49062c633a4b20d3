package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// The session file uses the .NET BinaryWriter layout so files written by
// older monitors stay readable: little-endian fixed-width integers,
// 7-bit length prefixed UTF-8 strings, one byte per bool, and DateTime
// values as 64-bit tick counts with the kind in the top two bits.

const (
	// ticks between 0001-01-01 and the Unix epoch
	unixEpochTicks = 621355968000000000
	ticksPerSecond = 10000000
	kindUTC        = uint64(1) << 62
	ticksMask      = uint64(1)<<62 - 1

	maxStringLength = 1 << 16
)

var ErrCorrupt = errors.New("corrupt session data")

// toTicks encodes t as a UTC DateTime. The zero time maps to DateTime.MinValue.
func toTicks(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	t = t.UTC()
	ticks := unixEpochTicks + t.Unix()*ticksPerSecond + int64(t.Nanosecond()/100)
	return uint64(ticks) | kindUTC
}

func fromTicks(v uint64) time.Time {
	ticks := int64(v & ticksMask)
	if ticks == 0 {
		return time.Time{}
	}
	ticks -= unixEpochTicks
	sec, rem := ticks/ticksPerSecond, ticks%ticksPerSecond
	if rem < 0 {
		sec--
		rem += ticksPerSecond
	}
	return time.Unix(sec, rem*100).UTC()
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

func (e *encoder) i32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	e.buf.Write(b[:])
}

func (e *encoder) str(s string) {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], uint64(len(s)))
	e.buf.Write(b[:n])
	e.buf.WriteString(s)
}

func (e *encoder) boolean(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

type decoder struct {
	data []byte
	off  int
	err  error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrCorrupt, n, d.off, len(d.data)-d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) u64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (d *decoder) i32() int32 {
	if b := d.take(4); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (d *decoder) str() string {
	if d.err != nil {
		return ""
	}
	n, size := binary.Uvarint(d.data[d.off:])
	if size <= 0 || n > maxStringLength {
		d.err = fmt.Errorf("%w: bad string length at offset %d", ErrCorrupt, d.off)
		return ""
	}
	d.off += size
	b := d.take(int(n))
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.err = fmt.Errorf("%w: invalid utf-8 string at offset %d", ErrCorrupt, d.off-len(b))
		return ""
	}
	return string(b)
}

func (d *decoder) boolean() bool {
	if b := d.take(1); b != nil {
		return b[0] != 0
	}
	return false
}

// MarshalBinary encodes the snapshot in field order.
func (s Snapshot) MarshalBinary() ([]byte, error) {
	var e encoder
	e.u64(toTicks(s.GameStart))
	e.u64(toTicks(s.SessionStart))
	e.i32(s.ProcessID)
	e.str(s.ProcessName)
	e.str(s.LastLevel)
	e.i32(s.Deaths)
	e.i32(s.ImageIndex)
	e.boolean(s.Multiplayer)
	e.str(s.Version)
	e.u64(toTicks(s.ProcessStart))
	return e.buf.Bytes(), nil
}

// UnmarshalBinary decodes a complete record. Truncated input and trailing
// bytes are both rejected with ErrCorrupt.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	d := decoder{data: data}
	out := Snapshot{
		GameStart:    fromTicks(d.u64()),
		SessionStart: fromTicks(d.u64()),
		ProcessID:    d.i32(),
		ProcessName:  d.str(),
		LastLevel:    d.str(),
		Deaths:       d.i32(),
		ImageIndex:   d.i32(),
		Multiplayer:  d.boolean(),
		Version:      d.str(),
		ProcessStart: fromTicks(d.u64()),
	}
	if d.err != nil {
		return d.err
	}
	if d.off != len(data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-d.off)
	}
	*s = out
	return nil
}
