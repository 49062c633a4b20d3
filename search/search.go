// Package search scans a single window of remote memory for byte patterns
// and range-bounded typed values.
package search

import (
	"bytes"
	"encoding/binary"
	"math"

	"fearrpc/process"
)

// Window is a contiguous range of remote memory read with one call.
type Window struct {
	Start process.ProcessMemoryAddress
	Size  process.ProcessMemorySize
}

// ModuleWindow returns a window of size bytes starting at base.
func ModuleWindow(base process.ProcessMemoryAddress, size process.ProcessMemorySize) Window {
	return Window{Start: base, Size: size}
}

// Searcher holds configuration for a scan
type Searcher struct {
	StringMode bool
	Validate   func(process.ProcessMemoryAddress) bool
}

// Option is a function that configures a Searcher
type Option func(*Searcher)

// WithStringMode reports the start of the NUL-terminated string containing
// a byte match instead of the match itself.
func WithStringMode() Option {
	return func(s *Searcher) {
		s.StringMode = true
	}
}

// WithValidator rejects candidate addresses; scanning continues past rejected hits.
func WithValidator(fn func(process.ProcessMemoryAddress) bool) Option {
	return func(s *Searcher) {
		s.Validate = fn
	}
}

func newSearcher(options []Option) *Searcher {
	s := &Searcher{}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Searcher) accept(addr process.ProcessMemoryAddress) bool {
	return s.Validate == nil || s.Validate(addr)
}

func readWindow(r process.Reader, w Window) ([]byte, bool) {
	data, err := process.ReadBytes(r, w.Start, w.Size)
	if err != nil {
		return nil, false
	}
	return data, true
}

// FindBytes returns the first address in the window matching aob.
func FindBytes(r process.Reader, w Window, aob process.AOB, options ...Option) process.ResolvedAddress {
	if !aob.IsValid() {
		return process.Unresolved()
	}
	data, ok := readWindow(r, w)
	if !ok {
		return process.Unresolved()
	}

	s := newSearcher(options)
	for from := 0; ; {
		i := IndexAOB(data, aob, from)
		if i < 0 {
			return process.Unresolved()
		}
		at := i
		if s.StringMode {
			at = StringStart(data, i)
		}
		addr := w.Start + process.ProcessMemoryAddress(at)
		if s.accept(addr) {
			return process.At(addr)
		}
		from = i + 1
	}
}

// FindString is FindBytes for an exact ASCII needle.
func FindString(r process.Reader, w Window, needle string, options ...Option) process.ResolvedAddress {
	return FindBytes(r, w, process.ExactAOB([]byte(needle)), options...)
}

// FindFloat32InRange returns the first 4-byte aligned float in [min, max].
func FindFloat32InRange(r process.Reader, w Window, min, max float32, options ...Option) process.ResolvedAddress {
	data, ok := readWindow(r, w)
	if !ok {
		return process.Unresolved()
	}

	s := newSearcher(options)
	for from := 0; ; {
		i := IndexFloat32InRange(data, min, max, from)
		if i < 0 {
			return process.Unresolved()
		}
		addr := w.Start + process.ProcessMemoryAddress(i)
		if s.accept(addr) {
			return process.At(addr)
		}
		from = i + 4
	}
}

// FindInt32InRange returns the first 4-byte aligned int32 in [lower, upper).
func FindInt32InRange(r process.Reader, w Window, lower, upper int32, options ...Option) process.ResolvedAddress {
	data, ok := readWindow(r, w)
	if !ok {
		return process.Unresolved()
	}

	s := newSearcher(options)
	for from := 0; ; {
		i := IndexInt32InRange(data, lower, upper, from)
		if i < 0 {
			return process.Unresolved()
		}
		addr := w.Start + process.ProcessMemoryAddress(i)
		if s.accept(addr) {
			return process.At(addr)
		}
		from = i + 4
	}
}

// IndexAOB returns the offset of the first match at or after from, or -1.
// A mask byte of 0 is a wildcard; other mask bytes select the compared bits.
func IndexAOB(data []byte, aob process.AOB, from int) int {
	pattern, mask := aob.Pattern, aob.Mask
	if from < 0 {
		from = 0
	}
	if len(pattern) == 0 || from > len(data)-len(pattern) {
		return -1
	}

	if len(mask) == 0 {
		i := bytes.Index(data[from:], pattern)
		if i < 0 {
			return -1
		}
		return from + i
	}

	for i := from; i <= len(data)-len(pattern); i++ {
		matched := true
		for j := 0; j < len(pattern); j++ {
			if mask[j] == 0 {
				continue
			}
			if data[i+j]&mask[j] != pattern[j]&mask[j] {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}

// StringStart walks back from idx to just after the preceding NUL, or to 0.
func StringStart(data []byte, idx int) int {
	for idx > 0 && data[idx-1] != 0 {
		idx--
	}
	return idx
}

func alignUp(from int) int {
	if from < 0 {
		return 0
	}
	return (from + 3) &^ 3
}

// IndexFloat32InRange returns the first 4-byte aligned offset at or after from
// whose little-endian float lies in [min, max]. NaN and Inf never match.
func IndexFloat32InRange(data []byte, min, max float32, from int) int {
	for i := alignUp(from); i+4 <= len(data); i += 4 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(data[i:]))
		if v >= min && v <= max && !math.IsInf(float64(v), 0) {
			return i
		}
	}
	return -1
}

// IndexInt32InRange returns the first 4-byte aligned offset at or after from
// whose little-endian int32 lies in [lower, upper).
func IndexInt32InRange(data []byte, lower, upper int32, from int) int {
	for i := alignUp(from); i+4 <= len(data); i += 4 {
		v := int32(binary.LittleEndian.Uint32(data[i:]))
		if v >= lower && v < upper {
			return i
		}
	}
	return -1
}
