package process

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ReadBytes validates the request and forwards it to the reader.
func ReadBytes(r Reader, addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	if err := CheckRead(addr, size); err != nil {
		return nil, err
	}
	data, err := r.ReadMemory(addr, size)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, NewReadError(addr, size, ErrZeroTransfer)
	}
	return data, nil
}

// ReadExact is ReadBytes that treats a short read as a failure.
func ReadExact(r Reader, addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	data, err := ReadBytes(r, addr, size)
	if err != nil {
		return nil, err
	}
	if len(data) < int(size) {
		return nil, NewReadError(addr, size, fmt.Errorf("partial read: %d of %d bytes", len(data), size))
	}
	return data, nil
}

// DecodeString interprets raw bytes as an ASCII string: it stops at the first
// NUL, trims trailing NULs and replaces non-ASCII bytes with '?'.
func DecodeString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			data = data[:i]
			break
		}
	}
	out := make([]byte, len(data))
	for i, b := range data {
		if b > 0x7F {
			b = '?'
		}
		out[i] = b
	}
	return string(out)
}

// TryReadString reads at most maxLength bytes and decodes them, reporting read failures.
func TryReadString(r Reader, addr ProcessMemoryAddress, maxLength ProcessMemorySize) (string, error) {
	data, err := ReadBytes(r, addr, maxLength)
	if err != nil {
		return "", err
	}
	return DecodeString(data), nil
}

// ReadString reads a NUL-terminated ASCII string, "" on failure.
func ReadString(r Reader, addr ProcessMemoryAddress, maxLength ProcessMemorySize) string {
	s, err := TryReadString(r, addr, maxLength)
	if err != nil {
		return ""
	}
	return s
}

// TryReadF32 reads a little-endian IEEE-754 float.
func TryReadF32(r Reader, addr ProcessMemoryAddress) (float32, error) {
	data, err := ReadExact(r, addr, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
}

// ReadF32 reads a float, 0 on failure.
func ReadF32(r Reader, addr ProcessMemoryAddress) float32 {
	v, err := TryReadF32(r, addr)
	if err != nil {
		return 0
	}
	return v
}

// TryReadI32 reads a little-endian signed 32-bit integer.
func TryReadI32(r Reader, addr ProcessMemoryAddress) (int32, error) {
	data, err := ReadExact(r, addr, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(data)), nil
}

// ReadI32 reads an int32, 0 on failure.
func ReadI32(r Reader, addr ProcessMemoryAddress) int32 {
	v, err := TryReadI32(r, addr)
	if err != nil {
		return 0
	}
	return v
}

// ReadPointer reads a pointer-sized value using the reader's pointer width.
func ReadPointer(r Reader, addr ProcessMemoryAddress) (ProcessMemoryAddress, error) {
	width := r.PointerSize()
	data, err := ReadExact(r, addr, ProcessMemorySize(width))
	if err != nil {
		return 0, err
	}
	return DecodePointer(data, width)
}

// DecodePointer decodes a little-endian pointer of the given width.
func DecodePointer(data []byte, width int) (ProcessMemoryAddress, error) {
	if len(data) < width {
		return 0, ErrInvalidPointer
	}
	switch width {
	case 4:
		return ProcessMemoryAddress(uint32(binary.LittleEndian.Uint32(data))), nil
	case 8:
		return ProcessMemoryAddress(binary.LittleEndian.Uint64(data)), nil
	default:
		return 0, fmt.Errorf("unsupported pointer width %d: %w", width, ErrInvalidPointer)
	}
}
