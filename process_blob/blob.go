package process_blob

import (
	"encoding/binary"
	"math"

	"fearrpc/process"
)

// ProcessBlob is one contiguous region of a memory image.
type ProcessBlob struct {
	baseaddress process.ProcessMemoryAddress
	data        []byte
}

func NewProcessBlob(baseAddress process.ProcessMemoryAddress, data []byte) *ProcessBlob {
	return &ProcessBlob{
		baseaddress: baseAddress,
		data:        data,
	}
}

func (p *ProcessBlob) Data() []byte {
	return p.data
}

func (p *ProcessBlob) Base() process.ProcessMemoryAddress {
	return p.baseaddress
}

func (p *ProcessBlob) End() process.ProcessMemoryAddress {
	return p.baseaddress + process.ProcessMemoryAddress(len(p.data))
}

func (p *ProcessBlob) Contains(addr process.ProcessMemoryAddress) bool {
	return addr >= p.baseaddress && addr < p.End()
}

// ReadMemory copies out up to size bytes; reads running off the end of the
// region are short, like a remote read crossing into an unmapped page.
func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if !p.Contains(addr) {
		return nil, process.NewReadError(addr, size, process.ErrAddressNotMapped)
	}
	offset := uint64(addr - p.baseaddress)
	end := offset + uint64(size)
	if end > uint64(len(p.data)) {
		end = uint64(len(p.data))
	}
	out := make([]byte, end-offset)
	copy(out, p.data[offset:end])
	return out, nil
}

func (p *ProcessBlob) slot(addr process.ProcessMemoryAddress, n int) []byte {
	if !p.Contains(addr) || uint64(addr-p.baseaddress)+uint64(n) > uint64(len(p.data)) {
		panic("process_blob: write out of bounds at " + addr.ToString())
	}
	off := addr - p.baseaddress
	return p.data[off : int(off)+n]
}

// PutBytes writes raw bytes into the region.
func (p *ProcessBlob) PutBytes(addr process.ProcessMemoryAddress, b []byte) {
	copy(p.slot(addr, len(b)), b)
}

// PutString writes s followed by a NUL terminator.
func (p *ProcessBlob) PutString(addr process.ProcessMemoryAddress, s string) {
	p.PutBytes(addr, append([]byte(s), 0))
}

func (p *ProcessBlob) PutF32(addr process.ProcessMemoryAddress, v float32) {
	binary.LittleEndian.PutUint32(p.slot(addr, 4), math.Float32bits(v))
}

func (p *ProcessBlob) PutI32(addr process.ProcessMemoryAddress, v int32) {
	binary.LittleEndian.PutUint32(p.slot(addr, 4), uint32(v))
}

// PutPointer writes a pointer of the given width (4 or 8).
func (p *ProcessBlob) PutPointer(addr process.ProcessMemoryAddress, v process.ProcessMemoryAddress, width int) {
	if width == 4 {
		binary.LittleEndian.PutUint32(p.slot(addr, 4), uint32(v))
		return
	}
	binary.LittleEndian.PutUint64(p.slot(addr, 8), uint64(v))
}
