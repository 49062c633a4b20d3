package process

import (
	"fmt"
)

// ProcessMemoryAddress represents a memory address within a process
type ProcessMemoryAddress uint64

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// Offset applies a signed displacement to the address.
func (pma ProcessMemoryAddress) Offset(delta int64) ProcessMemoryAddress {
	return ProcessMemoryAddress(int64(pma) + delta)
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// AOB (Array of Bytes) represents a pattern to search for in memory
type AOB struct {
	Pattern []byte // The byte pattern to search for
	Mask    []byte // Optional mask where 0xFF means exact match and 0x00 means wildcard
}

// IsValid checks if the AOB pattern is valid
func (aob AOB) IsValid() bool {
	return len(aob.Pattern) > 0 && (len(aob.Mask) == 0 || len(aob.Pattern) == len(aob.Mask))
}

func NewAOB(pattern, mask []byte) (AOB, error) {
	if len(pattern) != len(mask) {
		return AOB{}, fmt.Errorf("pattern and mask must be of the same length")
	}
	return AOB{Pattern: pattern, Mask: mask}, nil
}

// ExactAOB builds a pattern without wildcards.
func ExactAOB(pattern []byte) AOB {
	return AOB{Pattern: pattern}
}

// ResolvedAddress is either Unresolved or At(address).
type ResolvedAddress struct {
	addr ProcessMemoryAddress
	ok   bool
}

// Unresolved returns the empty ResolvedAddress.
func Unresolved() ResolvedAddress {
	return ResolvedAddress{}
}

// At returns a resolved address. A zero address stays unresolved.
func At(addr ProcessMemoryAddress) ResolvedAddress {
	if addr == 0 {
		return ResolvedAddress{}
	}
	return ResolvedAddress{addr: addr, ok: true}
}

func (ra ResolvedAddress) Get() (ProcessMemoryAddress, bool) {
	return ra.addr, ra.ok
}

func (ra ResolvedAddress) IsResolved() bool {
	return ra.ok
}

func (ra ResolvedAddress) String() string {
	if !ra.ok {
		return "unresolved"
	}
	return ra.addr.ToString()
}
