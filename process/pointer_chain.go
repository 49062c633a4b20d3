package process

import (
	"fmt"
	"strings"
)

// PointerChain is a base address plus the offsets applied after each dereference.
//
//	cur = Base
//	for each offset: cur = *cur + offset
//
// The value is immutable; WithBase returns an anchored copy.
type PointerChain struct {
	Base        ProcessMemoryAddress
	Offsets     []int64
	Description string
}

// NewPointerChain copies offsets so the chain cannot be mutated through the caller's slice.
func NewPointerChain(description string, offsets ...int64) PointerChain {
	return PointerChain{
		Offsets:     append([]int64(nil), offsets...),
		Description: description,
	}
}

// WithBase returns a copy of the chain anchored at base.
func (c PointerChain) WithBase(base ProcessMemoryAddress) PointerChain {
	return PointerChain{
		Base:        base,
		Offsets:     append([]int64(nil), c.Offsets...),
		Description: c.Description,
	}
}

// Hops is the number of dereferences the chain performs.
func (c PointerChain) Hops() int {
	return len(c.Offsets)
}

func (c PointerChain) String() string {
	var sb strings.Builder
	sb.WriteString(c.Base.ToString())
	for _, off := range c.Offsets {
		if off < 0 {
			fmt.Fprintf(&sb, " -> -%X", -off)
		} else {
			fmt.Fprintf(&sb, " -> +%X", off)
		}
	}
	return sb.String()
}

// ResolvePointerChain walks the chain and returns the final address.
// Any failed, short or null pointer read aborts the walk; partial chains are never returned.
func ResolvePointerChain(r Reader, chain PointerChain) ResolvedAddress {
	addr, err := WalkPointerChain(r, chain)
	if err != nil {
		return Unresolved()
	}
	return At(addr)
}

// WalkPointerChain is ResolvePointerChain with the reason for failure.
func WalkPointerChain(r Reader, chain PointerChain) (ProcessMemoryAddress, error) {
	if chain.Base == 0 {
		return 0, fmt.Errorf("chain %q: %w", chain.Description, ErrNullAddress)
	}

	current := chain.Base
	for i, off := range chain.Offsets {
		ptr, err := ReadPointer(r, current)
		if err != nil {
			return 0, fmt.Errorf("chain step %d (addr=%s): %w", i, current.ToString(), err)
		}
		if ptr == 0 {
			return 0, fmt.Errorf("chain step %d (addr=%s): NULL pointer: %w", i, current.ToString(), ErrInvalidPointer)
		}
		current = ptr.Offset(off)
	}

	return current, nil
}
