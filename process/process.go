// Package process defines the remote memory contract shared by every reader
// (live Linux and Windows processes, in-memory blobs and saved dumps).
package process

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")

	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	ErrNullAddress  = errors.New("null address")
	ErrInvalidSize  = errors.New("read size must be positive")
	ErrZeroTransfer = errors.New("zero bytes transferred")

	ErrInvalidPointer = errors.New("invalid pointer read")
)

// ReadError describes a failed remote read. It is an ordinary outcome:
// unmapped pages, dead handles and empty transfers all end up here.
type ReadError struct {
	Addr ProcessMemoryAddress
	Size ProcessMemorySize
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %d bytes at %s: %v", e.Size, e.Addr.ToString(), e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// NewReadError wraps err for the given read request.
func NewReadError(addr ProcessMemoryAddress, size ProcessMemorySize, err error) error {
	return &ReadError{Addr: addr, Size: size, Err: err}
}

// CheckRead validates the arguments of a read request.
func CheckRead(addr ProcessMemoryAddress, size ProcessMemorySize) error {
	if addr == 0 {
		return NewReadError(addr, size, ErrNullAddress)
	}
	if size == 0 {
		return NewReadError(addr, size, ErrInvalidSize)
	}
	return nil
}
