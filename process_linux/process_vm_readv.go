//go:build linux

package process_linux

import (
	"errors"
	"fmt"

	"fearrpc/process"

	"golang.org/x/sys/unix"
)

// vmRead issues a single-iovec process_vm_readv. EFAULT means the start
// address is unmapped; ESRCH means the process is gone.
func vmRead(pid process.ProcessID, dst []byte, src process.ProcessMemoryAddress) (int, error) {
	local := []unix.Iovec{{Base: &dst[0]}}
	local[0].SetLen(len(dst))
	remote := []unix.RemoteIovec{{Base: uintptr(src), Len: len(dst)}}

	n, err := unix.ProcessVMReadv(int(pid), local, remote, 0)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, unix.EFAULT), errors.Is(err, unix.EIO):
		return 0, process.ErrAddressNotMapped
	case errors.Is(err, unix.ESRCH):
		return 0, process.ErrProcessNotOpen
	}
	return 0, fmt.Errorf("process_vm_readv: %w", err)
}

// ReadMemory returns the bytes before the first unmapped page when a read
// crosses one.
func (p *LinuxProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if err := process.CheckRead(addr, size); err != nil {
		return nil, err
	}

	p.mu.Lock()
	open := p.open
	p.mu.Unlock()
	if !open {
		return nil, process.NewReadError(addr, size, process.ErrProcessNotOpen)
	}

	buf := make([]byte, size)
	n, err := vmRead(p.info.PID, buf, addr)
	switch {
	case err != nil:
		return nil, process.NewReadError(addr, size, err)
	case n == 0:
		return nil, process.NewReadError(addr, size, process.ErrZeroTransfer)
	}
	return buf[:n], nil
}
