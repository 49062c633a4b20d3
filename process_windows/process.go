//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"fearrpc/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const openAccess = windows.PROCESS_VM_READ | windows.PROCESS_QUERY_INFORMATION

// WindowsProcess implements process.Process with a read-only handle.
type WindowsProcess struct {
	info   process.ProcessInfo
	handle windows.Handle
	log    *logger.Logger
	width  int
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// Open acquires a read-only handle on the process.
func Open(info process.ProcessInfo) (*WindowsProcess, error) {
	handle, err := windows.OpenProcess(openAccess, false, uint32(info.PID))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess(%d) failed: %w", info.PID, err)
	}

	p := &WindowsProcess{
		info:   info,
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", info.PID))),
		width:  pointerSize(handle),
	}

	p.log.Infoln("Process opened", info.Name, "pointer size", p.width)
	return p, nil
}

// pointerSize is 4 for WOW64 targets and the native width otherwise.
func pointerSize(handle windows.Handle) int {
	var wow64 bool
	if err := windows.IsWow64Process(handle, &wow64); err == nil && wow64 {
		return 4
	}
	return int(unsafe.Sizeof(uintptr(0)))
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(p.handle)
	p.handle = 0
	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	if err != nil {
		return fmt.Errorf("CloseHandle failed: %w", err)
	}
	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	return p.info.PID
}

func (p *WindowsProcess) PointerSize() int {
	return p.width
}

func (p *WindowsProcess) currentHandle() windows.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// ReadMemory copies remote memory. ERROR_PARTIAL_COPY with a non-zero
// transfer is returned as a short read.
func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if err := process.CheckRead(addr, size); err != nil {
		return nil, err
	}

	handle := p.currentHandle()
	if handle == 0 {
		return nil, process.NewReadError(addr, size, process.ErrProcessNotOpen)
	}

	buf := make([]byte, size)
	var n uintptr
	err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(size), &n)
	if n > 0 && (err == nil || errors.Is(err, windows.ERROR_PARTIAL_COPY)) {
		return buf[:n], nil
	}
	if err == nil {
		err = process.ErrZeroTransfer
	}
	return nil, process.NewReadError(addr, size, err)
}

// ModuleBase returns the load address of the first module, which is the executable.
func (p *WindowsProcess) ModuleBase() (process.ProcessMemoryAddress, error) {
	handle := p.currentHandle()
	if handle == 0 {
		return 0, process.ErrProcessNotOpen
	}

	var (
		modules [1024]windows.Handle
		needed  uint32
	)
	err := windows.EnumProcessModulesEx(handle, &modules[0], uint32(unsafe.Sizeof(modules)), &needed, windows.LIST_MODULES_ALL)
	if err != nil {
		return 0, fmt.Errorf("EnumProcessModulesEx failed: %w", err)
	}
	if needed == 0 {
		return 0, fmt.Errorf("process %d has no modules", p.info.PID)
	}

	var mi windows.ModuleInfo
	if err := windows.GetModuleInformation(handle, modules[0], &mi, uint32(unsafe.Sizeof(mi))); err != nil {
		return 0, fmt.Errorf("GetModuleInformation failed: %w", err)
	}

	return process.ProcessMemoryAddress(mi.BaseOfDll), nil
}

// Opener opens live Windows processes.
type Opener struct{}

func (Opener) OpenProcess(info process.ProcessInfo) (process.Process, error) {
	return Open(info)
}
