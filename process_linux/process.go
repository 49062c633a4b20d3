//go:build linux

package process_linux

import (
	"debug/elf"
	"debug/pe"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fearrpc/process"
	"fearrpc/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// LinuxProcess implements process.Process on top of process_vm_readv.
// Windows games run under Wine, so the image of interest is usually a PE
// mapped from a file rather than /proc/<pid>/exe itself.
type LinuxProcess struct {
	info  process.ProcessInfo
	log   *logger.Logger
	width int
	mu    sync.Mutex
	open  bool
}

var _ process.Process = (*LinuxProcess)(nil)

// Open attaches to a process by PID. The process must still exist.
func Open(info process.ProcessInfo) (*LinuxProcess, error) {
	procPath := fmt.Sprintf("/proc/%d", info.PID)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("process with PID %d does not exist", info.PID)
	}

	p := &LinuxProcess{
		info: info,
		log:  logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", info.PID))),
		open: true,
	}
	p.width = p.detectPointerSize()

	p.log.Infoln("Process opened", info.Name, "pointer size", p.width)

	return p, nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.open {
		return nil
	}
	p.open = false
	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return nil
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	return p.info.PID
}

func (p *LinuxProcess) PointerSize() int {
	return p.width
}

// MemoryMap reads the current region list.
func (p *LinuxProcess) MemoryMap() ([]memory_map.MemoryMapItem, error) {
	return memory_map.NewLinuxMemoryMap().ReadMemoryMap(int(p.info.PID))
}

// ModuleBase finds the lowest mapping of the game executable. Under Wine
// that is the PE file named after the process; natively it is /proc/<pid>/exe.
func (p *LinuxProcess) ModuleBase() (process.ProcessMemoryAddress, error) {
	mm, err := p.MemoryMap()
	if err != nil {
		return 0, fmt.Errorf("failed to read memory map: %w", err)
	}

	for _, name := range p.moduleNames() {
		if base, ok := memory_map.ModuleBase(name, mm); ok {
			return process.ProcessMemoryAddress(base), nil
		}
	}

	return 0, fmt.Errorf("module %q not mapped in process %d", p.info.Name, p.info.PID)
}

func (p *LinuxProcess) moduleNames() []string {
	var names []string
	if p.info.Name != "" {
		names = append(names, p.info.Name)
	}
	if p.info.Exe != "" {
		names = append(names, filepath.Base(p.info.Exe))
	}
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", p.info.PID)); err == nil {
		names = append(names, filepath.Base(exe))
	}
	return names
}

// detectPointerSize prefers the machine type of the mapped PE image and
// falls back to the ELF class of the host executable.
func (p *LinuxProcess) detectPointerSize() int {
	if base, err := p.ModuleBase(); err == nil {
		if width, ok := peMachineWidth(p, base); ok {
			return width
		}
	}

	f, err := elf.Open(fmt.Sprintf("/proc/%d/exe", p.info.PID))
	if err != nil {
		p.log.Debugln("Unable to read executable header, assuming 64-bit:", err)
		return 8
	}
	defer f.Close()

	if f.Class == elf.ELFCLASS32 {
		return 4
	}
	return 8
}

// peMachineWidth reads the COFF machine field of a PE image loaded at base.
func peMachineWidth(r process.Reader, base process.ProcessMemoryAddress) (int, bool) {
	dos, err := process.ReadExact(r, base, 0x40)
	if err != nil || dos[0] != 'M' || dos[1] != 'Z' {
		return 0, false
	}
	lfanew := binary.LittleEndian.Uint32(dos[0x3C:])
	hdr, err := process.ReadExact(r, base+process.ProcessMemoryAddress(lfanew), 6)
	if err != nil || string(hdr[:4]) != "PE\x00\x00" {
		return 0, false
	}

	switch binary.LittleEndian.Uint16(hdr[4:]) {
	case pe.IMAGE_FILE_MACHINE_I386:
		return 4, true
	case pe.IMAGE_FILE_MACHINE_AMD64, pe.IMAGE_FILE_MACHINE_ARM64:
		return 8, true
	}
	return 0, false
}

// Opener opens live Linux processes.
type Opener struct{}

func (Opener) OpenProcess(info process.ProcessInfo) (process.Process, error) {
	return Open(info)
}
