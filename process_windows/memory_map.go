//go:build windows

package process_windows

import (
	"unsafe"

	"fearrpc/process"
	"fearrpc/process/memory_map"

	"golang.org/x/sys/windows"
)

// MemoryMap walks the committed regions of the process with VirtualQueryEx.
func (p *WindowsProcess) MemoryMap() ([]memory_map.MemoryMapItem, error) {
	handle := p.currentHandle()
	if handle == 0 {
		return nil, process.ErrProcessNotOpen
	}

	var (
		out  []memory_map.MemoryMapItem
		addr uintptr
		mbi  windows.MemoryBasicInformation
	)
	for {
		if err := windows.VirtualQueryEx(handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break // past the last region
		}
		if mbi.RegionSize == 0 {
			break
		}
		if mbi.State == windows.MEM_COMMIT {
			out = append(out, memory_map.MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   perms(mbi.Protect),
			})
		}
		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}
	return out, nil
}

func perms(protect uint32) string {
	if protect&windows.PAGE_GUARD != 0 || protect&windows.PAGE_NOACCESS != 0 {
		return "---p"
	}
	r, w, x := "r", "-", "-"
	switch protect & 0xff {
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		w = "w"
	case windows.PAGE_EXECUTE_READ:
		x = "x"
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		w, x = "w", "x"
	case windows.PAGE_EXECUTE:
		r, x = "-", "x"
	}
	return r + w + x + "p"
}
