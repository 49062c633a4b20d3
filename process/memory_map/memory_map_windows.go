//go:build windows

package memory_map

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsMemoryMap implements MemoryMap for Windows using VirtualQueryEx
type WindowsMemoryMap struct{}

// NewWindowsMemoryMap creates a new WindowsMemoryMap instance
func NewWindowsMemoryMap() *WindowsMemoryMap {
	return &WindowsMemoryMap{}
}

// ReadMemoryMap walks the committed regions of a process
func (w *WindowsMemoryMap) ReadMemoryMap(pid int) ([]MemoryMapItem, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION, false, uint32(pid))
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(h)

	var (
		memoryMap []MemoryMapItem
		addr      uintptr
		mbi       windows.MemoryBasicInformation
	)
	for {
		if err := windows.VirtualQueryEx(h, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			break
		}
		if mbi.RegionSize == 0 {
			break
		}
		if mbi.State == windows.MEM_COMMIT {
			memoryMap = append(memoryMap, MemoryMapItem{
				Address: uint64(mbi.BaseAddress),
				Size:    uint(mbi.RegionSize),
				Perms:   protectPerms(mbi.Protect),
			})
		}
		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	return memoryMap, nil
}

func protectPerms(protect uint32) string {
	if protect&windows.PAGE_GUARD != 0 || protect&windows.PAGE_NOACCESS != 0 {
		return "---p"
	}
	r, w, x := "-", "-", "-"
	switch protect & 0xFF {
	case windows.PAGE_READONLY:
		r = "r"
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		r, w = "r", "w"
	case windows.PAGE_EXECUTE:
		x = "x"
	case windows.PAGE_EXECUTE_READ:
		r, x = "r", "x"
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		r, w, x = "r", "w", "x"
	}
	return r + w + x + "p"
}
