package memory_map

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address  uint64 // The starting address of the memory region
	Size     uint   // The size of the memory region in bytes
	Perms    string // Permissions (e.g., "r-xp" for read, execute, private)
	Pathname string // Backing file, empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Pathname)
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

// MemoryMap reads the region list of a process, sorted by address.
type MemoryMap interface {
	ReadMemoryMap(pid int) ([]MemoryMapItem, error)
}

// Find returns the region containing addr using binary search over a sorted map.
func Find(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// ModuleBase returns the lowest address mapped from a file whose base name
// equals module (case-insensitive). Wine maps PE images this way.
func ModuleBase(module string, memoryMap []MemoryMapItem) (uint64, bool) {
	var (
		base  uint64
		found bool
	)
	for _, item := range memoryMap {
		if item.Pathname == "" {
			continue
		}
		name := path.Base(strings.ReplaceAll(item.Pathname, "\\", "/"))
		if !strings.EqualFold(name, module) {
			continue
		}
		if !found || item.Address < base {
			base = item.Address
			found = true
		}
	}
	return base, found
}

// Readable filters the map down to regions with read permission.
func Readable(memoryMap []MemoryMapItem) []MemoryMapItem {
	out := make([]MemoryMapItem, 0, len(memoryMap))
	for _, item := range memoryMap {
		if item.IsReadable() {
			out = append(out, item)
		}
	}
	return out
}

// ParseMaps parses the /proc/[pid]/maps text format.
//
//	00400000-0040b000 r-xp 00000000 08:01 1234  /usr/bin/cat
func ParseMaps(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		var pathname string
		if len(fields) > 5 {
			pathname = strings.Join(fields[5:], " ")
		}

		memoryMap = append(memoryMap, MemoryMapItem{
			Address:  startAddr,
			Size:     uint(endAddr - startAddr),
			Perms:    fields[1],
			Pathname: pathname,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Slice(memoryMap, func(i, j int) bool { return memoryMap[i].Address < memoryMap[j].Address })
	return memoryMap, nil
}
