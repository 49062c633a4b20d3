package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fearrpc/process"
	"fearrpc/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

const (
	metadataFile  = "metadata.json"
	memoryMapFile = "process_memory_map.json"

	// regions larger than this are not written to a dump
	maxRegionSize = 100 * 1024 * 1024
)

// Metadata describes the process a dump was taken from.
type Metadata struct {
	PID         process.ProcessID            `json:"pid"`
	Name        string                       `json:"name"`
	Version     string                       `json:"version,omitempty"`
	ModuleBase  process.ProcessMemoryAddress `json:"module_base"`
	PointerSize int                          `json:"pointer_size"`
}

// ProcessDump is a multi-region memory image. It is built in memory with
// AddRegion or loaded from a directory written by Save, and serves reads
// like a live process would.
type ProcessDump struct {
	Metadata Metadata

	mu      sync.Mutex
	regions []*ProcessBlob
	closed  bool
}

var _ process.Process = (*ProcessDump)(nil)

// NewProcessDump creates an empty image with the given pointer width.
func NewProcessDump(pointerSize int) *ProcessDump {
	return &ProcessDump{Metadata: Metadata{PointerSize: pointerSize}}
}

// AddRegion maps size zeroed bytes at base and returns the region for population.
func (p *ProcessDump) AddRegion(base process.ProcessMemoryAddress, size int) *ProcessBlob {
	return p.addBlob(NewProcessBlob(base, make([]byte, size)))
}

func (p *ProcessDump) addBlob(blob *ProcessBlob) *ProcessBlob {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.regions = append(p.regions, blob)
	sort.Slice(p.regions, func(i, j int) bool { return p.regions[i].Base() < p.regions[j].Base() })
	return blob
}

// Region returns the region containing addr.
func (p *ProcessDump) Region(addr process.ProcessMemoryAddress) *ProcessBlob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.find(addr)
}

func (p *ProcessDump) find(addr process.ProcessMemoryAddress) *ProcessBlob {
	i := sort.Search(len(p.regions), func(i int) bool {
		return p.regions[i].End() > addr
	})
	if i < len(p.regions) && p.regions[i].Base() <= addr {
		return p.regions[i]
	}
	return nil
}

func (p *ProcessDump) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, process.NewReadError(addr, size, process.ErrProcessNotOpen)
	}
	region := p.find(addr)
	p.mu.Unlock()

	if region == nil {
		return nil, process.NewReadError(addr, size, process.ErrAddressNotMapped)
	}
	return region.ReadMemory(addr, size)
}

func (p *ProcessDump) PointerSize() int {
	if p.Metadata.PointerSize == 0 {
		return 4
	}
	return p.Metadata.PointerSize
}

func (p *ProcessDump) GetPID() process.ProcessID {
	return p.Metadata.PID
}

func (p *ProcessDump) ModuleBase() (process.ProcessMemoryAddress, error) {
	if p.Metadata.ModuleBase == 0 {
		return 0, fmt.Errorf("dump has no module base: %w", process.ErrNullAddress)
	}
	return p.Metadata.ModuleBase, nil
}

func (p *ProcessDump) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// MemoryMap lists the regions of the image.
func (p *ProcessDump) MemoryMap() []memory_map.MemoryMapItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]memory_map.MemoryMapItem, 0, len(p.regions))
	for _, r := range p.regions {
		out = append(out, memory_map.MemoryMapItem{Address: uint64(r.Base()), Size: uint(len(r.Data())), Perms: "r--p"})
	}
	return out
}

func blobName(dirname string, region memory_map.MemoryMapItem) string {
	return filepath.Join(dirname, fmt.Sprintf("blob_0x%x_%d.bin", region.Address, region.Size))
}

// Load reads a dump directory written by Save.
func Load(dirname string) (*ProcessDump, error) {
	metadataBytes, err := os.ReadFile(filepath.Join(dirname, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	p := &ProcessDump{}
	if err := json.Unmarshal(metadataBytes, &p.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	mmBytes, err := os.ReadFile(filepath.Join(dirname, memoryMapFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}

	var mm []memory_map.MemoryMapItem
	if err := json.Unmarshal(mmBytes, &mm); err != nil {
		return nil, fmt.Errorf("failed to unmarshal memory map: %w", err)
	}

	for _, region := range mm {
		filename := blobName(dirname, region)
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			continue // not saved: unreadable or too large
		}

		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read blob %s: %w", filename, err)
		}

		p.addBlob(NewProcessBlob(process.ProcessMemoryAddress(region.Address), data))
	}

	return p, nil
}

// SaveStats counts what happened to each region during Save.
type SaveStats struct {
	Saved       int
	Unreadable  int
	TooLarge    int
	ReadErrors  int
	WriteErrors int
}

// Save writes metadata, the region list and every readable region of src to dirname.
func Save(dirname string, src process.Reader, meta Metadata, regions []memory_map.MemoryMapItem) (SaveStats, error) {
	var stats SaveStats

	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("dump-%d", meta.PID)))

	if err := os.MkdirAll(dirname, 0755); err != nil {
		return stats, fmt.Errorf("failed to create directory: %w", err)
	}

	if meta.PointerSize == 0 {
		meta.PointerSize = src.PointerSize()
	}

	metadataJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return stats, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, metadataFile), metadataJSON, 0644); err != nil {
		return stats, fmt.Errorf("failed to write metadata file: %w", err)
	}

	memoryMapJSON, err := json.MarshalIndent(regions, "", "  ")
	if err != nil {
		return stats, fmt.Errorf("failed to marshal memory map: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dirname, memoryMapFile), memoryMapJSON, 0644); err != nil {
		return stats, fmt.Errorf("failed to write memory map file: %w", err)
	}

	log.Infoln("Saving", len(regions), "regions to", dirname)

	for _, region := range regions {
		if !region.IsReadable() {
			stats.Unreadable++
			continue
		}
		if region.Size > maxRegionSize {
			log.Debugln("Skipping large region at", fmt.Sprintf("%x", region.Address), "(size:", region.Size/1024/1024, "MB)")
			stats.TooLarge++
			continue
		}

		data, err := process.ReadExact(src, process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			log.Debugln("Failed to read memory region at", fmt.Sprintf("%x", region.Address), ":", err)
			stats.ReadErrors++
			continue
		}

		if err := os.WriteFile(blobName(dirname, region), data, 0644); err != nil {
			log.Warn("Failed to write memory file for region at", fmt.Sprintf("%x", region.Address), ":", err)
			stats.WriteErrors++
			continue
		}
		stats.Saved++
	}

	log.Infoln("Process dump saved:", stats.Saved, "regions saved,", stats.ReadErrors+stats.WriteErrors, "errors")

	return stats, nil
}
