package main

import (
	"fmt"

	ps "github.com/shirou/gopsutil/v3/process"

	"fearrpc/process"
	"fearrpc/process/memory_map"
	"fearrpc/tracker"
)

// platform is the OS specific half of the monitor.
type platform struct {
	finder process.ProcessFinder
	opener process.ProcessOpener
	ladder *tracker.StartTimeLadder
}

// mappedProcess is a live process that can list its regions.
type mappedProcess interface {
	process.Process
	MemoryMap() ([]memory_map.MemoryMapItem, error)
}

// openPID opens a process by id for the diagnostic commands.
func openPID(pid int) (mappedProcess, process.ProcessInfo, error) {
	info := process.ProcessInfo{PID: process.ProcessID(pid)}
	if p, err := ps.NewProcess(int32(pid)); err == nil {
		info.Name, _ = p.Name()
		info.Exe, _ = p.Exe()
	}

	proc, err := newPlatform().opener.OpenProcess(info)
	if err != nil {
		return nil, info, fmt.Errorf("open process %d: %w", pid, err)
	}
	mp, ok := proc.(mappedProcess)
	if !ok {
		proc.Close()
		return nil, info, fmt.Errorf("process %d: memory map not supported", pid)
	}
	return mp, info, nil
}
