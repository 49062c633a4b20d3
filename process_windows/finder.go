//go:build windows

package process_windows

import (
	"sort"
	"strings"

	"fearrpc/process"

	ps "github.com/shirou/gopsutil/v3/process"
)

// Finder enumerates processes through gopsutil.
type Finder struct{}

func (Finder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	procs, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(strings.TrimSuffix(strings.ToLower(name), ".exe"))
	var out []process.ProcessInfo
	for _, p := range procs {
		n, err := p.Name()
		if err != nil {
			continue // exited or access denied
		}
		if strings.TrimSuffix(strings.ToLower(n), ".exe") != want {
			continue
		}
		exe, _ := p.Exe()
		out = append(out, process.ProcessInfo{PID: process.ProcessID(p.Pid), Name: n, Exe: exe})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}
