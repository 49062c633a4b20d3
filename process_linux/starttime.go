//go:build linux

package process_linux

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"fearrpc/process"

	"github.com/shirou/gopsutil/v3/host"
	"golang.org/x/sys/unix"
)

// USER_HZ is fixed at 100 for every architecture Linux exposes to userspace.
const clockTicksPerSecond = 100

// ProcStatSource derives the start time from the starttime field of
// /proc/<pid>/stat and the system boot time.
type ProcStatSource struct {
	// BootTime defaults to gopsutil's host.BootTime.
	BootTime func() (uint64, error)
}

func (ProcStatSource) Name() string { return "procfs-stat" }

func (s ProcStatSource) StartTime(pid process.ProcessID) (time.Time, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return time.Time{}, err
	}
	ticks, err := ParseStatStartTicks(string(raw))
	if err != nil {
		return time.Time{}, err
	}

	bootTime := s.BootTime
	if bootTime == nil {
		bootTime = host.BootTime
	}
	boot, err := bootTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("boot time: %w", err)
	}

	since := time.Duration(ticks) * time.Second / clockTicksPerSecond
	return time.Unix(int64(boot), 0).Add(since), nil
}

// ParseStatStartTicks extracts field 22 (starttime) from a /proc/<pid>/stat line.
// The comm field may contain spaces and parentheses, so parsing starts after the last ')'.
func ParseStatStartTicks(stat string) (uint64, error) {
	end := strings.LastIndexByte(stat, ')')
	if end < 0 {
		return 0, errors.New("malformed stat: no comm terminator")
	}
	// fields after comm start at field 3 (state)
	fields := strings.Fields(stat[end+1:])
	const startTimeIndex = 22 - 3
	if len(fields) <= startTimeIndex {
		return 0, fmt.Errorf("malformed stat: %d fields after comm", len(fields))
	}
	return strconv.ParseUint(fields[startTimeIndex], 10, 64)
}

// ProcCtimeSource uses the inode change time of /proc/<pid>, which the
// kernel sets when the process directory is instantiated.
type ProcCtimeSource struct{}

func (ProcCtimeSource) Name() string { return "procfs-ctime" }

func (ProcCtimeSource) StartTime(pid process.ProcessID) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(fmt.Sprintf("/proc/%d", pid), &st); err != nil {
		return time.Time{}, err
	}
	sec, nsec := st.Ctim.Unix()
	return time.Unix(sec, nsec), nil
}
