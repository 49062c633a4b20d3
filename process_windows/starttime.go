//go:build windows

package process_windows

import (
	"fmt"
	"time"

	"fearrpc/process"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows"
)

type win32Process struct {
	CreationDate time.Time
}

// WMISource queries Win32_Process.CreationDate.
type WMISource struct{}

func (WMISource) Name() string { return "wmi" }

func (WMISource) StartTime(pid process.ProcessID) (time.Time, error) {
	var dst []win32Process
	q := fmt.Sprintf("SELECT CreationDate FROM Win32_Process WHERE ProcessId = %d", pid)
	if err := wmi.Query(q, &dst); err != nil {
		return time.Time{}, fmt.Errorf("wmi query: %w", err)
	}
	if len(dst) == 0 || dst[0].CreationDate.IsZero() {
		return time.Time{}, fmt.Errorf("wmi: no CreationDate for pid %d", pid)
	}
	return dst[0].CreationDate, nil
}

// ProcessTimesSource reads the creation FILETIME with GetProcessTimes.
type ProcessTimesSource struct{}

func (ProcessTimesSource) Name() string { return "GetProcessTimes" }

func (ProcessTimesSource) StartTime(pid process.ProcessID) (time.Time, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return time.Time{}, fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	defer windows.CloseHandle(handle)

	var creation, exit, kernel, user windows.Filetime
	if err := windows.GetProcessTimes(handle, &creation, &exit, &kernel, &user); err != nil {
		return time.Time{}, fmt.Errorf("GetProcessTimes: %w", err)
	}
	return time.Unix(0, creation.Nanoseconds()), nil
}
