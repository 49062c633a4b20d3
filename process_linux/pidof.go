//go:build linux

package process_linux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"fearrpc/process"
)

// ListByName returns all processes whose comm, exe basename or argv[0]
// basename matches name. Matching ignores case and a trailing ".exe", since
// Wine exposes Windows executables under truncated comm names and
// backslash paths in cmdline. Results are sorted by PID.
func ListByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	selfPID := os.Getpid()
	var out []process.ProcessInfo

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue // not a PID dir
		}
		if pid == selfPID {
			continue // skip ourselves
		}

		if info, ok := matchPID(pid, name); ok {
			out = append(out, info)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func matchPID(pid int, name string) (process.ProcessInfo, bool) {
	dir := filepath.Join("/proc", strconv.Itoa(pid))
	info := process.ProcessInfo{PID: process.ProcessID(pid)}

	// Resolve /proc/<pid>/exe symlink; may fail if zombie or permission
	info.Exe, _ = os.Readlink(filepath.Join(dir, "exe"))

	comm, _ := os.ReadFile(filepath.Join(dir, "comm"))
	if c := string(bytesTrimNL(comm)); c != "" && NameMatches(c, name) {
		info.Name = name
		return info, true
	}

	if info.Exe != "" && NameMatches(filepath.Base(info.Exe), name) {
		info.Name = filepath.Base(info.Exe)
		return info, true
	}

	cmdline, _ := os.ReadFile(filepath.Join(dir, "cmdline"))
	if argv0, _, _ := bytes.Cut(cmdline, []byte{0}); len(argv0) > 0 {
		base := path.Base(strings.ReplaceAll(string(argv0), "\\", "/"))
		if NameMatches(base, name) {
			info.Name = base
			return info, true
		}
	}

	return info, false
}

// NameMatches compares a process name with an executable name, ignoring case
// and a ".exe" suffix on either side. comm is truncated to 15 bytes by the
// kernel, so a 15-byte candidate also matches as a prefix.
func NameMatches(candidate, name string) bool {
	c := strings.TrimSuffix(strings.ToLower(candidate), ".exe")
	n := strings.TrimSuffix(strings.ToLower(name), ".exe")
	if c == n {
		return true
	}
	const commLen = 15
	return len(candidate) == commLen && strings.HasPrefix(strings.ToLower(name), strings.ToLower(candidate))
}

// Finder implements process.ProcessFinder over /proc.
type Finder struct{}

func (Finder) FindProcessByName(name string) ([]process.ProcessInfo, error) {
	return ListByName(name)
}

func bytesTrimNL(b []byte) []byte {
	// Trim trailing '\n' if present (comm has a newline).
	for len(b) > 0 {
		switch b[len(b)-1] {
		case '\n', '\r', ' ', '\t':
			b = b[:len(b)-1]
		default:
			return b
		}
	}
	return b
}
