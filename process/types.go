package process

import "time"

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process
type ProcessInfo struct {
	PID  ProcessID // Process ID
	Name string    // Process name (comm or executable basename)
	Exe  string    // Path to the executable, when readable
}

// Attachment describes an opened process as seen by the tracker.
type Attachment struct {
	Info       ProcessInfo
	Version    string
	ModuleBase ProcessMemoryAddress
	StartTime  time.Time
}
