package process

import "time"

// ProcessFinder defines operations for discovering processes
type ProcessFinder interface {
	// FindProcessByName finds live processes whose name matches the executable name.
	// Results are ordered by ascending PID.
	FindProcessByName(name string) ([]ProcessInfo, error)
}

// ProcessOpener opens a read-only handle on a process
type ProcessOpener interface {
	OpenProcess(info ProcessInfo) (Process, error)
}

// StartTimeSource is one rung of the process start-time ladder.
type StartTimeSource interface {
	Name() string
	StartTime(pid ProcessID) (time.Time, error)
}
