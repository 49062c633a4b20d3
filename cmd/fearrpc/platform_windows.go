//go:build windows

package main

import (
	"fearrpc/process_windows"
	"fearrpc/tracker"
)

func newPlatform() platform {
	return platform{
		finder: process_windows.Finder{},
		opener: process_windows.Opener{},
		ladder: tracker.NewStartTimeLadder(
			tracker.CreateTimeSource{},
			process_windows.WMISource{},
			process_windows.ProcessTimesSource{},
		),
	}
}
