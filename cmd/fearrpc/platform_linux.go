//go:build linux

package main

import (
	"fearrpc/process_linux"
	"fearrpc/tracker"
)

func newPlatform() platform {
	return platform{
		finder: process_linux.Finder{},
		opener: process_linux.Opener{},
		ladder: tracker.NewStartTimeLadder(
			tracker.CreateTimeSource{},
			process_linux.ProcStatSource{},
			process_linux.ProcCtimeSource{},
		),
	}
}
