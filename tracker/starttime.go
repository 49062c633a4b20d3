package tracker

import (
	"fmt"
	"time"

	"fearrpc/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	ps "github.com/shirou/gopsutil/v3/process"
)

// CreateTimeSource asks the OS directly through gopsutil.
type CreateTimeSource struct{}

func (CreateTimeSource) Name() string { return "create-time" }

func (CreateTimeSource) StartTime(pid process.ProcessID) (time.Time, error) {
	p, err := ps.NewProcess(int32(pid))
	if err != nil {
		return time.Time{}, err
	}
	ms, err := p.CreateTime()
	if err != nil {
		return time.Time{}, err
	}
	if ms <= 0 {
		return time.Time{}, fmt.Errorf("create time %d out of range", ms)
	}
	return time.UnixMilli(ms), nil
}

// CPUTime returns the user+system time a process has consumed.
func CPUTime(pid process.ProcessID) (time.Duration, error) {
	p, err := ps.NewProcess(int32(pid))
	if err != nil {
		return 0, err
	}
	times, err := p.Times()
	if err != nil {
		return 0, err
	}
	return time.Duration((times.User + times.System) * float64(time.Second)), nil
}

// StartTimeLadder resolves a process start time through an ordered list of
// sources. ProcessStartTime always produces a value: when every source
// fails it falls back to now minus accumulated CPU time, then to now.
type StartTimeLadder struct {
	Sources []process.StartTimeSource
	CPUTime func(process.ProcessID) (time.Duration, error)
	Now     func() time.Time

	log *logger.Logger
}

func NewStartTimeLadder(sources ...process.StartTimeSource) *StartTimeLadder {
	return &StartTimeLadder{
		Sources: sources,
		CPUTime: CPUTime,
		Now:     time.Now,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "starttime")),
	}
}

func (l *StartTimeLadder) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func (l *StartTimeLadder) debug(args ...interface{}) {
	if l.log != nil {
		l.log.Debugln(args...)
	}
}

// ProcessStartTime returns the wall-clock start time of pid.
func (l *StartTimeLadder) ProcessStartTime(pid process.ProcessID) time.Time {
	now := l.now()

	for _, src := range l.Sources {
		started, err := src.StartTime(pid)
		if err != nil {
			l.debug("start time via", src.Name(), "failed:", err)
			continue
		}
		if started.IsZero() || started.After(now.Add(time.Minute)) {
			l.debug("start time via", src.Name(), "implausible:", started)
			continue
		}
		return started
	}

	if l.CPUTime != nil {
		if cpu, err := l.CPUTime(pid); err == nil && cpu >= 0 {
			l.debug("start time estimated from cpu time", cpu)
			return now.Add(-cpu)
		}
	}

	l.debug("start time unknown for pid", pid, "using now")
	return now
}
