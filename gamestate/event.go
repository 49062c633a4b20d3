package gamestate

import "fmt"

type EventKind int

const (
	LevelChanged EventKind = iota + 1
	HealthChanged
	Death
)

func (k EventKind) String() string {
	switch k {
	case LevelChanged:
		return "level-changed"
	case HealthChanged:
		return "health-changed"
	case Death:
		return "death"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is an edge detected between two ticks.
type Event struct {
	Kind      EventKind
	OldLevel  string
	NewLevel  string
	OldHealth float32
	NewHealth float32
	Deaths    int32
}

func (e Event) String() string {
	switch e.Kind {
	case LevelChanged:
		return fmt.Sprintf("level %q -> %q", e.OldLevel, e.NewLevel)
	case HealthChanged:
		return fmt.Sprintf("health %.1f -> %.1f", e.OldHealth, e.NewHealth)
	case Death:
		return fmt.Sprintf("death #%d", e.Deaths)
	}
	return e.Kind.String()
}

// Sink consumes events.
type Sink interface {
	HandleEvent(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) HandleEvent(e Event) { f(e) }

// Dispatch sends every event to every sink, in order.
func Dispatch(events []Event, sinks ...Sink) {
	for _, e := range events {
		for _, s := range sinks {
			s.HandleEvent(e)
		}
	}
}
