package sequencer

import (
	"time"

	"github.com/litescript/orbitlapse/internal/dataset"
	"github.com/litescript/orbitlapse/internal/geocode"
)

// EventType identifies what the sequencer did with a record.
type EventType string

const (
	EventLaunched EventType = "LAUNCHED"
	EventSkipped  EventType = "SKIPPED"
	EventFailed   EventType = "FAILED"
	EventDone     EventType = "DONE"
)

// Event reports progress. Index is the record's position in launch order;
// for EventDone it equals Total and Result holds the final counts.
type Event struct {
	Type   EventType
	Time   time.Time
	Index  int
	Total  int
	Record dataset.LaunchRecord
	Coord  geocode.Coordinate
	Err    error
	Result Result
}

// Observer receives sequencer events on the sequencer's goroutine.
// Implementations must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}
