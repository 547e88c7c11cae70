// Package state provides thread-safe state management for the application.
package state

import (
	"sync"
	"time"

	"github.com/litescript/orbitlapse/internal/sequencer"
)

// Event is one entry of the launch log.
type Event struct {
	Type      sequencer.EventType `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	Name      string              `json:"name"`
	Site      string              `json:"site"`
	Owner     string              `json:"owner,omitempty"`
	Date      time.Time           `json:"date"`
	Detail    string              `json:"detail,omitempty"`
}

// Manager collects sequencer progress for the UI and the headless status
// line. It implements sequencer.Observer.
type Manager struct {
	mu sync.RWMutex

	started  time.Time
	finished time.Time
	total    int
	index    int
	result   sequencer.Result
	done     bool

	currentDate time.Time
	lastLaunch  string
	lastError   error

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents: 50, // Last 50 events
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Start records the beginning of a run over total records.
func (m *Manager) Start(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = time.Now()
	m.total = total
}

// OnEvent implements sequencer.Observer.
func (m *Manager) OnEvent(e sequencer.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started.IsZero() {
		m.started = e.Time
	}
	m.total = e.Total

	if e.Type == sequencer.EventDone {
		m.done = true
		m.finished = e.Time
		m.index = e.Total
		m.result = e.Result
		return
	}

	m.index = e.Index + 1
	if !e.Record.Date.IsZero() {
		m.currentDate = e.Record.Date
	}

	entry := Event{
		Type:      e.Type,
		Timestamp: e.Time,
		Name:      e.Record.Name,
		Site:      e.Record.LaunchSite,
		Owner:     e.Record.Owner,
		Date:      e.Record.Date,
	}

	switch e.Type {
	case sequencer.EventLaunched:
		m.result.Launched++
		m.lastLaunch = e.Record.Name
	case sequencer.EventSkipped:
		m.result.Skipped++
		entry.Detail = "site not found"
	case sequencer.EventFailed:
		m.result.Failed++
		m.lastError = e.Err
		if e.Err != nil {
			entry.Detail = e.Err.Error()
		}
	}

	m.addEvent(entry)
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Started     time.Time
	Finished    time.Time
	Total       int
	Processed   int
	Result      sequencer.Result
	Done        bool
	CurrentDate time.Time
	LastLaunch  string
	LastError   error
	Events      []Event
}

// Progress returns the processed fraction in [0, 1].
func (s Snapshot) Progress() float64 {
	if s.Total == 0 {
		if s.Done {
			return 1
		}
		return 0
	}
	return float64(s.Processed) / float64(s.Total)
}

// Elapsed returns the run time so far, or the full run time once done.
func (s Snapshot) Elapsed() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	if s.Done {
		return s.Finished.Sub(s.Started)
	}
	return time.Since(s.Started)
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Started:     m.started,
		Finished:    m.finished,
		Total:       m.total,
		Processed:   m.index,
		Result:      m.result,
		Done:        m.done,
		CurrentDate: m.currentDate,
		LastLaunch:  m.lastLaunch,
		LastError:   m.lastError,
		Events:      m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Done reports whether the sequencer has finished.
func (m *Manager) Done() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done
}
