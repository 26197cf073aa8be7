package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// EventIndex tracks the fixtures reported by the fixture and odds providers.
type EventIndex struct {
	mu     sync.RWMutex
	events map[string]models.Event
}

// NewEventIndex creates an empty index.
func NewEventIndex() *EventIndex {
	return &EventIndex{events: make(map[string]models.Event)}
}

// Upsert inserts or refreshes a fixture. A live status always wins over
// upcoming so a fixtures poll cannot demote an event the odds feed saw live.
func (i *EventIndex) Upsert(event models.Event) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if existing, ok := i.events[event.ID]; ok {
		if existing.Status == models.EventLive && event.Status == models.EventUpcoming {
			event.Status = models.EventLive
		}
	}
	event.UpdatedAt = time.Now().UTC()
	i.events[event.ID] = event
}

// UpsertBatch inserts or refreshes a batch of fixtures.
func (i *EventIndex) UpsertBatch(events []models.Event) {
	for _, ev := range events {
		i.Upsert(ev)
	}
}

// Get returns a fixture by ID.
func (i *EventIndex) Get(id string) (models.Event, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	ev, ok := i.events[id]
	return ev, ok
}

// List returns all tracked fixtures ordered by commence time.
func (i *EventIndex) List() []models.Event {
	i.mu.RLock()
	defer i.mu.RUnlock()

	events := make([]models.Event, 0, len(i.events))
	for _, ev := range i.events {
		events = append(events, ev)
	}
	sort.Slice(events, func(a, b int) bool {
		return events[a].CommenceTime.Before(events[b].CommenceTime)
	})
	return events
}

// Len returns the number of tracked fixtures.
func (i *EventIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.events)
}
