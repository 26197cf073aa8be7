package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// TestEventIndex_Upsert tests insert and refresh
func TestEventIndex_Upsert(t *testing.T) {
	idx := NewEventIndex()

	idx.Upsert(models.Event{ID: "event-1", HomeTeam: "Team A", AwayTeam: "Team B", Status: models.EventUpcoming})
	assert.Equal(t, 1, idx.Len())

	ev, ok := idx.Get("event-1")
	assert.True(t, ok)
	assert.Equal(t, "Team A vs Team B", ev.Name())
	assert.False(t, ev.UpdatedAt.IsZero())
}

// TestEventIndex_LiveStatusWins tests that a fixtures poll cannot demote a
// live event back to upcoming
func TestEventIndex_LiveStatusWins(t *testing.T) {
	idx := NewEventIndex()

	idx.Upsert(models.Event{ID: "event-1", Status: models.EventLive})
	idx.Upsert(models.Event{ID: "event-1", Status: models.EventUpcoming})

	ev, ok := idx.Get("event-1")
	assert.True(t, ok)
	assert.Equal(t, models.EventLive, ev.Status)

	// Finished always applies.
	idx.Upsert(models.Event{ID: "event-1", Status: models.EventFinished})
	ev, _ = idx.Get("event-1")
	assert.Equal(t, models.EventFinished, ev.Status)
}

// TestEventIndex_ListSorted tests ordering by commence time
func TestEventIndex_ListSorted(t *testing.T) {
	idx := NewEventIndex()

	base := time.Now().UTC()
	idx.UpsertBatch([]models.Event{
		{ID: "late", CommenceTime: base.Add(2 * time.Hour)},
		{ID: "early", CommenceTime: base},
		{ID: "mid", CommenceTime: base.Add(time.Hour)},
	})

	events := idx.List()
	assert.Len(t, events, 3)
	assert.Equal(t, "early", events[0].ID)
	assert.Equal(t, "mid", events[1].ID)
	assert.Equal(t, "late", events[2].ID)
}
