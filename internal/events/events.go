// Package events defines the signals the ledger emits after a change commits.
package events

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	CompletionCreated = "completion_created"
	CompletionUndone  = "completion_undone"
	BalanceChanged    = "balance_changed"
	StreakUpdated     = "streak_updated"
)

// Event is a fire-and-forget notification. Type is derived from entity and
// action, e.g. "completion_created".
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Entity      string         `json:"entity"`
	Action      string         `json:"action"`
	HouseholdID int64          `json:"household_id"`
	MemberID    int64          `json:"member_id"`
	EntityID    int64          `json:"entity_id,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
	At          time.Time      `json:"at"`
}

// New builds an event that happened at at, normally the ledger clock's time
// of the change.
func New(entity, action string, householdID, memberID, entityID int64, extra map[string]any, at time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        fmt.Sprintf("%s_%s", entity, action),
		Entity:      entity,
		Action:      action,
		HouseholdID: householdID,
		MemberID:    memberID,
		EntityID:    entityID,
		Extra:       extra,
		At:          at.UTC(),
	}
}

// Collector keeps events in memory. It is safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Notify(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.events)
}

// Types returns the collected event types in order.
func (c *Collector) Types() []string {
	evs := c.Events()
	types := make([]string, len(evs))
	for i, e := range evs {
		types[i] = e.Type
	}
	return types
}
