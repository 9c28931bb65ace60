package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus.
// Every domain event (run finished, fixture scored, value bet) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	League    string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Feature builds
	EventRunCompleted EventType = "run_completed"
	// Fixture scoring
	EventFixtureScored EventType = "fixture_scored"
	EventValueBet      EventType = "value_bet"
)

// New wraps payload in an envelope with a fresh id and timestamp.
func New(t EventType, league string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		League:    league,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
