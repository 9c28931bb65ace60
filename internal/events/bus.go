package events

import (
	"sync"

	"github.com/charleschow/match-features/internal/telemetry"
)

// Handler processes an event. Returning an error logs it but does not stop dispatch.
type Handler func(Event) error

type subscription struct {
	league string // empty matches every league
	h      Handler
}

// Bus fans run and fixture events out to in-process subscribers, in
// registration order, on the publisher's goroutine. Slow consumers (the
// websocket fanout, Discord) queue on their own goroutines.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]subscription)}
}

// Subscribe registers h for every league's events of type t.
func (b *Bus) Subscribe(t EventType, h Handler) {
	b.SubscribeLeague(t, "", h)
}

// SubscribeLeague registers h for events of type t published for one league.
func (b *Bus) SubscribeLeague(t EventType, league string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], subscription{league: league, h: h})
}

// Handlers reports how many subscribers would receive an event of type t for league.
func (b *Bus) Handlers(t EventType, league string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, s := range b.subs[t] {
		if s.league == "" || s.league == league {
			n++
		}
	}
	return n
}

// Publish dispatches e to the matching subscribers and returns how many of
// them failed.
func (b *Bus) Publish(e Event) int {
	b.mu.RLock()
	subs := b.subs[e.Type]
	b.mu.RUnlock()

	failed := 0
	for _, s := range subs {
		if s.league != "" && s.league != e.League {
			continue
		}
		if err := s.h(e); err != nil {
			failed++
			telemetry.Metrics.HandlerErrors.Inc()
			telemetry.Warnf("bus: %s/%s handler: %v", e.League, e.Type, err)
		}
	}
	return failed
}
