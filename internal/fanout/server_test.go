package fanout

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/match-features/internal/events"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, s *Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestServerForwardsByLeague(t *testing.T) {
	bus := events.NewBus()
	s := NewServer(bus)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	all := dial(t, srv, "")
	laliga := dial(t, srv, "?league=SP1")
	waitClients(t, s, 2)

	bus.Publish(events.New(events.EventValueBet, "E0", events.FixtureScoredEvent{
		HomeTeam: "Arsenal", AwayTeam: "Chelsea", Value: true, Pick: "H", Edge: 0.12,
	}))
	bus.Publish(events.New(events.EventRunCompleted, "SP1", events.RunCompletedEvent{League: "SP1", Rows: 380}))

	all.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := all.ReadMessage()
	require.NoError(t, err)
	evt, err := UnmarshalEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, events.EventValueBet, evt.Type)
	fs, ok := evt.Payload.(events.FixtureScoredEvent)
	require.True(t, ok)
	assert.Equal(t, "Arsenal", fs.HomeTeam)
	assert.InDelta(t, 0.12, fs.Edge, 1e-12)

	// The SP1 client skips the E0 value bet and sees only its own run.
	laliga.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = laliga.ReadMessage()
	require.NoError(t, err)
	evt, err = UnmarshalEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, events.EventRunCompleted, evt.Type)
	assert.Equal(t, 380, evt.Payload.(events.RunCompletedEvent).Rows)
}

func TestClientRepublishesOntoBus(t *testing.T) {
	upstream := events.NewBus()
	s := NewServer(upstream)
	srv := httptest.NewServer(s.routes())
	defer srv.Close()

	local := events.NewBus()
	got := make(chan events.Event, 1)
	local.Subscribe(events.EventFixtureScored, func(e events.Event) error {
		got <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewClient(strings.TrimPrefix(srv.URL, "http://"), "", local)
	go c.ConnectWithRetry(ctx)
	waitClients(t, s, 1)

	upstream.Publish(events.New(events.EventFixtureScored, "E0", events.FixtureScoredEvent{HomeID: "arsenal"}))

	select {
	case e := <-got:
		assert.Equal(t, "arsenal", e.Payload.(events.FixtureScoredEvent).HomeID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not republished")
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"nope","ts":"2024-01-01T00:00:00Z","payload":{}}`))
	assert.Error(t, err)
}
