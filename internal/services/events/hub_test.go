package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nivesh/internal/models"
	"github.com/bobmcallan/nivesh/internal/services/universe"
)

func fund(code string, updated time.Time) models.MutualFund {
	f := models.MutualFund{SchemeCode: code, Name: "Fund " + code, Returns: models.FundReturns{}}
	if !updated.IsZero() {
		f.Live = &models.FundLive{LastUpdated: updated}
	}
	return f
}

func TestDiff(t *testing.T) {
	t0 := time.Date(2025, 1, 31, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(15 * time.Minute)

	prev := universe.Snapshot{Generation: 1, SyncedAt: t0, Funds: []models.MutualFund{fund("A", t0), fund("B", t0)}}

	next := universe.Snapshot{Generation: 2, SyncedAt: t1, Funds: []models.MutualFund{fund("A", t1), fund("B", t0)}}
	ev := Diff(prev, next)
	assert.Equal(t, EventSync, ev.Type)
	assert.Equal(t, uint64(2), ev.Generation)
	assert.Equal(t, []string{"A"}, ev.Changed)

	added := universe.Snapshot{Generation: 2, SyncedAt: t0, Funds: append(prev.Funds, fund("C", t1))}
	ev = Diff(prev, added)
	assert.Equal(t, EventUpdate, ev.Type)
	assert.Equal(t, []string{"C"}, ev.Changed)
	assert.Equal(t, 3, ev.Funds)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.UniverseEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev models.UniverseEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestHub_StreamsPublishes(t *testing.T) {
	store := universe.NewStore([]models.MutualFund{fund("A", time.Time{})}, nil)
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.Watch(ctx, store)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, store.Snapshot())
	}))
	defer srv.Close()

	conn := dial(t, srv)
	first := readEvent(t, conn)
	assert.Equal(t, EventSnapshot, first.Type)
	assert.Equal(t, 1, first.Funds)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	store.Upsert(fund("B", time.Now()))
	ev := readEvent(t, conn)
	assert.Equal(t, EventUpdate, ev.Type)
	assert.Equal(t, uint64(1), ev.Generation)
	assert.Equal(t, []string{"B"}, ev.Changed)
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, universe.Snapshot{})
	}))
	defer srv.Close()

	conn := dial(t, srv)
	readEvent(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()
	hub.Stop()
	hub.Stop()
	hub.Broadcast(models.UniverseEvent{Type: EventSync})
}
