package upstream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

type capturedSnapshot struct {
	players []playback.PlayerConfig
	flush   bool
}

type captureCallback struct {
	snapshots chan capturedSnapshot
}

func newCaptureCallback() *captureCallback {
	return &captureCallback{snapshots: make(chan capturedSnapshot, 8)}
}

func (c *captureCallback) ApplySnapshot(players []playback.PlayerConfig, flush bool) {
	c.snapshots <- capturedSnapshot{players: players, flush: flush}
}

func (c *captureCallback) next(t *testing.T) capturedSnapshot {
	t.Helper()
	select {
	case s := <-c.snapshots:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return capturedSnapshot{}
	}
}

// playbackServer is a scripted stand-in for the playback service.
type playbackServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	conns    atomic.Int64
	script   func(conn *websocket.Conn, nth int64)
}

func (s *playbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("upgrade: %v", err)
		return
	}
	nth := s.conns.Add(1)

	// Every connection starts with the subscribe handshake.
	var msg message
	if err := conn.ReadJSON(&msg); err != nil {
		s.t.Errorf("reading subscribe: %v", err)
		return
	}
	if msg.Type != typeSubscribe {
		s.t.Errorf("first message type = %q, want %q", msg.Type, typeSubscribe)
	}

	s.script(conn, nth)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSocket_DeliversSnapshots(t *testing.T) {
	server := &playbackServer{t: t}
	server.script = func(conn *websocket.Conn, _ int64) {
		conn.WriteJSON(message{
			Type:  typeSnapshot,
			Flush: true,
			Players: []playback.PlayerConfig{
				{InterfaceID: 1, ClientID: 10, Active: true},
			},
		})
		// A non-snapshot message must be ignored, not break the loop.
		conn.WriteJSON(message{Type: "heartbeat"})
		conn.WriteJSON(message{
			Type: typeSnapshot,
			Players: []playback.PlayerConfig{
				{InterfaceID: 1, ClientID: 10, Active: false},
			},
		})
	}
	srv := httptest.NewServer(server)
	defer srv.Close()

	sock := NewSocket(wsURL(srv))
	defer sock.Close()

	cb := newCaptureCallback()
	if err := sock.RegisterPlaybackCallback(cb); err != nil {
		t.Fatalf("RegisterPlaybackCallback() error = %v", err)
	}

	first := cb.next(t)
	if !first.flush {
		t.Error("first snapshot flush = false, want true")
	}
	if len(first.players) != 1 || first.players[0].ClientID != 10 || !first.players[0].Active {
		t.Errorf("first snapshot players = %+v", first.players)
	}

	second := cb.next(t)
	if len(second.players) != 1 || second.players[0].Active {
		t.Errorf("second snapshot players = %+v", second.players)
	}
}

func TestSocket_RegisterIdempotent(t *testing.T) {
	server := &playbackServer{t: t}
	server.script = func(conn *websocket.Conn, _ int64) {
		// Hold the connection open.
		conn.ReadJSON(&message{})
	}
	srv := httptest.NewServer(server)
	defer srv.Close()

	sock := NewSocket(wsURL(srv))
	defer sock.Close()

	cb := newCaptureCallback()
	if err := sock.RegisterPlaybackCallback(cb); err != nil {
		t.Fatalf("first RegisterPlaybackCallback() error = %v", err)
	}
	if err := sock.RegisterPlaybackCallback(cb); err != nil {
		t.Fatalf("second RegisterPlaybackCallback() error = %v", err)
	}

	if got := server.conns.Load(); got != 1 {
		t.Errorf("connections = %d, want 1", got)
	}
}

func TestSocket_InitialDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	sock := NewSocket(url)
	defer sock.Close()

	if err := sock.RegisterPlaybackCallback(newCaptureCallback()); err == nil {
		t.Error("RegisterPlaybackCallback() error = nil, want dial error")
	}
}

func TestSocket_ReconnectsAfterDrop(t *testing.T) {
	server := &playbackServer{t: t}
	server.script = func(conn *websocket.Conn, nth int64) {
		if nth == 1 {
			// Drop the first connection immediately after the handshake.
			conn.Close()
			return
		}
		conn.WriteJSON(message{
			Type: typeSnapshot,
			Players: []playback.PlayerConfig{
				{InterfaceID: 2, ClientID: 20, Active: true},
			},
		})
	}
	srv := httptest.NewServer(server)
	defer srv.Close()

	sock := NewSocket(wsURL(srv))
	defer sock.Close()

	cb := newCaptureCallback()
	if err := sock.RegisterPlaybackCallback(cb); err != nil {
		t.Fatalf("RegisterPlaybackCallback() error = %v", err)
	}

	got := cb.next(t)
	if len(got.players) != 1 || got.players[0].ClientID != 20 {
		t.Errorf("snapshot after reconnect = %+v", got.players)
	}
	if server.conns.Load() < 2 {
		t.Errorf("connections = %d, want at least 2", server.conns.Load())
	}
}
