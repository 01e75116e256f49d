package cli

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pfrederiksen/playback-monitor/internal/identity"
	"github.com/pfrederiksen/playback-monitor/internal/monitor"
	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

func testMonitor() *monitor.Monitor {
	m := monitor.New()
	m.ApplySnapshot([]playback.PlayerConfig{
		{InterfaceID: 1, ClientID: 10, Active: true},
	}, false)
	m.ApplySnapshot([]playback.PlayerConfig{
		{InterfaceID: 1, ClientID: 10, Active: false},
		{InterfaceID: 2, ClientID: 20, Active: true},
	}, false)
	// Order [20 10], only 20 active.
	return m
}

func TestDiagServer_State(t *testing.T) {
	resolver := identity.Static{20: "music-app"}
	srv := httptest.NewServer(newDiagServer(testMonitor(), resolver).routes())
	defer srv.Close()

	t.Run("json", func(t *testing.T) {
		resp, err := srv.Client().Get(srv.URL + "/state")
		if err != nil {
			t.Fatalf("GET /state error = %v", err)
		}
		defer resp.Body.Close()

		var got stateResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("decoding response: %v", err)
		}

		if len(got.Clients) != 2 {
			t.Fatalf("got %d clients, want 2", len(got.Clients))
		}
		head := got.Clients[0]
		if head.ClientID != 20 || !head.Active || head.Name != "music-app" {
			t.Errorf("head = %+v, want client 20 active named music-app", head)
		}
		tail := got.Clients[1]
		if tail.ClientID != 10 || tail.Active || tail.Name != "" {
			t.Errorf("tail = %+v, want inactive unnamed client 10", tail)
		}
	})

	t.Run("text via state subcommand helper", func(t *testing.T) {
		var sb strings.Builder
		if err := fetchState(&sb, strings.TrimPrefix(srv.URL, "http://"), "text"); err != nil {
			t.Fatalf("fetchState() error = %v", err)
		}

		want := "client=20 name=music-app\nclient=10\n"
		if sb.String() != want {
			t.Errorf("state text = %q, want %q", sb.String(), want)
		}
	})
}

func TestDiagServer_Metrics(t *testing.T) {
	srv := httptest.NewServer(newDiagServer(testMonitor(), identity.Static{}).routes())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	var counters map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&counters); err != nil {
		t.Fatalf("decoding metrics: %v", err)
	}

	if counters["monitor.snapshots"] < 2 {
		t.Errorf("monitor.snapshots = %d, want at least 2", counters["monitor.snapshots"])
	}
}
