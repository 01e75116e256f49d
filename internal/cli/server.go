package cli

import (
	"encoding/json"
	"net/http"

	"github.com/pfrederiksen/playback-monitor/internal/identity"
	"github.com/pfrederiksen/playback-monitor/internal/logger"
	"github.com/pfrederiksen/playback-monitor/internal/monitor"
	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

// diagServer exposes the monitor's state for operator tooling.
type diagServer struct {
	mon      *monitor.Monitor
	resolver identity.Resolver
}

func newDiagServer(mon *monitor.Monitor, resolver identity.Resolver) *diagServer {
	return &diagServer{mon: mon, resolver: resolver}
}

func (s *diagServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	return mux
}

// clientState is one entry of the diagnostic state listing.
type clientState struct {
	ClientID playback.ClientID `json:"client_id"`
	Name     string            `json:"name,omitempty"`
	Active   bool              `json:"active"`
}

// stateResponse lists clients most recently activated first.
type stateResponse struct {
	Clients []clientState `json:"clients"`
}

// handleState returns the recency-ordered client list. The default format is
// JSON; format=text returns the plain dump.
func (s *diagServer) handleState(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.mon.Dump(w, s.resolver, "")
		return
	}

	active := s.mon.ActiveClients()
	resp := stateResponse{Clients: []clientState{}}
	for _, c := range s.mon.OrderedClients() {
		entry := clientState{ClientID: c}
		if _, ok := active[c]; ok {
			entry.Active = true
		}
		if name, err := s.resolver.DisplayName(c); err == nil {
			entry.Name = name
		}
		resp.Clients = append(resp.Clients, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		logger.Error("writing state response", nil, err)
	}
}

// handleMetrics returns the daemon's operational counters.
func (s *diagServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(logger.GetMetricsSnapshot()); err != nil {
		logger.Error("writing metrics response", nil, err)
	}
}
