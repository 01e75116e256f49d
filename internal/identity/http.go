package identity

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/sling"

	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

const resolveTimeout = 5 * time.Second

// HTTPResolver looks up display names against the registry service's REST
// endpoint: GET <base>/clients/<id> returning {"name": "..."}.
type HTTPResolver struct {
	base *sling.Sling
}

// NewHTTPResolver creates a resolver for the given base URL. The URL must end
// with a slash for relative paths to resolve correctly; one is appended if
// missing.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	if baseURL != "" && baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}
	return &HTTPResolver{
		base: sling.New().
			Base(baseURL).
			Client(&http.Client{Timeout: resolveTimeout}),
	}
}

// clientRecord is the registry service's lookup response.
type clientRecord struct {
	Name string `json:"name"`
}

// DisplayName fetches the client's display name. A 404 from the registry maps
// to ErrUnknownClient; any other non-2xx status is an error.
func (r *HTTPResolver) DisplayName(c playback.ClientID) (string, error) {
	record := new(clientRecord)

	resp, err := r.base.New().
		Get(fmt.Sprintf("clients/%d", c)).
		ReceiveSuccess(record)
	if err != nil {
		return "", fmt.Errorf("resolving client %d: %w", c, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrUnknownClient
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("resolving client %d: unexpected status %d", c, resp.StatusCode)
	}

	return record.Name, nil
}
