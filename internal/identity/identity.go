package identity

import (
	"errors"

	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

// ErrUnknownClient is returned when no display name is known for a client id.
var ErrUnknownClient = errors.New("identity: unknown client")

// Resolver maps a client id to a human-readable display name.
type Resolver interface {
	// DisplayName returns the display name for the client, or
	// ErrUnknownClient if the client is not known to the resolver.
	DisplayName(c playback.ClientID) (string, error)
}

// Static is a fixed in-memory resolver, useful for tests and as a fallback
// when no registry service is configured.
type Static map[playback.ClientID]string

// DisplayName returns the mapped name or ErrUnknownClient.
func (s Static) DisplayName(c playback.ClientID) (string, error) {
	name, ok := s[c]
	if !ok {
		return "", ErrUnknownClient
	}
	return name, nil
}
