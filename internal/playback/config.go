package playback

import (
	"encoding/json"
	"fmt"
)

// partitionSpan is the size of one client-id block. Every session domain
// allocates its client ids inside a single block, so integer division
// recovers the domain.
const partitionSpan = 100000

// InterfaceID identifies a single player instance within one snapshot.
// A client that opens several players gets a distinct interface id per player.
type InterfaceID int32

// ClientID identifies the client application owning one or more players.
// Multiple concurrent players may share a ClientID.
type ClientID int32

// Partition returns the session domain the client belongs to.
func (c ClientID) Partition() int32 {
	return int32(c) / partitionSpan
}

// SamePartition reports whether both clients belong to the same session domain.
func (c ClientID) SamePartition(other ClientID) bool {
	return c.Partition() == other.Partition()
}

// PlayerConfig describes one player's identity and active state as reported
// by the playback service in a snapshot. Payload is opaque: it is carried
// through to listeners unmodified and never inspected by the monitor.
type PlayerConfig struct {
	InterfaceID InterfaceID     `json:"interface_id"`
	ClientID    ClientID        `json:"client_id"`
	Active      bool            `json:"active"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// String returns a log-friendly one-line description of the config.
func (c PlayerConfig) String() string {
	return fmt.Sprintf("player{interface=%d client=%d active=%t}", c.InterfaceID, c.ClientID, c.Active)
}
