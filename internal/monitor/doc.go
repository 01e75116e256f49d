// Package monitor tracks the active state of audio players across snapshots
// delivered by the playback service.
//
// The monitor keeps three pieces of durable state under a single mutex: the
// set of clients with at least one active player, the map of players that
// were active in the previous snapshot, and a deduplicated list of clients
// ordered by most recent activation. Consumers query the ordered list to
// decide which client should receive hardware media-button events and
// register listeners to react to individual players starting or stopping.
//
// Snapshot application never blocks on a listener: every subscription owns a
// private FIFO queue and processes its deliveries on its own goroutine.
package monitor
