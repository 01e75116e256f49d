package monitor

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/pfrederiksen/playback-monitor/internal/dispatch"
	"github.com/pfrederiksen/playback-monitor/internal/identity"
	"github.com/pfrederiksen/playback-monitor/internal/logger"
	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

// Listener receives player active-state transitions.
type Listener interface {
	// ActiveStateChanged is called when one player's active state changed
	// between consecutive snapshots. If removed is true, the player vanished
	// from the snapshot entirely and cfg holds its last known (now outdated)
	// state.
	ActiveStateChanged(cfg playback.PlayerConfig, removed bool)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(cfg playback.PlayerConfig, removed bool)

// ActiveStateChanged calls f.
func (f ListenerFunc) ActiveStateChanged(cfg playback.PlayerConfig, removed bool) {
	f(cfg, removed)
}

// Subscription is the handle returned by Register, used to unregister.
type Subscription struct {
	id uuid.UUID
}

// ID returns the subscription's unique id, for logging.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

type subscriber struct {
	listener Listener
	queue    *dispatch.Queue
}

// PlaybackService is the upstream source of playback snapshots. The real
// transport lives at the edge of the program; the monitor only needs the
// registration call.
type PlaybackService interface {
	// RegisterPlaybackCallback subscribes cb to snapshot deliveries. It must
	// not invoke cb synchronously: the monitor calls it while holding its
	// lock.
	RegisterPlaybackCallback(cb Callback) error
}

// Callback receives complete playback snapshots from the service.
// *Monitor implements it.
type Callback interface {
	ApplySnapshot(configs []playback.PlayerConfig, flushPending bool)
}

// Monitor tracks which audio players are active, keeps clients ordered by
// most recent activation, and fans state transitions out to listeners.
//
// One mutex guards the state store, the subscription map, and the upstream
// registration flag. The lock is held only for bookkeeping; listener
// callbacks run on their subscriptions' own goroutines.
type Monitor struct {
	mu    sync.Mutex
	store *store
	subs  map[uuid.UUID]*subscriber

	registered bool
	flush      func()
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithFlushFunc installs a hook invoked before a snapshot carrying the
// flush-pending flag is applied. The transport uses it to settle in-flight
// writes from the snapshot's origin so the snapshot can be treated as
// authoritative.
func WithFlushFunc(f func()) Option {
	return func(m *Monitor) {
		m.flush = f
	}
}

// New creates an empty Monitor. It lives for the process lifetime; there is
// no teardown path.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		store: newStore(),
		subs:  make(map[uuid.UUID]*subscriber),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplySnapshot applies one complete batch of player configurations.
//
// It rebuilds the active-client set, promotes clients with freshly activated
// players to the head of the recency order, and posts a transition event for
// every player whose active state differs from the previous snapshot
// (including players that disappeared outright, reported with removed=true).
//
// ApplySnapshot is safe to call repeatedly with overlapping or identical
// configurations, but must not be re-entered concurrently with itself; the
// transport serializes deliveries.
func (m *Monitor) ApplySnapshot(configs []playback.PlayerConfig, flushPending bool) {
	if flushPending && m.flush != nil {
		m.flush()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Rebuild the active set and index active players by interface id.
	// Duplicate interface ids within one snapshot: last write wins.
	currentActive := make(map[playback.InterfaceID]playback.PlayerConfig)
	activeClients := make(map[playback.ClientID]struct{})
	for _, cfg := range configs {
		if cfg.Active {
			currentActive[cfg.InterfaceID] = cfg
			activeClients[cfg.ClientID] = struct{}{}
		}
	}
	m.store.active = activeClients

	// Promotion pass, in delivered order. Only a player instance that was
	// not active in the previous snapshot moves its client to the head; a
	// player that merely stays active never reorders, however many players
	// its client owns. Reactivating after going inactive promotes again.
	promoted := make(map[playback.InterfaceID]struct{})
	for _, delivered := range configs {
		cfg, ok := currentActive[delivered.InterfaceID]
		if !ok {
			continue
		}
		if _, done := promoted[cfg.InterfaceID]; done {
			continue
		}
		promoted[cfg.InterfaceID] = struct{}{}
		if _, wasActive := m.store.prevActive[cfg.InterfaceID]; wasActive {
			continue
		}
		logger.Debug("new active playback", logger.Fields{
			"player": cfg.String(),
		})
		m.store.promote(cfg.ClientID)
	}

	// Transition pass: compare every player against the previous snapshot,
	// consuming the previous map as we go.
	prev := m.store.prevActive
	for _, cfg := range configs {
		_, wasActive := prev[cfg.InterfaceID]
		delete(prev, cfg.InterfaceID)
		if wasActive != cfg.Active {
			m.postLocked(cfg, false)
		}
	}

	// Anything left was active last time and is absent from this snapshot.
	for _, stale := range prev {
		m.postLocked(stale, true)
	}

	m.store.prevActive = currentActive
	logger.IncrCounter("monitor.snapshots")
}

// postLocked enqueues one transition event to every current subscription.
// Callers hold m.mu; Enqueue never blocks, so the lock is never held across a
// listener callback.
func (m *Monitor) postLocked(cfg playback.PlayerConfig, removed bool) {
	for _, sub := range m.subs {
		listener := sub.listener
		sub.queue.Enqueue(func() {
			listener.ActiveStateChanged(cfg, removed)
		})
	}
	logger.IncrCounter("monitor.transitions")
}

// Register subscribes a listener to player state transitions. Deliveries to
// the listener are strictly ordered and run on a dedicated goroutine.
func (m *Monitor) Register(l Listener) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	m.subs[id] = &subscriber{
		listener: l,
		queue:    dispatch.NewQueue(),
	}
	return &Subscription{id: id}
}

// Unregister stops future delivery to the subscription immediately. Events
// already enqueued before the call may still be delivered; the subscription's
// queue is drained, not discarded.
func (m *Monitor) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.subs[sub.id]
	if !ok {
		return
	}
	delete(m.subs, sub.id)
	s.queue.Close()
}

// IsActive reports whether the client had at least one active player in the
// most recent snapshot.
func (m *Monitor) IsActive(c playback.ClientID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.isActive(c)
}

// OrderedClients returns the clients that have produced audio, most recently
// activated first. The returned slice is a copy.
func (m *Monitor) OrderedClients() []playback.ClientID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.orderedClients()
}

// ActiveClients returns a copy of the set of clients with at least one active
// player in the latest snapshot.
func (m *Monitor) ActiveClients() map[playback.ClientID]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.activeSet()
}

// CleanUp discards clients that can no longer become the most recent
// producer ahead of the anchor: walking the recency order tail first,
// currently inactive clients in the anchor's session domain are removed until
// the anchor itself is reached. The anchor and anything more recent are left
// untouched. This only bounds the list's growth; it never affects ordering of
// the remaining entries.
func (m *Monitor) CleanUp(anchor playback.ClientID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.pruneBelow(anchor, func(c playback.ClientID) bool {
		return c.SamePartition(anchor) && !m.store.isActive(c)
	})
}

// EnsureRegistered registers the monitor with the playback service once.
// A failure is logged and leaves the monitor unregistered so that the next
// call tries again; there is no background retry.
func (m *Monitor) EnsureRegistered(svc PlaybackService) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return
	}
	if err := svc.RegisterPlaybackCallback(m); err != nil {
		logger.Error("registering playback callback", nil, err)
		m.registered = false
		return
	}
	m.registered = true
}

// Registered reports whether the monitor is currently registered with the
// playback service.
func (m *Monitor) Registered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered
}

// Dump writes the recency-ordered client list for operator tooling, most
// recent first, resolving display names through r. Unresolvable clients are
// printed without a name.
func (m *Monitor) Dump(w io.Writer, r identity.Resolver, prefix string) {
	for _, c := range m.OrderedClients() {
		name, err := r.DisplayName(c)
		if err != nil {
			fmt.Fprintf(w, "%sclient=%d\n", prefix, c)
			continue
		}
		fmt.Fprintf(w, "%sclient=%d name=%s\n", prefix, c, name)
	}
}
