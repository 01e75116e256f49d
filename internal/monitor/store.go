package monitor

import (
	"github.com/pfrederiksen/playback-monitor/internal/playback"
)

// store holds the cross-snapshot playback state. It is plain data with
// invariant-preserving mutators; the Monitor's mutex serializes every access.
//
// order is a slice with linear search and remove. Distinct concurrently
// relevant clients number in the single digits in practice, so O(n) per
// promotion beats the bookkeeping of anything fancier.
type store struct {
	// active holds every client with at least one active player in the
	// latest snapshot. Rebuilt wholesale on each application.
	active map[playback.ClientID]struct{}

	// prevActive maps interface id to config for exactly the players that
	// were active in the previous snapshot.
	prevActive map[playback.InterfaceID]playback.PlayerConfig

	// order lists clients by most recent fresh activation, head first.
	// Never contains duplicates. Inactive clients stay until pruned.
	order []playback.ClientID
}

func newStore() *store {
	return &store{
		active:     make(map[playback.ClientID]struct{}),
		prevActive: make(map[playback.InterfaceID]playback.PlayerConfig),
	}
}

func (s *store) isActive(c playback.ClientID) bool {
	_, ok := s.active[c]
	return ok
}

// activeSet returns a copy of the active-client set.
func (s *store) activeSet() map[playback.ClientID]struct{} {
	cp := make(map[playback.ClientID]struct{}, len(s.active))
	for c := range s.active {
		cp[c] = struct{}{}
	}
	return cp
}

// orderedClients returns a copy of the recency order, head first.
func (s *store) orderedClients() []playback.ClientID {
	cp := make([]playback.ClientID, len(s.order))
	copy(cp, s.order)
	return cp
}

// promote moves c to the head of the recency order. A client already at the
// head is left alone; anywhere else it is removed first, so the order never
// grows a duplicate.
func (s *store) promote(c playback.ClientID) {
	idx := -1
	for i, existing := range s.order {
		if existing == c {
			idx = i
			break
		}
	}
	if idx == 0 {
		// Already the most recent client.
		return
	}
	if idx > 0 {
		s.order = append(s.order[:idx], s.order[idx+1:]...)
	}
	s.order = append([]playback.ClientID{c}, s.order...)
}

// pruneBelow walks the recency order tail first and removes entries for which
// remove reports true, stopping permanently once anchor is encountered.
// The anchor and anything more recent are never inspected.
func (s *store) pruneBelow(anchor playback.ClientID, remove func(playback.ClientID) bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i] == anchor {
			break
		}
		if remove(s.order[i]) {
			s.order = append(s.order[:i], s.order[i+1:]...)
		}
	}
}
