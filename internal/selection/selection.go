// Package selection owns the active conversation selection. The
// snapshot is replaced atomically as a whole, so readers never observe
// a new creator paired with an old fan, and every async result can be
// checked for staleness against the generation it was started under.
package selection

import (
	"errors"
	"sync"
)

// ErrNoCreator is returned when a fan is selected without a creator.
var ErrNoCreator = errors.New("no creator selected")

// Snapshot is an immutable view of the active selection.
type Snapshot struct {
	CreatorID string
	FanID     string

	// Gen increases on every transition. An async result taken under
	// generation g must be discarded unless Still(g) holds at apply
	// time.
	Gen uint64
}

// HasCreator reports whether a creator is selected.
func (s Snapshot) HasCreator() bool { return s.CreatorID != "" }

// HasConversation reports whether a full (creator, fan) pair is selected.
func (s Snapshot) HasConversation() bool { return s.CreatorID != "" && s.FanID != "" }

// State is the single owner of selection transitions.
type State struct {
	mu  sync.Mutex
	cur Snapshot
}

// NewState creates an empty selection.
func NewState() *State {
	return &State{}
}

// Snapshot returns the current selection.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// SelectCreator activates a creator and clears any fan selection.
// Selecting the already-active creator is a no-op.
func (s *State) SelectCreator(creatorID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if creatorID == s.cur.CreatorID {
		return s.cur
	}
	s.cur = Snapshot{CreatorID: creatorID, Gen: s.cur.Gen + 1}
	return s.cur
}

// SelectFan activates a fan thread under the current creator.
// Selecting the already-active fan is a no-op.
func (s *State) SelectFan(fanID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.CreatorID == "" {
		return s.cur, ErrNoCreator
	}
	if fanID == s.cur.FanID {
		return s.cur, nil
	}
	s.cur = Snapshot{CreatorID: s.cur.CreatorID, FanID: fanID, Gen: s.cur.Gen + 1}
	return s.cur, nil
}

// ClearFan deselects the fan, keeping the creator.
func (s *State) ClearFan() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.FanID == "" {
		return s.cur
	}
	s.cur = Snapshot{CreatorID: s.cur.CreatorID, Gen: s.cur.Gen + 1}
	return s.cur
}

// Clear deselects everything.
func (s *State) Clear() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.CreatorID == "" && s.cur.FanID == "" {
		return s.cur
	}
	s.cur = Snapshot{Gen: s.cur.Gen + 1}
	return s.cur
}

// Still reports whether the given generation is still the active one.
func (s *State) Still(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Gen == gen
}

// StillCreator reports whether the given creator is still selected.
// Fan transitions under the same creator do not invalidate it, so
// creator-scoped work (the roster) survives fan switches.
func (s *State) StillCreator(creatorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.CreatorID == creatorID
}
