package jitchannel

import "sync"

// Store is the per-LSP JIT channel table (component B): a fixed-capacity
// array of slots indexed directly by client_idx, one JIT channel record
// per client. At most one non-CLOSED JIT channel exists per client_idx at
// any time.
type Store struct {
	mu sync.Mutex

	slots      []*JITChannel
	jitEnabled bool
}

// NewStore allocates a Store with room for capacity clients and marks it
// enabled, the combined effect of the source's init(mgr).
func NewStore(capacity int) (*Store, error) {
	if capacity <= 0 {
		return nil, ErrOutOfMemory
	}
	return &Store{
		slots:      make([]*JITChannel, capacity),
		jitEnabled: true,
	}, nil
}

// Enabled reports whether the store is accepting new JIT channels.
func (s *Store) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jitEnabled
}

// SetEnabled toggles whether new JIT channels may be created. Existing
// channels are unaffected.
func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jitEnabled = enabled
}

// Find returns the unique non-CLOSED JIT channel for clientIdx, if any.
func (s *Store) Find(clientIdx uint64) (*JITChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(clientIdx)
}

func (s *Store) find(clientIdx uint64) (*JITChannel, bool) {
	if clientIdx >= uint64(len(s.slots)) {
		return nil, false
	}
	jit := s.slots[clientIdx]
	if jit == nil || jit.State == StateClosed {
		return nil, false
	}
	return jit, true
}

// IsActive reports whether clientIdx's JIT channel, if any, is in state
// OPEN or MIGRATING.
func (s *Store) IsActive(clientIdx uint64) bool {
	jit, ok := s.Find(clientIdx)
	if !ok {
		return false
	}
	return jit.State == StateOpen || jit.State == StateMigrating
}

// Allocate reserves a fresh NONE-state slot for clientIdx, the precondition
// check of the state machine's "create" transition: state == NONE and no
// active JIT exists for this client. It fails with ErrJITAlreadyActive if a
// non-CLOSED record already occupies the slot.
func (s *Store) Allocate(clientIdx uint64) (*JITChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clientIdx >= uint64(len(s.slots)) {
		return nil, ErrNoSuchClient
	}
	if !s.jitEnabled {
		return nil, ErrHandshakeFailed
	}
	if existing := s.slots[clientIdx]; existing != nil && existing.State != StateClosed {
		return nil, ErrJITAlreadyActive
	}

	jit := &JITChannel{
		JITChannelID: JITChannelID(clientIdx),
		ClientIdx:    clientIdx,
		State:        StateNone,
	}
	s.slots[clientIdx] = jit
	return jit, nil
}

// Release discards the slot for clientIdx entirely (as opposed to
// transitioning it to CLOSED), used when a handshake fails partway through
// and the source's "state stays NONE and the slot is released" contract
// applies.
func (s *Store) Release(clientIdx uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clientIdx < uint64(len(s.slots)) {
		s.slots[clientIdx] = nil
	}
}

// All returns every non-nil JIT channel record, in client_idx order.
func (s *Store) All() []*JITChannel {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*JITChannel, 0, len(s.slots))
	for _, jit := range s.slots {
		if jit != nil {
			out = append(out, jit)
		}
	}
	return out
}

// InFunding returns every JIT channel currently in state FUNDING, used by
// the confirmation watcher (component E).
func (s *Store) InFunding() []*JITChannel {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*JITChannel
	for _, jit := range s.slots {
		if jit != nil && jit.State == StateFunding {
			out = append(out, jit)
		}
	}
	return out
}

// Cleanup releases the slot array. It is idempotent; after Cleanup, Find
// returns none for every client.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		s.slots[i] = nil
	}
	s.jitEnabled = false
}

// Restore reinserts a JIT channel record loaded from persistence into its
// client's slot, used during daemon startup reload.
func (s *Store) Restore(jit *JITChannel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if jit.ClientIdx >= uint64(len(s.slots)) {
		return ErrNoSuchClient
	}
	s.slots[jit.ClientIdx] = jit
	return nil
}
