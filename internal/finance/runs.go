package finance

import "sync"

// Sequencer hands out monotonic tickets so a session renders only its newest run.
// A run that finishes after a later one has started is stale.
type Sequencer struct {
	mu        sync.Mutex
	latest    uint64
	committed uint64
}

// Begin starts a run and returns its ticket.
func (s *Sequencer) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// Commit marks ticket as rendered and calls fn, both only if ticket is still the newest run.
// It returns false for stale tickets.
func (s *Sequencer) Commit(ticket uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.latest || ticket <= s.committed {
		return false
	}
	s.committed = ticket
	if fn != nil {
		fn()
	}
	return true
}

// Latest returns the newest ticket handed out.
func (s *Sequencer) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}
