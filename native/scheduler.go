package native

import (
	"sync"

	"github.com/nvemu/maxvk"
)

// Scheduler tracks host GPU submissions and satisfies the pipeline
// cache's drain requirement. Until command submission is wired to a real
// queue it counts tickets; Finish retires everything outstanding.
//
// Scheduler is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	pending uint64
	retired uint64
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Submit records one unit of submitted work and returns its ticket.
func (s *Scheduler) Submit() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	return s.retired + s.pending
}

// Pending returns the number of submissions not yet retired.
func (s *Scheduler) Pending() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Finish blocks until all submitted work has completed.
func (s *Scheduler) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == 0 {
		return
	}
	maxvk.Logger().Debug("scheduler finish", "pending", s.pending)
	s.retired += s.pending
	s.pending = 0
}
