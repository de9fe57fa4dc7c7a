// FILE: state.go
package auditfile

import (
	"sync"
	"sync/atomic"
)

// RotationState is the only mutable state shared between workers: a
// force-rotation flag guarded by a mutex. It is a level-triggered
// broadcast, not a notification channel; a worker idle across several
// configuration changes simply observes the latest state on its next
// write.
type RotationState struct {
	mu            sync.Mutex
	forceRotation bool
}

// RequestRotation demands rotation before the next scheduled boundary.
// Called by the configuration layer when directory, filename pattern, or
// rotation interval change. Setting an already-set flag is a no-op.
func (s *RotationState) RequestRotation() {
	s.mu.Lock()
	s.forceRotation = true
	s.mu.Unlock()
}

// ConsumeForceFlag atomically observes and clears the flag, returning
// whether it had been set. Exactly one of any number of racing workers
// sees true per request; the others fall through to the time and filename
// checks, which make duplicate or missed consumption harmless.
func (s *RotationState) ConsumeForceFlag() bool {
	s.mu.Lock()
	set := s.forceRotation
	s.forceRotation = false
	s.mu.Unlock()
	return set
}

// counters aggregates interceptor statistics across all workers.
type counters struct {
	RecordsWritten atomic.Uint64
	Rotations      atomic.Uint64
	Fallbacks      atomic.Uint64
	OpenFailures   atomic.Uint64
}

// Stats is a point-in-time snapshot of interceptor activity.
type Stats struct {
	RecordsWritten uint64
	Rotations      uint64
	Fallbacks      uint64
	OpenFailures   uint64
}
