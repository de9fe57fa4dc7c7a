// FILE: clock.go
package auditfile

import (
	"time"
)

// NextRotationTime returns the first interval-aligned boundary strictly
// after now. Alignment is computed in now's local wall clock, so workers
// in the same zone evaluating near the same instant converge on one
// boundary. interval must be positive; Config.Validate rejects zero
// before it can reach this function.
func NextRotationTime(now time.Time, interval time.Duration) time.Time {
	_, offset := now.Zone()
	sec := int64(interval / time.Second)

	// Shift into local wall-clock seconds, floor to the boundary, step
	// one interval forward, shift back.
	local := now.Unix() + int64(offset)
	local -= local % sec
	local += sec

	return time.Unix(local-int64(offset), 0).In(now.Location())
}

// WindowStart returns the start of the rotation window that ends at the
// given boundary. The filename of the currently-open file is derived from
// this value, not from the upcoming boundary.
func WindowStart(nextBoundary time.Time, interval time.Duration) time.Time {
	return nextBoundary.Add(-interval)
}
