package model

import "time"

// Attempt is one client-visible "try" within a job's lifetime, inferred from
// the server's retry counter. It exists purely for progress presentation.
type Attempt struct {
	Index     int
	StartedAt time.Time
}

// NextAttemptIndex maps a sampled retry counter onto a bounded attempt index.
// The result never drops below current and never exceeds maxAttempts, so
// duplicate or jittery reads cannot regress visible progress.
func NextAttemptIndex(current, retryCount, maxAttempts int) int {
	next := retryCount + 1
	if next > maxAttempts {
		next = maxAttempts
	}
	if next < current {
		next = current
	}
	return next
}

// Observe feeds a sampled retry counter into the attempt. It returns true
// when the attempt advanced, which also restarts the progress window.
// Unchanged or lower counters are no-ops.
func (a *Attempt) Observe(retryCount, maxAttempts int, now time.Time) bool {
	next := NextAttemptIndex(a.Index, retryCount, maxAttempts)
	if next == a.Index {
		return false
	}
	a.Index = next
	a.StartedAt = now
	return true
}

// SegmentFraction estimates completion within the current attempt from
// elapsed wall-clock time against a fixed budget. The server's advisory
// progress field is deliberately ignored: it is not reliable across
// attempts, and a time-based estimate keeps the indicator moving forward.
func SegmentFraction(elapsed, budget time.Duration) float64 {
	if budget <= 0 || elapsed >= budget {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(budget)
}

// OverallFraction folds a per-attempt fraction into the whole-job fraction:
// each attempt owns an equal slice of the bar.
func OverallFraction(index, maxAttempts int, segment float64) float64 {
	if maxAttempts <= 0 {
		return 0
	}
	f := float64(index-1)/float64(maxAttempts) + segment/float64(maxAttempts)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
