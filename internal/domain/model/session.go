package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// OutcomeKind tags the terminal result of one poll session.
type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "succeeded"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeTimedOut  OutcomeKind = "timed_out"
)

// Outcome is the single terminal event of a poll session.
// Result is set only for OutcomeSucceeded; Err wraps the matching domain
// sentinel for the other kinds. Message is the human-facing text.
type Outcome struct {
	Kind    OutcomeKind
	Result  *JobResult
	Message string
	Err     error
}

// PollSession owns the derived client-side state for one run of the poll
// loop: the attempt being displayed, the high-water progress fraction and
// the overall deadline. It lives from start() to the terminal outcome.
type PollSession struct {
	ID        string
	JobID     string
	StartedAt time.Time
	Deadline  time.Time

	Attempt Attempt

	maxAttempts   int
	segmentBudget time.Duration
	fraction      float64
}

func NewPollSession(jobID string, now time.Time, timeout time.Duration, maxAttempts int, segmentBudget time.Duration) *PollSession {
	return &PollSession{
		ID:            ulid.Make().String(),
		JobID:         jobID,
		StartedAt:     now,
		Deadline:      now.Add(timeout),
		Attempt:       Attempt{Index: 1, StartedAt: now},
		maxAttempts:   maxAttempts,
		segmentBudget: segmentBudget,
	}
}

// Expired reports whether the session's overall deadline has passed.
func (s *PollSession) Expired(now time.Time) bool {
	return now.After(s.Deadline)
}

// Observe folds one status report into the session and returns the updated
// overall fraction. An observed retry advances the attempt and restarts its
// progress window; the returned fraction never decreases within a session.
func (s *PollSession) Observe(report StatusReport, now time.Time) float64 {
	s.Attempt.Observe(report.RetryCount, s.maxAttempts, now)
	seg := SegmentFraction(now.Sub(s.Attempt.StartedAt), s.segmentBudget)
	if f := OverallFraction(s.Attempt.Index, s.maxAttempts, seg); f > s.fraction {
		s.fraction = f
	}
	return s.fraction
}

// Complete force-sets the fraction to 1.0, the terminal override on success.
func (s *PollSession) Complete() {
	s.fraction = 1
}

// Fraction returns the current high-water overall fraction.
func (s *PollSession) Fraction() float64 {
	return s.fraction
}
