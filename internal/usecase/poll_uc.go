// File: internal/usecase/poll_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"recipegen-client/internal/config"
	"recipegen-client/internal/domain"
	"recipegen-client/internal/domain/model"
	"recipegen-client/internal/domain/ports/adapter"
	"recipegen-client/internal/infra/logging"
	"recipegen-client/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// PollEvent is one update emitted by the poll loop. Outcome is non-nil only
// for the final event of a session; the channel is closed right after it.
type PollEvent struct {
	SessionID string
	Status    model.JobStatus
	Attempt   int
	Fraction  float64
	Outcome   *model.Outcome
}

// Human-facing texts for outcomes the server gives no message for.
const (
	timeoutText   = "This is taking longer than expected. Please try again."
	transportText = "Couldn't reach the recipe service. Please try again."
	cancelledText = "Recipe generation was cancelled."
)

// Compile-time check
var _ JobPollUseCase = (*jobPollUC)(nil)

// JobPollUseCase drives one job from creation to a terminal outcome.
//
// A caller-initiated abandonment (context cancellation) is distinct from a
// server-side cancelled status: the former returns ctx.Err() with no outcome
// and makes no further network calls; the latter is a terminal outcome.
type JobPollUseCase interface {
	// Generate starts a generation job and polls it to a terminal outcome.
	Generate(ctx context.Context, req *model.GenerationRequest, events chan<- PollEvent) (*model.Outcome, error)
	// Modify starts a modification job and polls it to a terminal outcome.
	Modify(ctx context.Context, req *model.ModificationRequest, events chan<- PollEvent) (*model.Outcome, error)
	// Watch polls an already-created job to a terminal outcome.
	Watch(ctx context.Context, handle *model.JobHandle, events chan<- PollEvent) (*model.Outcome, error)
}

type jobPollUC struct {
	jobs adapter.JobService
	cfg  config.PollConfig
	log  *zerolog.Logger

	// Injectable time sources so tests can run without real timers.
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// PollOption configures a JobPollUseCase. Primarily lets tests replace the
// real clock and timer with synthetic ones.
type PollOption func(*jobPollUC)

// WithClock replaces the wall clock and the tick scheduler.
func WithClock(now func() time.Time, wait func(ctx context.Context, d time.Duration) error) PollOption {
	return func(u *jobPollUC) {
		u.now = now
		u.wait = wait
	}
}

func NewJobPollUseCase(jobs adapter.JobService, cfg config.PollConfig, logger *zerolog.Logger, opts ...PollOption) *jobPollUC {
	u := &jobPollUC{
		jobs: jobs,
		cfg:  cfg,
		log:  logger,
		now:  time.Now,
		wait: sleep,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (u *jobPollUC) Generate(ctx context.Context, req *model.GenerationRequest, events chan<- PollEvent) (*model.Outcome, error) {
	handle, err := u.jobs.StartGeneration(ctx, req)
	if err != nil {
		return u.startFailed(ctx, err, events)
	}
	return u.Watch(ctx, handle, events)
}

func (u *jobPollUC) Modify(ctx context.Context, req *model.ModificationRequest, events chan<- PollEvent) (*model.Outcome, error) {
	handle, err := u.jobs.StartModification(ctx, req)
	if err != nil {
		return u.startFailed(ctx, err, events)
	}
	return u.Watch(ctx, handle, events)
}

// startFailed turns a job-creation error into a terminal outcome so the
// presenter sees the same discriminated event stream either way.
func (u *jobPollUC) startFailed(ctx context.Context, err error, events chan<- PollEvent) (*model.Outcome, error) {
	u.log.Error().Err(err).Msg("job creation failed")
	out := &model.Outcome{Kind: model.OutcomeFailed, Message: transportText, Err: err}
	if events != nil {
		u.emit(ctx, events, PollEvent{Status: model.JobStatusFailed, Outcome: out})
		close(events)
	}
	return out, nil
}

func (u *jobPollUC) Watch(ctx context.Context, handle *model.JobHandle, events chan<- PollEvent) (*model.Outcome, error) {
	sess := model.NewPollSession(handle.JobID, u.now(), u.cfg.Timeout, u.cfg.MaxAttempts, u.cfg.SegmentBudget)
	ctx = logging.WithJobID(ctx, handle.JobID)
	ctx = logging.WithSessID(ctx, sess.ID)
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "JobPollUC.Watch")()

	interval := u.cfg.Interval
	if handle.SuggestedInterval > 0 {
		interval = handle.SuggestedInterval
	}
	log.Info().Dur("interval", interval).Time("deadline", sess.Deadline).Msg("poll session started")

	for {
		if err := u.wait(ctx, interval); err != nil {
			return u.abandon(sess, events, log, err)
		}

		// Deadline is enforced by wall-clock comparison at the top of each
		// tick, before any further network call.
		if sess.Expired(u.now()) {
			return u.finish(ctx, sess, events, log, &model.Outcome{
				Kind:    model.OutcomeTimedOut,
				Message: timeoutText,
				Err:     domain.ErrPollTimeout,
			})
		}

		report, err := u.jobs.Status(ctx, handle.JobID)
		metrics.IncStatusPoll()
		// A cancel during the in-flight call wins; its result is discarded.
		if ctx.Err() != nil {
			return u.abandon(sess, events, log, ctx.Err())
		}
		if err != nil {
			return u.finish(ctx, sess, events, log, &model.Outcome{
				Kind:    model.OutcomeFailed,
				Message: transportText,
				Err:     err,
			})
		}

		fraction := sess.Observe(*report, u.now())
		u.emit(ctx, events, PollEvent{
			SessionID: sess.ID,
			Status:    report.Status,
			Attempt:   sess.Attempt.Index,
			Fraction:  fraction,
		})

		switch report.Status {
		case model.JobStatusCompleted:
			result, err := u.jobs.Result(ctx, handle.JobID)
			if ctx.Err() != nil {
				return u.abandon(sess, events, log, ctx.Err())
			}
			if err != nil {
				// A completed status with a failed result fetch is an error
				// condition of the session, not something to retry silently.
				return u.finish(ctx, sess, events, log, &model.Outcome{
					Kind:    model.OutcomeFailed,
					Message: transportText,
					Err:     err,
				})
			}
			sess.Complete()
			return u.finish(ctx, sess, events, log, &model.Outcome{
				Kind:   model.OutcomeSucceeded,
				Result: result,
			})
		case model.JobStatusFailed:
			// Server retries already happened; the message is surfaced verbatim.
			return u.finish(ctx, sess, events, log, &model.Outcome{
				Kind:    model.OutcomeFailed,
				Message: report.ErrorMessage,
				Err:     fmt.Errorf("%w: %s", domain.ErrJobFailed, report.ErrorMessage),
			})
		case model.JobStatusCancelled:
			return u.finish(ctx, sess, events, log, &model.Outcome{
				Kind:    model.OutcomeCancelled,
				Message: cancelledText,
				Err:     domain.ErrJobCancelled,
			})
		}
	}
}

func (u *jobPollUC) emit(ctx context.Context, events chan<- PollEvent, ev PollEvent) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	case <-ctx.Done():
	}
}

// finish records metrics, emits the terminal event and closes the stream.
// The send is ctx-guarded: a consumer that already left on a cancelled
// context must not strand the loop goroutine on a full channel.
func (u *jobPollUC) finish(ctx context.Context, sess *model.PollSession, events chan<- PollEvent, log *zerolog.Logger, out *model.Outcome) (*model.Outcome, error) {
	elapsed := u.now().Sub(sess.StartedAt)
	metrics.ObservePollSession(string(out.Kind), elapsed, sess.Attempt.Index)
	log.Info().
		Str("outcome", string(out.Kind)).
		Dur("elapsed", elapsed).
		Int("attempts", sess.Attempt.Index).
		Msg("poll session finished")

	if events != nil {
		u.emit(ctx, events, PollEvent{
			SessionID: sess.ID,
			Attempt:   sess.Attempt.Index,
			Fraction:  sess.Fraction(),
			Outcome:   out,
		})
		close(events)
	}
	return out, nil
}

// abandon ends the session without a terminal outcome (caller cancelled).
func (u *jobPollUC) abandon(sess *model.PollSession, events chan<- PollEvent, log *zerolog.Logger, err error) (*model.Outcome, error) {
	log.Info().Msg("poll session abandoned")
	if events != nil {
		close(events)
	}
	return nil, err
}
