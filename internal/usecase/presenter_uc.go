// File: internal/usecase/presenter_uc.go
package usecase

import (
	"context"
	"sync"
	"time"

	"recipegen-client/internal/config"
	"recipegen-client/internal/domain/model"

	"github.com/rs/zerolog"
)

// rotationPhrases cycle on the status line while a job is in flight.
var rotationPhrases = []string{
	"Gathering ingredients...",
	"Consulting the cookbook...",
	"Heating up the stove...",
	"Adjusting the recipe format...",
	"Sorting ingredients by aisle...",
	"Adding final touches...",
}

// ViewModel is the single combined read-model consumed by a UI layer.
type ViewModel struct {
	DisplayText string
	Fraction    float64
	Terminal    bool
	Err         error
}

// Presenter reconciles poll events into the human-facing state: a rotating
// status line while polling, a forward-moving progress fraction, and a frozen
// error text on failure. Rotation and terminal transitions are applied under
// one lock with a terminal flag, so no rotation text can render after a
// terminal event regardless of timer scheduling.
type Presenter struct {
	cfg  config.PresenterConfig
	poll config.PollConfig
	log  *zerolog.Logger
	now  func() time.Time

	mu        sync.Mutex
	text      string
	phrase    int
	fraction  float64
	shown     float64
	attempt   int
	lastEvent time.Time
	animFrom  float64
	animStart time.Time
	terminal  bool
	errState  bool
	err       error
}

// PresenterOption configures a Presenter.
type PresenterOption func(*Presenter)

// WithPresenterClock replaces the wall clock used for the success animation.
func WithPresenterClock(now func() time.Time) PresenterOption {
	return func(p *Presenter) { p.now = now }
}

func NewPresenter(cfg config.PresenterConfig, poll config.PollConfig, logger *zerolog.Logger, opts ...PresenterOption) *Presenter {
	p := &Presenter{
		cfg:  cfg,
		poll: poll,
		log:  logger,
		now:  time.Now,
		text: cfg.DefaultText,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes the event stream until it closes, rotating the status line on
// its own timer. On success it waits out the animation window before handing
// the outcome back, so the caller observes the completed animation.
// Returns nil when the context is cancelled or the stream closes without a
// terminal event.
func (p *Presenter) Run(ctx context.Context, events <-chan PollEvent) *model.Outcome {
	ticker := time.NewTicker(p.cfg.RotationPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Rotate()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.Apply(ev)
			if ev.Outcome == nil {
				continue
			}
			if ev.Outcome.Kind == model.OutcomeSucceeded {
				_ = sleep(ctx, p.cfg.SuccessAnimation)
				p.settle()
			}
			return ev.Outcome
		}
	}
}

// Rotate advances the status line to the next phrase. It is a no-op once a
// terminal event was applied or while the error state is set.
func (p *Presenter) Rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.terminal || p.errState {
		return
	}
	p.text = rotationPhrases[p.phrase%len(rotationPhrases)]
	p.phrase++
}

// Apply folds one poll event into the view state. Terminal events stop
// rotation in the same critical section that sets the final text.
func (p *Presenter) Apply(ev PollEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Fraction > p.fraction {
		p.fraction = ev.Fraction
	}
	out := ev.Outcome
	if out == nil {
		if ev.Attempt > 0 {
			p.attempt = ev.Attempt
		}
		p.lastEvent = p.now()
		return
	}

	p.terminal = true
	p.log.Debug().Str("kind", string(out.Kind)).Msg("terminal outcome applied")
	switch out.Kind {
	case model.OutcomeSucceeded:
		// Ease the bar to 1.0 instead of snapping; Snapshot interpolates.
		p.animFrom = p.fraction
		if p.shown > p.animFrom {
			p.animFrom = p.shown
		}
		p.animStart = p.now()
		p.fraction = 1
	case model.OutcomeFailed, model.OutcomeTimedOut:
		p.errState = true
		p.err = out.Err
		p.text = out.Message
	case model.OutcomeCancelled:
		p.text = p.cfg.DefaultText
		p.fraction = 0
		p.shown = 0
		p.attempt = 0
		p.lastEvent = time.Time{}
	}
}

// settle marks the success animation as done and restores the default text.
func (p *Presenter) settle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.animStart = time.Time{}
	p.text = p.cfg.DefaultText
}

// Reset clears a previous error state; the caller invokes it when the user
// retries or edits the input that produced the error.
func (p *Presenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = p.cfg.DefaultText
	p.phrase = 0
	p.fraction = 0
	p.shown = 0
	p.attempt = 0
	p.lastEvent = time.Time{}
	p.animFrom = 0
	p.animStart = time.Time{}
	p.terminal = false
	p.errState = false
	p.err = nil
}

// Snapshot returns the current read-model. During the success animation the
// fraction is interpolated from its last value to 1.0; between polls it
// glides forward at the estimator's rate, capped at the current attempt's
// share of the bar, so a fast render loop is not stuck on poll cadence.
func (p *Presenter) Snapshot() ViewModel {
	p.mu.Lock()
	defer p.mu.Unlock()

	fraction := p.fraction
	switch {
	case !p.animStart.IsZero() && p.cfg.SuccessAnimation > 0:
		t := float64(p.now().Sub(p.animStart)) / float64(p.cfg.SuccessAnimation)
		if t < 1 {
			fraction = p.animFrom + (1-p.animFrom)*t
		}
	case !p.terminal && p.attempt > 0 && p.poll.MaxAttempts > 0 && p.poll.SegmentBudget > 0:
		whole := time.Duration(p.poll.MaxAttempts) * p.poll.SegmentBudget
		glide := float64(p.now().Sub(p.lastEvent)) / float64(whole)
		if glide > 0 {
			f := fraction + glide
			if ceil := float64(p.attempt) / float64(p.poll.MaxAttempts); f > ceil {
				f = ceil
			}
			if f > fraction {
				fraction = f
			}
		}
	}
	if fraction < p.shown {
		fraction = p.shown
	} else {
		p.shown = fraction
	}
	return ViewModel{
		DisplayText: p.text,
		Fraction:    fraction,
		Terminal:    p.terminal,
		Err:         p.err,
	}
}
