//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"recipegen-client/internal/config"
	"recipegen-client/internal/domain"
	"recipegen-client/internal/domain/model"
	"recipegen-client/internal/usecase"
)

func pollConfig() config.PollConfig {
	return config.PollConfig{
		Interval:      3 * time.Second,
		Timeout:       5 * time.Minute,
		SegmentBudget: 20 * time.Second,
		MaxAttempts:   3,
	}
}

// collect drains the event channel concurrently and returns the received
// events after the channel closes.
func collect(t *testing.T, events <-chan usecase.PollEvent) func() []usecase.PollEvent {
	t.Helper()
	done := make(chan []usecase.PollEvent, 1)
	go func() {
		var out []usecase.PollEvent
		for ev := range events {
			out = append(out, ev)
		}
		done <- out
	}()
	return func() []usecase.PollEvent {
		select {
		case out := <-done:
			return out
		case <-time.After(5 * time.Second):
			t.Fatal("timed out draining events")
			return nil
		}
	}
}

func TestJobPollGenerate(t *testing.T) {
	t.Run("retry advances the attempt and the job completes", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{
			StatusFunc: scriptStatus(
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusProcessing, RetryCount: 0},
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusProcessing, RetryCount: 1},
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusCompleted, RetryCount: 1},
			),
		}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		req, _ := model.NewGenerationRequest("a quick pasta", nil)
		events := make(chan usecase.PollEvent, 16)
		wait := collect(t, events)

		out, err := uc.Generate(context.Background(), req, events)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if out.Kind != model.OutcomeSucceeded {
			t.Fatalf("expected succeeded, but got %s (%v)", out.Kind, out.Err)
		}
		if out.Result == nil {
			t.Fatal("expected a result on success")
		}
		if svc.Calls.Result != 1 {
			t.Errorf("expected exactly one result fetch, but got %d", svc.Calls.Result)
		}

		got := wait()
		if len(got) != 4 { // three progress events + terminal
			t.Fatalf("expected 4 events, but got %d", len(got))
		}
		if got[0].Attempt != 1 || got[1].Attempt != 2 {
			t.Errorf("expected attempts 1 then 2, but got %d then %d", got[0].Attempt, got[1].Attempt)
		}
		last := got[len(got)-1]
		if last.Outcome == nil || last.Outcome.Kind != model.OutcomeSucceeded {
			t.Errorf("expected terminal succeeded event, but got %+v", last)
		}
		if last.Fraction != 1 {
			t.Errorf("expected fraction forced to 1 on success, but got %f", last.Fraction)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Fraction < got[i-1].Fraction {
				t.Errorf("fraction regressed at event %d: %f -> %f", i, got[i-1].Fraction, got[i].Fraction)
			}
		}
	})

	t.Run("server-reported failure surfaces the message verbatim and skips the result fetch", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{
			StatusFunc: scriptStatus(
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusFailed, ErrorMessage: "x"},
			),
		}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		req, _ := model.NewGenerationRequest("a quick pasta", nil)
		events := make(chan usecase.PollEvent, 16)
		wait := collect(t, events)

		out, err := uc.Generate(context.Background(), req, events)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if out.Kind != model.OutcomeFailed {
			t.Fatalf("expected failed, but got %s", out.Kind)
		}
		if out.Message != "x" {
			t.Errorf("expected verbatim message %q, but got %q", "x", out.Message)
		}
		if !errors.Is(out.Err, domain.ErrJobFailed) {
			t.Errorf("expected ErrJobFailed, but got %v", out.Err)
		}
		if svc.Calls.Result != 0 {
			t.Errorf("expected no result fetch on failure, but got %d", svc.Calls.Result)
		}
		wait()
	})

	t.Run("job creation failure becomes a terminal failed outcome", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{
			StartGenerationFunc: func(ctx context.Context, req *model.GenerationRequest) (*model.JobHandle, error) {
				return nil, fmt.Errorf("%w: connect refused", domain.ErrTransport)
			},
		}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		req, _ := model.NewGenerationRequest("a quick pasta", nil)
		events := make(chan usecase.PollEvent, 16)
		wait := collect(t, events)

		out, err := uc.Generate(context.Background(), req, events)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if out.Kind != model.OutcomeFailed || !errors.Is(out.Err, domain.ErrTransport) {
			t.Fatalf("expected failed transport outcome, but got %s (%v)", out.Kind, out.Err)
		}
		if svc.Calls.Status != 0 {
			t.Errorf("expected no status polls, but got %d", svc.Calls.Status)
		}
		wait()
	})
}

func TestJobPollWatch(t *testing.T) {
	t.Run("times out with no further network calls", func(t *testing.T) {
		clock := newFakeClock()
		cfg := pollConfig()
		cfg.Timeout = 10 * time.Second
		svc := &MockJobService{} // always processing
		uc := usecase.NewJobPollUseCase(svc, cfg, nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		events := make(chan usecase.PollEvent, 64)
		wait := collect(t, events)

		out, err := uc.Watch(context.Background(), &model.JobHandle{JobID: "job-1"}, events)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if out.Kind != model.OutcomeTimedOut {
			t.Fatalf("expected timed_out, but got %s", out.Kind)
		}
		if !errors.Is(out.Err, domain.ErrPollTimeout) {
			t.Errorf("expected ErrPollTimeout, but got %v", out.Err)
		}
		// Interval 3s, deadline 10s: polls at t=3,6,9; the t=12 tick must be
		// cut off by the deadline check before any request goes out.
		if got := svc.StatusCalls(); got != 3 {
			t.Errorf("expected 3 status polls before the deadline, but got %d", got)
		}
		wait()
	})

	t.Run("server-side cancellation is its own outcome", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{
			StatusFunc: scriptStatus(
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusProcessing},
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusCancelled},
			),
		}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		events := make(chan usecase.PollEvent, 16)
		wait := collect(t, events)

		out, err := uc.Watch(context.Background(), &model.JobHandle{JobID: "job-1"}, events)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if out.Kind != model.OutcomeCancelled || !errors.Is(out.Err, domain.ErrJobCancelled) {
			t.Fatalf("expected cancelled outcome, but got %s (%v)", out.Kind, out.Err)
		}
		if svc.Calls.Result != 0 {
			t.Errorf("expected no result fetch, but got %d", svc.Calls.Result)
		}
		wait()
	})

	t.Run("caller abandonment delivers no outcome", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		events := make(chan usecase.PollEvent, 16)
		wait := collect(t, events)

		out, err := uc.Watch(ctx, &model.JobHandle{JobID: "job-1"}, events)
		if out != nil {
			t.Errorf("expected no outcome after abandonment, but got %s", out.Kind)
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, but got %v", err)
		}
		if svc.StatusCalls() != 0 {
			t.Errorf("expected no status polls after cancel, but got %d", svc.StatusCalls())
		}
		if got := wait(); len(got) != 0 {
			t.Errorf("expected no events, but got %d", len(got))
		}
	})

	t.Run("terminal send does not block after the consumer abandons", func(t *testing.T) {
		cfg := pollConfig()
		cfg.Timeout = 2 * time.Second // expires on the first tick

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		deadline := start.Add(cfg.Timeout)
		var mu sync.Mutex
		now := start
		nowFn := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		// The consumer walks away mid-wait: the context is cancelled but the
		// wait itself resolves, so the loop proceeds to its deadline check.
		waitFn := func(_ context.Context, d time.Duration) error {
			mu.Lock()
			now = now.Add(d)
			expired := now.After(deadline)
			mu.Unlock()
			if expired {
				cancel()
			}
			return nil
		}

		svc := &MockJobService{}
		uc := usecase.NewJobPollUseCase(svc, cfg, nopLogger(), usecase.WithClock(nowFn, waitFn))

		// Unbuffered and never read: a bare send here would block forever.
		events := make(chan usecase.PollEvent)
		done := make(chan *model.Outcome, 1)
		go func() {
			out, _ := uc.Watch(ctx, &model.JobHandle{JobID: "job-1"}, events)
			done <- out
		}()

		select {
		case out := <-done:
			if out == nil || out.Kind != model.OutcomeTimedOut {
				t.Fatalf("expected timed_out outcome, but got %+v", out)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("watch never returned; terminal event send blocked")
		}
		if svc.StatusCalls() != 0 {
			t.Errorf("expected no status polls past the deadline, but got %d", svc.StatusCalls())
		}
	})

	t.Run("a failed result fetch fails the session", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{
			StatusFunc: scriptStatus(
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusCompleted},
			),
			ResultFunc: func(ctx context.Context, jobID string) (*model.JobResult, error) {
				return nil, fmt.Errorf("%w: http 500", domain.ErrTransport)
			},
		}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		events := make(chan usecase.PollEvent, 16)
		wait := collect(t, events)

		out, err := uc.Watch(context.Background(), &model.JobHandle{JobID: "job-1"}, events)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if out.Kind != model.OutcomeFailed || !errors.Is(out.Err, domain.ErrTransport) {
			t.Fatalf("expected failed transport outcome, but got %s (%v)", out.Kind, out.Err)
		}
		wait()
	})

	t.Run("honors the server-suggested polling interval", func(t *testing.T) {
		clock := newFakeClock()
		svc := &MockJobService{
			StatusFunc: scriptStatus(
				&model.StatusReport{JobID: "job-1", Status: model.JobStatusCompleted},
			),
		}
		uc := usecase.NewJobPollUseCase(svc, pollConfig(), nopLogger(), usecase.WithClock(clock.Now, clock.Wait))

		handle := &model.JobHandle{JobID: "job-1", SuggestedInterval: 5 * time.Second}
		out, err := uc.Watch(context.Background(), handle, nil)
		if err != nil || out.Kind != model.OutcomeSucceeded {
			t.Fatalf("expected success, but got %v (%v)", out, err)
		}
		waits := clock.Waits()
		if len(waits) == 0 || waits[0] != 5*time.Second {
			t.Errorf("expected first wait of 5s, but got %v", waits)
		}
	})
}
