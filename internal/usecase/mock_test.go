//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"recipegen-client/internal/domain/model"
	"recipegen-client/internal/domain/ports/adapter"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// -----------------------------
// Mock JobService
// -----------------------------

type MockJobService struct {
	mu sync.Mutex

	// configurable behavior
	StartGenerationFunc   func(ctx context.Context, req *model.GenerationRequest) (*model.JobHandle, error)
	StartModificationFunc func(ctx context.Context, req *model.ModificationRequest) (*model.JobHandle, error)
	StatusFunc            func(ctx context.Context, jobID string) (*model.StatusReport, error)
	ResultFunc            func(ctx context.Context, jobID string) (*model.JobResult, error)
	CancelFunc            func(ctx context.Context, jobID string) error

	// tracing of invocations
	Calls struct {
		StartGeneration   int
		StartModification int
		Status            int
		Result            int
		Cancel            int
	}
}

var _ adapter.JobService = (*MockJobService)(nil)

func (m *MockJobService) StartGeneration(ctx context.Context, req *model.GenerationRequest) (*model.JobHandle, error) {
	m.mu.Lock()
	m.Calls.StartGeneration++
	m.mu.Unlock()
	if m.StartGenerationFunc != nil {
		return m.StartGenerationFunc(ctx, req)
	}
	return &model.JobHandle{JobID: "job-1", Status: model.JobStatusPending}, nil
}

func (m *MockJobService) StartModification(ctx context.Context, req *model.ModificationRequest) (*model.JobHandle, error) {
	m.mu.Lock()
	m.Calls.StartModification++
	m.mu.Unlock()
	if m.StartModificationFunc != nil {
		return m.StartModificationFunc(ctx, req)
	}
	return &model.JobHandle{JobID: "job-1", Status: model.JobStatusPending}, nil
}

func (m *MockJobService) Status(ctx context.Context, jobID string) (*model.StatusReport, error) {
	m.mu.Lock()
	m.Calls.Status++
	m.mu.Unlock()
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, jobID)
	}
	return &model.StatusReport{JobID: jobID, Status: model.JobStatusProcessing}, nil
}

func (m *MockJobService) Result(ctx context.Context, jobID string) (*model.JobResult, error) {
	m.mu.Lock()
	m.Calls.Result++
	m.mu.Unlock()
	if m.ResultFunc != nil {
		return m.ResultFunc(ctx, jobID)
	}
	return &model.JobResult{JobID: jobID, Recipe: model.Recipe{Title: "Mock Meal"}}, nil
}

func (m *MockJobService) Cancel(ctx context.Context, jobID string) error {
	m.mu.Lock()
	m.Calls.Cancel++
	m.mu.Unlock()
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, jobID)
	}
	return nil
}

// StatusCalls returns the traced status invocation count.
func (m *MockJobService) StatusCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls.Status
}

// scriptStatus builds a StatusFunc that walks through the given reports and
// then keeps returning the last one.
func scriptStatus(reports ...*model.StatusReport) func(ctx context.Context, jobID string) (*model.StatusReport, error) {
	i := 0
	var mu sync.Mutex
	return func(ctx context.Context, jobID string) (*model.StatusReport, error) {
		mu.Lock()
		defer mu.Unlock()
		r := reports[i]
		if i < len(reports)-1 {
			i++
		}
		return r, nil
	}
}

// -----------------------------
// Synthetic clock
// -----------------------------

// fakeClock advances instantly on every wait, so a poll loop runs through
// simulated hours in microseconds.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time

	waits []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	c.waits = append(c.waits, d)
	return nil
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}
