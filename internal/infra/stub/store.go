// File: internal/infra/stub/store.go
package stub

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"recipegen-client/internal/domain"
	"recipegen-client/internal/domain/model"

	"github.com/google/uuid"
)

const cancelledByUser = "Job cancelled by user"

// Job is one simulated generation job. Its lifecycle is scripted at creation
// and derived lazily from elapsed time, so the store needs no background
// goroutines and tests can drive it with a synthetic clock.
type Job struct {
	ID          string
	Caller      string
	Type        model.JobType
	Prompt      string
	Preferences map[string]any
	RecipeID    string
	CreatedAt   time.Time

	cancelledAt time.Time

	// script
	retries int
	fail    bool
}

// Store holds simulated jobs in memory. Prompt keywords script the
// lifecycle: "retry" simulates server-side regenerations, "fail" a terminal
// failure. Everything else runs straight through to completion.
type Store struct {
	pendingDelay time.Duration
	stepDuration time.Duration
	now          func() time.Time

	mu   sync.Mutex
	jobs map[string]*Job
}

func NewStore(pendingDelay, stepDuration time.Duration) *Store {
	return &Store{
		pendingDelay: pendingDelay,
		stepDuration: stepDuration,
		now:          time.Now,
		jobs:         make(map[string]*Job),
	}
}

func (s *Store) Create(caller string, typ model.JobType, prompt string, prefs map[string]any) *Job {
	j := &Job{
		ID:          uuid.NewString(),
		Caller:      caller,
		Type:        typ,
		Prompt:      prompt,
		Preferences: prefs,
		RecipeID:    uuid.NewString(),
		CreatedAt:   s.now(),
	}
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "retry") {
		j.retries = 2
	}
	if strings.Contains(lower, "fail") {
		j.fail = true
	}

	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return j
}

func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return j, nil
}

// Cancel marks a pending or processing job cancelled.
func (s *Store) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	report := s.report(j)
	if report.Status.Terminal() {
		return domain.ErrJobTerminal
	}
	j.cancelledAt = s.now()
	return nil
}

// Status derives the job's current state from elapsed time.
func (s *Store) Status(id string) (*model.StatusReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := s.report(j)
	return &r, nil
}

func (s *Store) report(j *Job) model.StatusReport {
	report := model.StatusReport{
		JobID: j.ID,
		Type:  j.Type,
	}

	attempts := j.retries + 1
	total := time.Duration(attempts) * s.stepDuration
	doneAt := j.CreatedAt.Add(s.pendingDelay + total)

	if !j.cancelledAt.IsZero() && j.cancelledAt.Before(doneAt) {
		report.Status = model.JobStatusCancelled
		report.ErrorMessage = cancelledByUser
		return report
	}

	elapsed := s.now().Sub(j.CreatedAt)
	switch {
	case elapsed < s.pendingDelay:
		report.Status = model.JobStatusPending
	case elapsed < s.pendingDelay+total:
		processing := elapsed - s.pendingDelay
		report.Status = model.JobStatusProcessing
		report.Progress = int(processing * 100 / total)
		report.RetryCount = int(processing / s.stepDuration)
	case j.fail:
		report.Status = model.JobStatusFailed
		report.RetryCount = j.retries
		report.ErrorMessage = "Recipe generation failed after multiple attempts. Please try a different prompt."
	default:
		report.Status = model.JobStatusCompleted
		report.Progress = 100
		report.RetryCount = j.retries
		report.RecipeID = j.RecipeID
	}
	return report
}

// Result returns the canned payload of a completed job.
func (s *Store) Result(id string) (*model.JobResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r := s.report(j)
	if r.Status != model.JobStatusCompleted {
		return nil, fmt.Errorf("%w: current status %s", domain.ErrResultNotReady, r.Status)
	}
	return cannedResult(j, s.now()), nil
}

func cannedResult(j *Job, now time.Time) *model.JobResult {
	title := strings.TrimSpace(j.Prompt)
	if len(title) > 48 {
		title = title[:48]
	}
	return &model.JobResult{
		JobID:      j.ID,
		RecipeID:   j.RecipeID,
		UserPrompt: j.Prompt,
		Recipe: model.Recipe{
			Title:        "Simulated " + title,
			Description:  "A stand-in recipe produced by the local dev backend.",
			Instructions: "1. Preheat the oven to 200C.\n2. Combine all ingredients.\n3. Bake for 25 minutes.",
			PrepTime:     "10 min",
			CookTime:     "25 min",
			Servings:     4,
			Difficulty:   "easy",
			Tips:         "Season to taste before serving.",
		},
		Ingredients: []model.Ingredient{
			{ID: "1", Name: "flour", Amount: "200", Unit: "g", Category: "Baking"},
			{ID: "2", Name: "eggs", Amount: "2", Unit: "", Category: "Dairy & Eggs"},
			{ID: "3", Name: "olive oil", Amount: "2", Unit: "tbsp", Category: "Oils & Vinegars"},
		},
		GeneratedAt: now,
		Metadata: map[string]any{
			"model":       "stub",
			"retry_count": j.retries,
		},
	}
}
