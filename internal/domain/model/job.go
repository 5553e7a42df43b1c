package model

import (
	"strings"
	"time"

	"recipegen-client/internal/domain"
)

// JobStatus is the server-authoritative state of a generation job.
// Use the exported constants instead of raw strings to avoid typos.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ParseJobStatus converts a wire string into a JobStatus, rejecting unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return JobStatus(s), nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// Terminal reports whether the status ends a job's lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

func (s JobStatus) String() string { return string(s) }

// JobType distinguishes fresh generations from modifications of an existing recipe.
type JobType string

const (
	JobTypeGenerate JobType = "generate"
	JobTypeModify   JobType = "modify"
)

const (
	minPromptLen = 3
	maxPromptLen = 1000
)

// GenerationRequest asks the backend to generate a recipe from a free-text prompt.
type GenerationRequest struct {
	Prompt      string
	Preferences map[string]any
}

func NewGenerationRequest(prompt string, preferences map[string]any) (*GenerationRequest, error) {
	prompt = strings.TrimSpace(prompt)
	if len(prompt) < minPromptLen || len(prompt) > maxPromptLen {
		return nil, domain.ErrInvalidArgument
	}
	return &GenerationRequest{Prompt: prompt, Preferences: preferences}, nil
}

// ModificationRequest asks the backend to rework an existing recipe.
type ModificationRequest struct {
	RecipeID    string
	Prompt      string
	Preferences map[string]any
}

func NewModificationRequest(recipeID, prompt string, preferences map[string]any) (*ModificationRequest, error) {
	if strings.TrimSpace(recipeID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	prompt = strings.TrimSpace(prompt)
	if len(prompt) < minPromptLen || len(prompt) > maxPromptLen {
		return nil, domain.ErrInvalidArgument
	}
	return &ModificationRequest{RecipeID: recipeID, Prompt: prompt, Preferences: preferences}, nil
}

// JobHandle is returned on job creation. SuggestedInterval is the server's
// polling hint; zero means the server offered none.
type JobHandle struct {
	JobID               string
	Status              JobStatus
	Message             string
	EstimatedCompletion string
	StatusURL           string
	SuggestedInterval   time.Duration
}

// StatusReport is one sampled observation of a job. RetryCount is advisory:
// the server does not promise exact increment semantics, so it is treated as
// a signal, never a guarantee.
type StatusReport struct {
	JobID        string
	Status       JobStatus
	Type         JobType
	Progress     int // 0-100, advisory, not guaranteed monotonic
	RetryCount   int
	RecipeID     string
	ErrorMessage string
}

// Recipe is the generated payload.
type Recipe struct {
	Title        string
	Description  string
	Instructions string
	PrepTime     string
	CookTime     string
	Servings     int
	Difficulty   string
	Tips         string
}

// Ingredient is one line of the recipe's categorized grocery list.
type Ingredient struct {
	ID       string
	Name     string
	Amount   string
	Unit     string
	Category string
}

// JobResult is the full payload of a completed job.
type JobResult struct {
	JobID       string
	RecipeID    string
	Recipe      Recipe
	Ingredients []Ingredient
	GeneratedAt time.Time
	UserPrompt  string
	Metadata    map[string]any
}
