// File: internal/infra/adapters/jobs/http_client.go
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipegen-client/internal/domain"
	"recipegen-client/internal/domain/model"
	"recipegen-client/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

var _ adapter.JobService = (*HTTPJobService)(nil)

// HTTPJobService implements adapter.JobService against the recipe backend's
// async job API. It is a pure request/response wrapper: a failed job status
// is a valid payload; only network failures and non-2xx responses error,
// wrapping domain.ErrTransport. Retry/backoff policy lives in the poll loop.
type HTTPJobService struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTPJobService(baseURL, token string, timeout time.Duration) (*HTTPJobService, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPJobService{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (s *HTTPJobService) endpoint(path string) string {
	return s.baseURL + "/api/jobs/recipes" + path
}

// Wire shapes. Field names follow the backend contract.

type createJobRequest struct {
	Prompt             string         `json:"prompt,omitempty"`
	RecipeID           string         `json:"recipe_id,omitempty"`
	ModificationPrompt string         `json:"modification_prompt,omitempty"`
	Preferences        map[string]any `json:"preferences,omitempty"`
}

type createJobResponse struct {
	JobID               string `json:"job_id"`
	Status              string `json:"status"`
	Message             string `json:"message"`
	EstimatedCompletion string `json:"estimated_completion"`
	StatusURL           string `json:"status_url"`
	PollingInterval     int    `json:"polling_interval"` // seconds
}

type jobStatusResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	JobType      string `json:"job_type"`
	Progress     int    `json:"progress"`
	RetryCount   int    `json:"retry_count"`
	RecipeID     string `json:"recipe_id"`
	ErrorMessage string `json:"error_message"`
}

type recipePayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	PrepTime     string `json:"prepTime"`
	CookTime     string `json:"cookTime"`
	Servings     int    `json:"servings"`
	Difficulty   string `json:"difficulty"`
	Tips         string `json:"tips"`
}

type ingredientPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

type jobResultResponse struct {
	JobID       string              `json:"job_id"`
	Status      string              `json:"status"`
	RecipeID    string              `json:"recipe_id"`
	Recipe      recipePayload       `json:"recipe"`
	Ingredients []ingredientPayload `json:"ingredients"`
	GeneratedAt string              `json:"generated_at"`
	UserPrompt  string              `json:"user_prompt"`
	Metadata    map[string]any      `json:"generation_metadata"`
}

func (s *HTTPJobService) StartGeneration(ctx context.Context, req *model.GenerationRequest) (*model.JobHandle, error) {
	body := createJobRequest{Prompt: req.Prompt, Preferences: req.Preferences}
	return s.create(ctx, s.endpoint("/generate"), body)
}

func (s *HTTPJobService) StartModification(ctx context.Context, req *model.ModificationRequest) (*model.JobHandle, error) {
	body := createJobRequest{
		RecipeID:           req.RecipeID,
		ModificationPrompt: req.Prompt,
		Preferences:        req.Preferences,
	}
	return s.create(ctx, s.endpoint("/modify"), body)
}

func (s *HTTPJobService) create(ctx context.Context, endpoint string, body createJobRequest) (*model.JobHandle, error) {
	var out createJobResponse
	if err := s.do(ctx, http.MethodPost, endpoint, body, &out); err != nil {
		return nil, err
	}
	status, err := model.ParseJobStatus(out.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown job status %q", domain.ErrTransport, out.Status)
	}
	return &model.JobHandle{
		JobID:               out.JobID,
		Status:              status,
		Message:             out.Message,
		EstimatedCompletion: out.EstimatedCompletion,
		StatusURL:           out.StatusURL,
		SuggestedInterval:   time.Duration(out.PollingInterval) * time.Second,
	}, nil
}

func (s *HTTPJobService) Status(ctx context.Context, jobID string) (*model.StatusReport, error) {
	var out jobStatusResponse
	if err := s.do(ctx, http.MethodGet, s.endpoint("/"+jobID+"/status"), nil, &out); err != nil {
		return nil, err
	}
	status, err := model.ParseJobStatus(out.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown job status %q", domain.ErrTransport, out.Status)
	}
	return &model.StatusReport{
		JobID:        out.ID,
		Status:       status,
		Type:         model.JobType(out.JobType),
		Progress:     out.Progress,
		RetryCount:   out.RetryCount,
		RecipeID:     out.RecipeID,
		ErrorMessage: out.ErrorMessage,
	}, nil
}

func (s *HTTPJobService) Result(ctx context.Context, jobID string) (*model.JobResult, error) {
	var out jobResultResponse
	if err := s.do(ctx, http.MethodGet, s.endpoint("/"+jobID+"/result"), nil, &out); err != nil {
		return nil, err
	}
	res := &model.JobResult{
		JobID:      out.JobID,
		RecipeID:   out.RecipeID,
		UserPrompt: out.UserPrompt,
		Metadata:   out.Metadata,
		Recipe: model.Recipe{
			Title:        out.Recipe.Title,
			Description:  out.Recipe.Description,
			Instructions: out.Recipe.Instructions,
			PrepTime:     out.Recipe.PrepTime,
			CookTime:     out.Recipe.CookTime,
			Servings:     out.Recipe.Servings,
			Difficulty:   out.Recipe.Difficulty,
			Tips:         out.Recipe.Tips,
		},
	}
	for _, ing := range out.Ingredients {
		res.Ingredients = append(res.Ingredients, model.Ingredient{
			ID:       ing.ID,
			Name:     ing.Name,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
			Category: ing.Category,
		})
	}
	if out.GeneratedAt != "" {
		if t, err := time.Parse(time.RFC3339, out.GeneratedAt); err == nil {
			res.GeneratedAt = t
		}
	}
	return res, nil
}

func (s *HTTPJobService) Cancel(ctx context.Context, jobID string) error {
	return s.do(ctx, http.MethodDelete, s.endpoint("/"+jobID), nil, nil)
}

func (s *HTTPJobService) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, httpErrorDetail(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %s", domain.ErrTransport, method, endpoint, httpErrorDetail(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrTransport, err)
	}
	return nil
}

// httpErrorDetail extracts the backend's {"detail": ...} message when
// present, falling back to the HTTP status line.
func httpErrorDetail(resp *http.Response) string {
	var out struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&out); err == nil && out.Detail != "" {
		return fmt.Sprintf("http %d: %s", resp.StatusCode, out.Detail)
	}
	return fmt.Sprintf("http %d", resp.StatusCode)
}
