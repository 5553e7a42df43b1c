// File: internal/infra/stub/server.go
package stub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"recipegen-client/internal/config"
	"recipegen-client/internal/domain"
	"recipegen-client/internal/domain/model"
	"recipegen-client/internal/infra/metrics"
	red "recipegen-client/internal/infra/redis"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server emulates the production recipe job API for local development:
// the same five routes, the same wire shapes, a scripted job lifecycle and
// per-caller rate limiting on job creation.
type Server struct {
	store   *Store
	cfg     config.StubConfig
	limiter *red.RateLimiter // nil disables rate limiting
	log     *zerolog.Logger
}

func NewServer(store *Store, cfg config.StubConfig, limiter *red.RateLimiter, logger *zerolog.Logger) *Server {
	return &Server{store: store, cfg: cfg, limiter: limiter, log: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Route("/api/jobs/recipes", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/modify", s.handleModify)
		r.Get("/{jobID}/status", s.handleStatus)
		r.Get("/{jobID}/result", s.handleResult)
		r.Delete("/{jobID}", s.handleCancel)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type createRequest struct {
	Prompt             string         `json:"prompt"`
	RecipeID           string         `json:"recipe_id"`
	ModificationPrompt string         `json:"modification_prompt"`
	Preferences        map[string]any `json:"preferences"`
}

type createResponse struct {
	JobID               string `json:"job_id"`
	Status              string `json:"status"`
	Message             string `json:"message"`
	EstimatedCompletion string `json:"estimated_completion"`
	StatusURL           string `json:"status_url"`
	PollingInterval     int    `json:"polling_interval"`
}

type statusResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	JobType      string `json:"job_type"`
	Progress     int    `json:"progress"`
	RetryCount   int    `json:"retry_count"`
	RecipeID     string `json:"recipe_id,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type resultResponse struct {
	JobID       string           `json:"job_id"`
	Status      string           `json:"status"`
	RecipeID    string           `json:"recipe_id"`
	Recipe      recipeJSON       `json:"recipe"`
	Ingredients []ingredientJSON `json:"ingredients"`
	GeneratedAt string           `json:"generated_at"`
	UserPrompt  string           `json:"user_prompt"`
	Metadata    map[string]any   `json:"generation_metadata,omitempty"`
}

type recipeJSON struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	PrepTime     string `json:"prepTime"`
	CookTime     string `json:"cookTime"`
	Servings     int    `json:"servings"`
	Difficulty   string `json:"difficulty"`
	Tips         string `json:"tips"`
}

type ingredientJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, model.JobTypeGenerate)
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	s.handleCreate(w, r, model.JobTypeModify)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, typ model.JobType) {
	caller := callerKey(r)
	if s.limiter != nil {
		ok, err := s.limiter.Allow(r.Context(), red.JobCreateKey(caller), s.cfg.RateLimit, s.cfg.RateWindow)
		if err != nil {
			s.log.Error().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			metrics.IncStubRateLimited()
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prompt := req.Prompt
	if typ == model.JobTypeModify {
		if strings.TrimSpace(req.RecipeID) == "" {
			writeError(w, http.StatusBadRequest, "Invalid recipe ID format")
			return
		}
		prompt = req.ModificationPrompt
	}
	if l := len(strings.TrimSpace(prompt)); l < 3 || l > 1000 {
		writeError(w, http.StatusUnprocessableEntity, "prompt must be between 3 and 1000 characters")
		return
	}

	job := s.store.Create(caller, typ, prompt, req.Preferences)
	metrics.IncStubJob(string(typ))
	s.log.Info().Str("job_id", job.ID).Str("type", string(typ)).Msg("job created")

	writeJSON(w, http.StatusOK, createResponse{
		JobID:               job.ID,
		Status:              string(model.JobStatusPending),
		Message:             "Recipe generation started. Use the status URL to check progress.",
		EstimatedCompletion: "2-3 minutes",
		StatusURL:           "/api/jobs/recipes/" + job.ID + "/status",
		PollingInterval:     int(s.cfg.SuggestedPoll / time.Second),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.Status(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		ID:           report.JobID,
		Status:       string(report.Status),
		JobType:      string(report.Type),
		Progress:     report.Progress,
		RetryCount:   report.RetryCount,
		RecipeID:     report.RecipeID,
		ErrorMessage: report.ErrorMessage,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	result, err := s.store.Result(id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
		return
	case errors.Is(err, domain.ErrResultNotReady):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to get job result")
		return
	}

	out := resultResponse{
		JobID:       result.JobID,
		Status:      string(model.JobStatusCompleted),
		RecipeID:    result.RecipeID,
		GeneratedAt: result.GeneratedAt.Format(time.RFC3339),
		UserPrompt:  result.UserPrompt,
		Metadata:    result.Metadata,
		Recipe: recipeJSON{
			Title:        result.Recipe.Title,
			Description:  result.Recipe.Description,
			Instructions: result.Recipe.Instructions,
			PrepTime:     result.Recipe.PrepTime,
			CookTime:     result.Recipe.CookTime,
			Servings:     result.Recipe.Servings,
			Difficulty:   result.Recipe.Difficulty,
			Tips:         result.Recipe.Tips,
		},
	}
	for _, ing := range result.Ingredients {
		out.Ingredients = append(out.Ingredients, ingredientJSON{
			ID:       ing.ID,
			Name:     ing.Name,
			Amount:   ing.Amount,
			Unit:     ing.Unit,
			Category: ing.Category,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	err := s.store.Cancel(id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Job not found")
	case errors.Is(err, domain.ErrJobTerminal):
		writeError(w, http.StatusBadRequest, "Cannot cancel job in a terminal state")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to cancel job")
	default:
		s.log.Info().Str("job_id", id).Msg("job cancelled")
		writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "status": string(model.JobStatusCancelled)})
	}
}

// callerKey identifies the requester for rate limiting: the bearer token
// when present, the remote address otherwise.
func callerKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
