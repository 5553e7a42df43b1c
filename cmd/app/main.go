// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"recipegen-client/internal/config"
	"recipegen-client/internal/domain/model"
	"recipegen-client/internal/infra/adapters/jobs"
	"recipegen-client/internal/infra/logging"
	"recipegen-client/internal/infra/metrics"
	"recipegen-client/internal/usecase"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	prompt := flag.String("prompt", "", "recipe prompt")
	recipeID := flag.String("modify", "", "recipe id to modify (-prompt becomes the modification prompt)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	if strings.TrimSpace(*prompt) == "" {
		log.Fatalf("usage: app -prompt \"a quick weeknight pasta\" [-modify recipe-id]")
	}

	svc, err := jobs.NewHTTPJobService(cfg.Backend.BaseURL, cfg.Backend.AuthToken, cfg.Backend.RequestTimeout)
	if err != nil {
		log.Fatalf("job service: %v", err)
	}
	pollUC := usecase.NewJobPollUseCase(svc, cfg.Poll, logger)
	presenter := usecase.NewPresenter(cfg.Presenter, cfg.Poll, logger)

	var start func(ctx context.Context, events chan<- usecase.PollEvent) (*model.Outcome, error)
	if *recipeID != "" {
		req, err := model.NewModificationRequest(*recipeID, *prompt, nil)
		if err != nil {
			log.Fatalf("invalid request: %v", err)
		}
		start = func(ctx context.Context, events chan<- usecase.PollEvent) (*model.Outcome, error) {
			return pollUC.Modify(ctx, req, events)
		}
	} else {
		req, err := model.NewGenerationRequest(*prompt, nil)
		if err != nil {
			log.Fatalf("invalid request: %v", err)
		}
		start = func(ctx context.Context, events chan<- usecase.PollEvent) (*model.Outcome, error) {
			return pollUC.Generate(ctx, req, events)
		}
	}

	// ---- Graceful cancel on Ctrl-C ----
	ctx, cancel := context.WithCancel(logging.WithTraceID(context.Background(), uuid.NewString()))
	defer cancel()
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigc
		fmt.Println()
		logger.Info().Msg("cancel requested")
		cancel()
	}()

	events := make(chan usecase.PollEvent, 8)
	go func() {
		_, _ = start(ctx, events)
	}()

	done := make(chan *model.Outcome, 1)
	go func() {
		done <- presenter.Run(ctx, events)
	}()

	// ---- Render loop ----
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			render(presenter.Snapshot())
		case outcome := <-done:
			render(presenter.Snapshot())
			fmt.Println()
			finish(outcome)
			return
		}
	}
}

func render(vm usecase.ViewModel) {
	const width = 24
	filled := int(vm.Fraction * width)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	fmt.Printf("\r%-44s [%s] %3.0f%%", vm.DisplayText, bar, vm.Fraction*100)
}

func finish(outcome *model.Outcome) {
	if outcome == nil {
		fmt.Println("aborted")
		return
	}
	switch outcome.Kind {
	case model.OutcomeSucceeded:
		printRecipe(outcome.Result)
	case model.OutcomeCancelled:
		fmt.Println(outcome.Message)
	default:
		fmt.Printf("error: %s\n", outcome.Message)
		os.Exit(1)
	}
}

func printRecipe(res *model.JobResult) {
	r := res.Recipe
	fmt.Printf("\n%s\n%s\n\n", r.Title, r.Description)
	fmt.Printf("prep %s | cook %s | serves %d | %s\n\n", r.PrepTime, r.CookTime, r.Servings, r.Difficulty)
	fmt.Println("Ingredients:")
	for _, ing := range res.Ingredients {
		fmt.Printf("  - %s %s %s (%s)\n", ing.Amount, ing.Unit, ing.Name, ing.Category)
	}
	fmt.Printf("\n%s\n", r.Instructions)
	if r.Tips != "" {
		fmt.Printf("\nTip: %s\n", r.Tips)
	}
}
