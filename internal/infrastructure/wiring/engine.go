// Package wiring assembles the engine services from configuration.
package wiring

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/felixgeelhaar/spacecheck/internal/application"
	"github.com/felixgeelhaar/spacecheck/internal/domain/checklist"
	infraai "github.com/felixgeelhaar/spacecheck/internal/infrastructure/ai"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/config"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/genie"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/storage"
)

// Engine bundles the wired services behind the CLI, HTTP and MCP surfaces.
type Engine struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Store        *checklist.Store
	Analyzer     *application.AnalyzerService
	Orchestrator *application.Orchestrator
	Optimizer    *application.OptimizerService
	Fetcher      application.Fetcher
	Repo         *storage.FilesystemRepository
}

// BuildEngine loads configuration from root and wires every service. The
// checklist must parse; everything else degrades at call time.
func BuildEngine(root string) (*Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	store := checklist.NewStore(cfg.ChecklistPath, logger)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load checklist: %w", err)
	}

	provider, err := infraai.NewProvider(cfg.Provider, cfg.Host, cfg.Model, cfg.Token)
	if err != nil {
		return nil, err
	}
	resilient := infraai.NewResilientProviderWithConfig(provider, infraai.ResilienceConfig{
		MaxRetries: cfg.JudgmentRetries,
		Timeout:    cfg.JudgmentTimeout,
	})
	judge := infraai.NewLLMJudge(resilient, logger)

	var fetcher application.Fetcher
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		fetcher = genie.NewClientWithOAuth(cfg.Host, cfg.ClientID, cfg.ClientSecret)
	} else {
		fetcher = genie.NewClient(cfg.Host, cfg.Token)
	}

	analyzer := application.NewAnalyzerService(judge, logger)
	orchestrator := application.NewOrchestrator(fetcher, analyzer, store, cfg.Concurrency, logger)
	optimizer := application.NewOptimizerService(resilient, store, logger)

	return &Engine{
		Config:       cfg,
		Logger:       logger,
		Store:        store,
		Analyzer:     analyzer,
		Orchestrator: orchestrator,
		Optimizer:    optimizer,
		Fetcher:      fetcher,
		Repo:         storage.NewFilesystemRepository(root),
	}, nil
}
