package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/judgesort/internal/a2a"
	"github.com/dusk-indust/judgesort/internal/config"
	"github.com/dusk-indust/judgesort/internal/ledger"
	"github.com/dusk-indust/judgesort/internal/oracle"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// judgeFlags are the flags shared by every command that talks to a judge.
type judgeFlags struct {
	backend string
	model   string
	retries int
	timeout time.Duration
}

func (f *judgeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "judge backend: openrouter, gemini or a2a")
	cmd.Flags().StringVar(&f.model, "model", "", "model identifier (default: the backend's pinned model)")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "retry unavailable judge calls this many times")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-request timeout (default 2m)")
}

// apply copies the flags the user set over cfg.
func (f *judgeFlags) apply(cmd *cobra.Command, cfg *config.Config, getenv func(string) string) {
	if cmd.Flags().Changed("backend") && f.backend != cfg.Backend {
		cfg.Backend = f.backend
		// The key variable follows the backend unless set explicitly.
		if cfg.APIKeyEnv == "" && getenv(config.EnvAPIKey) == "" {
			cfg.APIKey = getenv(cfg.KeyEnv())
		}
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = f.model
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries = f.retries
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = f.timeout
	}
}

// effectiveModel is the model a request without one will be answered by.
func effectiveModel(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	switch cfg.Backend {
	case config.BackendOpenRouter:
		return oracle.DefaultOpenRouterModel
	case config.BackendGemini:
		return oracle.DefaultGeminiModel
	}
	return ""
}

// newJudge builds the configured backend and wraps it in the retry and
// logging decorators.
func newJudge(ctx context.Context, cfg *config.Config, logger *zap.Logger) (oracle.Judge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var judge oracle.Judge
	switch cfg.Backend {
	case config.BackendOpenRouter:
		judge = oracle.NewOpenRouterJudge(oracle.OpenRouterConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, oracle.WithOpenRouterLogger(logger))
	case config.BackendGemini:
		g, err := oracle.NewGeminiJudge(ctx, oracle.GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		judge = g
	case config.BackendA2A:
		client := a2a.NewHTTPClient(a2a.WithTimeout(cfg.Timeout), a2a.WithClientLogger(logger))
		judge = oracle.NewA2AJudge(client, cfg.AgentURL, logger)
	}

	if cfg.Retries > 0 {
		judge = oracle.Retrying(judge, cfg.Retries, cfg.RetryBackoff, logger)
	}
	return oracle.Logged(judge, logger), nil
}

// openLedger opens the configured ledger store, or returns nil when no path
// is set.
func openLedger(ctx context.Context, lc config.LedgerConfig) (ledger.Store, error) {
	if lc.Path == "" {
		return nil, nil
	}
	store, err := ledger.Open(ctx, ledger.Backend(lc.Backend), lc.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", lc.Path, err)
	}
	return store, nil
}
