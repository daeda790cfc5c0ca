package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/callpulse/internal/ai"
	"github.com/KaramelBytes/callpulse/internal/dispatch"
	"github.com/KaramelBytes/callpulse/internal/feature"
	"github.com/KaramelBytes/callpulse/internal/journal"
	"github.com/KaramelBytes/callpulse/internal/logging"
	"github.com/KaramelBytes/callpulse/internal/prompt"
	"github.com/KaramelBytes/callpulse/internal/table"
)

// app is the wired pipeline shared by run, chat and serve.
type app struct {
	log      *zap.Logger
	registry *feature.Registry
	journal  *journal.Journal
}

func newApp(ctx context.Context) (*app, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, debug)
	if err != nil {
		return nil, err
	}
	a := &app{log: log}

	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	rt, err := ai.NewRuntime(ctx, cfg.Provider, ai.RuntimeConfig{
		HTTPTimeout: timeout,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Host:        cfg.OllamaHost,
	})
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = ai.DefaultModel(cfg.Provider)
	}
	log.Debug("runtime selected", zap.String("provider", cfg.Provider), zap.String("model", model))
	d := dispatch.New(ai.Summarizer{Runtime: rt, Model: model}, dispatch.Options{
		Timeout:       timeout,
		RatePerMinute: cfg.RateLimitPerMinute,
	}, log.Named("dispatch"))

	opts := []feature.Option{feature.WithLogger(log.Named("feature"))}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		a.journal = j
		opts = append(opts, feature.WithRecorder(j))
	}
	sources := feature.DefaultSources(cfg.DataDir, cfg.SourceEncoding, cfg.Delimiter())
	reg, err := feature.NewRegistry(table.FileLoader{}, sources, prompt.Composer{Language: cfg.ReportLanguage}, d, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.registry = reg
	return a, nil
}

func (a *app) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("close journal", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
