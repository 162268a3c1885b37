package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hpungsan/quill/internal/brand"
	"github.com/hpungsan/quill/internal/cache"
	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/generator"
	"github.com/hpungsan/quill/internal/httpclient"
	"github.com/hpungsan/quill/internal/llm"
	"github.com/hpungsan/quill/internal/logger"
	"github.com/hpungsan/quill/internal/notify"
	"github.com/hpungsan/quill/internal/notion"
	"github.com/hpungsan/quill/internal/pipeline"
	"github.com/hpungsan/quill/internal/threads"
)

// appEnv is what every command runs against.
type appEnv struct {
	db       *sql.DB
	cfg      *config.Config
	pipeline *pipeline.Pipeline
}

// buildPipeline wires the collaborators that have credentials. Missing
// credentials leave a collaborator unset; the operations needing it then
// report what to configure.
func buildPipeline(ctx context.Context, database *sql.DB, cfg *config.Config, secrets config.Secrets) (*pipeline.Pipeline, error) {
	profile, err := brand.Load(cfg.BrandProfilePath)
	if err != nil {
		return nil, err
	}
	if profile.IsEmpty() {
		logger.DebugWithFields("no brand profile loaded", logger.Fields{"path": cfg.BrandProfilePath})
	}

	httpClient := httpclient.New(httpclient.Config{Timeout: cfg.RequestTimeout()})
	deps := pipeline.Deps{Profile: profile}

	completer, err := llm.New(ctx, llm.Settings{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      secrets.LLMKey(cfg.Provider),
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.RequestTimeout(),
	})
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		logger.DebugWithFields("language model not configured", logger.Fields{"provider": cfg.Provider})
	case err != nil:
		return nil, fmt.Errorf("llm: %w", err)
	default:
		gen, err := generator.New(completer)
		if err != nil {
			return nil, err
		}
		gen.MaxTokens = cfg.MaxTokens
		gen.Temperature = cfg.Temperature
		deps.Generator = gen
	}

	if secrets.NotionAPIKey != "" && secrets.NotionDatabaseID != "" {
		client, err := notion.New(notion.Config{
			APIKey:     secrets.NotionAPIKey,
			DatabaseID: secrets.NotionDatabaseID,
			HTTPClient: httpClient,
		})
		if err != nil {
			return nil, err
		}
		deps.Briefs = client
	}

	if secrets.ThreadsAccessToken != "" {
		client, err := threads.New(threads.Config{
			AccessToken: secrets.ThreadsAccessToken,
			HTTPClient:  httpClient,
		})
		if err != nil {
			return nil, err
		}

		store := cache.NewSQLite(database)
		if n, err := store.Purge(ctx); err != nil {
			logger.WarnWithFields("history cache purge failed", logger.Fields{"error": err.Error()})
		} else if n > 0 {
			logger.DebugWithFields("history cache purged", logger.Fields{"entries": n})
		}

		deps.Publisher = client
		deps.History = &cache.CachedHistory{
			Source: client,
			Cache:  store,
			TTL:    cfg.HistoryCacheTTL(),
			Prefix: "threads",
		}
	}

	if secrets.EmailConfigured() {
		n, err := notify.NewSMTP(notify.SMTPConfig{
			Username: secrets.GmailAddress,
			Password: secrets.GmailAppPassword,
			To:       secrets.NotificationEmail,
			BaseURL:  secrets.BaseURL(cfg),
			Timeout:  cfg.RequestTimeout(),
		})
		if err != nil {
			return nil, err
		}
		deps.Notifier = n
	}

	return pipeline.New(database, cfg, deps), nil
}
