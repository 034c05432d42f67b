package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/moodmirror/moodmirror/internal/domain/mood"
	"github.com/moodmirror/moodmirror/internal/infra/config"
	"github.com/moodmirror/moodmirror/internal/infra/feedcache"
	"github.com/moodmirror/moodmirror/internal/infra/llm/gemini"
)

// ProvideMoodConfig maps the loaded config onto the pipeline settings.
func ProvideMoodConfig(cfg *config.Config) mood.Config {
	return mood.Config{
		PromptVersion: cfg.Mood.PromptVersion,
		MinItems:      cfg.Mood.MinItems,
		MaxItems:      cfg.Mood.MaxItems,
		Model:         cfg.LLM.Model,
		Temperature:   cfg.LLM.Temperature,
		CacheTTL:      cfg.Mood.CacheTTL,
	}
}

// ProvideGenerator returns nil when no API key is configured, which leaves
// the service running with submission disabled.
func ProvideGenerator(cfg *config.Config, logger *slog.Logger) (mood.Generator, error) {
	if !cfg.SubmissionEnabled() {
		logger.Warn("llm api key not set, mood submission disabled")
		return nil, nil
	}
	client, err := gemini.NewClient(gemini.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.RequestTimeout,
		Retry: gemini.RetryPolicy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvideFeedStore prefers Valkey and falls back to process memory when it
// is disabled or unreachable. The cleanup closes the Valkey client.
func ProvideFeedStore(cfg *config.Config, logger *slog.Logger) (mood.Store, func()) {
	noop := func() {}
	if !cfg.Cache.Valkey.Enabled {
		return feedcache.NewMemoryStore(), noop
	}
	opt, err := buildValkeyOptions(cfg.Cache.Valkey)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return feedcache.NewMemoryStore(), noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return feedcache.NewMemoryStore(), noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return feedcache.NewMemoryStore(), noop
	}
	logger.Info("feed valkey cache enabled", "addr", cfg.Cache.Valkey.Addr)
	return feedcache.NewValkeyStore(client, cfg.Cache.Valkey.Prefix), client.Close
}

func buildValkeyOptions(cfg config.ValkeyConfig) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Addr, "://") {
		return valkey.ParseURL(cfg.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Addr}}, nil
}
