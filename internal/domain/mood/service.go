package mood

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/moodmirror/moodmirror/internal/infra/llm/gemini"
	apperrors "github.com/moodmirror/moodmirror/pkg/errors"
	"github.com/moodmirror/moodmirror/pkg/metrics"
	"github.com/moodmirror/moodmirror/pkg/util"
)

// Sentinel messages shown to users in place of a feed.
const (
	msgNetwork    = "Could not get a response. Check your network connection."
	msgExhausted  = "Could not get a response after retries."
	msgDecode     = "Failed to process the API response."
	msgSuperseded = "Request superseded by a newer submission."
	msgCanceled   = "Request canceled."
)

const warnNoAPIKey = "LLM API key is not configured; mood submission is disabled."

// Service is the pipeline the presentation layer calls.
type Service interface {
	// SubmitMood only errors for invalid input or disabled submission.
	// Every pipeline failure is reported as the sentinel FeedResult.
	SubmitMood(ctx context.Context, req Request) (Response, error)
	Status() Status
	Intents() []IntentInfo
	Counters() metrics.FeedSnapshot
}

// Generator sends a generation request upstream.
type Generator interface {
	Generate(ctx context.Context, req gemini.GenerateContentRequest) (gemini.RawResponse, error)
}

type service struct {
	cfg       Config
	builder   Builder
	decoder   *Decoder
	generator Generator
	store     Store
	counters  *metrics.FeedCounters
	sessions  *generations
	logger    *slog.Logger
	now       util.Clock
}

// NewService wires the mood pipeline. A nil generator disables submission.
func NewService(cfg Config, generator Generator, store Store, counters *metrics.FeedCounters, logger *slog.Logger) Service {
	if cfg.PromptVersion != VersionLegacy {
		cfg.PromptVersion = VersionFeed
	}
	if counters == nil {
		counters = metrics.NewFeedCounters()
	}
	return &service{
		cfg:       cfg,
		builder:   Builder{Version: cfg.PromptVersion, MinItems: cfg.MinItems, MaxItems: cfg.MaxItems},
		decoder:   NewDecoder(cfg.PromptVersion, logger),
		generator: generator,
		store:     store,
		counters:  counters,
		sessions:  newGenerations(),
		logger:    logger.With("component", "mood.service"),
		now:       util.NowUTC,
	}
}

func (s *service) SubmitMood(ctx context.Context, req Request) (Response, error) {
	query, err := NewMoodQuery(req.Text, req.Intent)
	if err != nil {
		return Response{}, err
	}
	if s.generator == nil {
		return Response{}, apperrors.Wrap(apperrors.CodeSubmissionDisabled, warnNoAPIKey, nil)
	}
	genReq, err := s.builder.Build(query)
	if err != nil {
		return Response{}, err
	}

	start := s.now()
	s.counters.IncQueries()
	resp := Response{QueryID: uuid.NewString()}
	logger := s.logger.With("query_id", resp.QueryID, "intent", string(query.Intent))

	ctx, tk, release := s.sessions.begin(ctx, req.SessionID)
	defer release()

	key := CacheKey(genReq.Version, query)
	if cached, ok := s.lookup(ctx, key, logger); ok {
		s.counters.IncCacheHits()
		resp.FeedResult = cached
		resp.Cached = true
		return s.finish(resp, start), nil
	}

	raw, err := s.generator.Generate(ctx, toGeminiRequest(genReq, s.cfg.Temperature))
	if err != nil {
		resp.FeedResult = s.sentinel(tk, requestErrorMessage(err))
		logger.Error("mood generation failed", "error", err)
		return s.finish(resp, start), nil
	}

	result, stats, err := s.decoder.Decode(raw.Body)
	resp.TokenUsage = stats.Usage
	if err != nil {
		resp.FeedResult = s.sentinel(tk, msgDecode)
		logger.Error("mood response decode failed", "error", err, "attempts", raw.Attempts)
		return s.finish(resp, start), nil
	}
	if !s.sessions.isCurrent(tk) {
		resp.FeedResult = s.sentinel(tk, msgSuperseded)
		return s.finish(resp, start), nil
	}

	s.counters.AddDropped(stats.Dropped)
	resp.FeedResult = result
	resp.DroppedItems = stats.Dropped
	s.save(ctx, key, result, logger)
	logger.Info("mood feed generated", "emotion", result.DetectedEmotion, "items", len(result.Items), "dropped", stats.Dropped, "attempts", raw.Attempts)
	return s.finish(resp, start), nil
}

func (s *service) Status() Status {
	st := Status{
		SubmissionEnabled: s.generator != nil,
		PromptVersion:     s.cfg.PromptVersion,
		Model:             s.cfg.Model,
	}
	if !st.SubmissionEnabled {
		st.Warning = warnNoAPIKey
	}
	return st
}

func (s *service) Intents() []IntentInfo {
	out := make([]IntentInfo, 0, len(intentOrder))
	for _, intent := range intentOrder {
		out = append(out, IntentInfo{Name: intent, Description: intent.Description()})
	}
	return out
}

func (s *service) Counters() metrics.FeedSnapshot {
	return s.counters.Snapshot()
}

// sentinel prefers the superseded message when a newer submission won.
func (s *service) sentinel(tk ticket, message string) FeedResult {
	if !s.sessions.isCurrent(tk) {
		message = msgSuperseded
	}
	s.counters.IncSentinels()
	return SentinelResult(message)
}

func (s *service) finish(resp Response, start time.Time) Response {
	resp.GeneratedAt = s.now()
	resp.DurationMs = util.MillisSince(s.now, start)
	return resp
}

func (s *service) lookup(ctx context.Context, key string, logger *slog.Logger) (FeedResult, bool) {
	if s.store == nil || s.cfg.CacheTTL <= 0 {
		return FeedResult{}, false
	}
	cached, ok, err := s.store.Get(ctx, key)
	if err != nil {
		logger.Warn("feed cache lookup failed", "error", err)
		return FeedResult{}, false
	}
	return cached, ok
}

func (s *service) save(ctx context.Context, key string, result FeedResult, logger *slog.Logger) {
	if s.store == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	if err := s.store.Save(ctx, key, result, s.cfg.CacheTTL); err != nil {
		logger.Warn("feed cache save failed", "error", err)
	}
}

func requestErrorMessage(err error) string {
	var reqErr *gemini.RequestError
	if !errors.As(err, &reqErr) {
		return msgExhausted
	}
	switch reqErr.Kind {
	case gemini.KindTerminal:
		return "API Error: " + reqErr.StatusText()
	case gemini.KindNetworkExhausted:
		return msgNetwork
	case gemini.KindCanceled:
		return msgCanceled
	default:
		return msgExhausted
	}
}

func toGeminiRequest(req GenerationRequest, temperature float32) gemini.GenerateContentRequest {
	cfg := gemini.GenerationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if temperature > 0 {
		t := temperature
		cfg.Temperature = &t
	}
	return gemini.GenerateContentRequest{
		Contents:          []gemini.Content{{Parts: []gemini.Part{{Text: req.PayloadText}}}},
		SystemInstruction: &gemini.Content{Parts: []gemini.Part{{Text: req.InstructionText}}},
		GenerationConfig:  cfg,
	}
}
