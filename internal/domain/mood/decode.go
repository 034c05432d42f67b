package mood

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/moodmirror/moodmirror/internal/infra/llm/gemini"
	"github.com/moodmirror/moodmirror/pkg/metrics"
)

// DecodeErrorKind classifies a fatal decode failure.
type DecodeErrorKind string

const (
	DecodeMissingPayload DecodeErrorKind = "missing_payload"
	DecodeMalformedJSON  DecodeErrorKind = "malformed_json"
	DecodeInvalidShape   DecodeErrorKind = "invalid_shape"
)

// DecodeError is never retried; the caller turns it into the sentinel.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
	}
	return "decode " + string(e.Kind)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(kind DecodeErrorKind, format string, args ...any) error {
	return &DecodeError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// DecodeStats carries non-fatal facts gathered while decoding.
type DecodeStats struct {
	Dropped int
	Usage   *metrics.TokenUsage
}

// Decoder validates generation responses into FeedResults.
type Decoder struct {
	legacy bool
	logger *slog.Logger
}

// NewDecoder returns a decoder for the given prompt version.
func NewDecoder(version string, logger *slog.Logger) *Decoder {
	return &Decoder{legacy: version == VersionLegacy, logger: logger.With("component", "mood.decoder")}
}

// Decode reads the response envelope in raw and validates the embedded payload.
func (d *Decoder) Decode(raw []byte) (FeedResult, DecodeStats, error) {
	payload, usage, err := extractPayload(raw)
	if err != nil {
		return FeedResult{}, DecodeStats{}, err
	}
	var (
		result FeedResult
		stats  DecodeStats
	)
	if d.legacy {
		result, err = DecodeLegacyPayload(payload)
	} else {
		result, stats, err = d.DecodePayload(payload)
	}
	stats.Usage = usage
	return result, stats, err
}

// extractPayload is step one: pull candidates[0].content.parts[0].text.
func extractPayload(raw []byte) (string, *metrics.TokenUsage, error) {
	var envelope gemini.GenerateContentResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", nil, &DecodeError{Kind: DecodeMalformedJSON, Err: fmt.Errorf("response envelope: %w", err)}
	}
	var usage *metrics.TokenUsage
	if u := envelope.UsageMetadata; u != nil {
		counted := metrics.TokenUsage{
			PromptTokens:     u.PromptTokenCount,
			CompletionTokens: u.CandidatesTokenCount,
			TotalTokens:      u.TotalTokenCount,
		}
		if !counted.IsZero() {
			usage = &counted
		}
	}
	text := stripFences(envelope.FirstText())
	if text == "" {
		if fb := envelope.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return "", usage, decodeErr(DecodeMissingPayload, "prompt blocked: %s", fb.BlockReason)
		}
		return "", usage, decodeErr(DecodeMissingPayload, "no candidate text in response")
	}
	return text, usage, nil
}

type feedWire struct {
	DetectedEmotion *string         `json:"detectedEmotion"`
	Feed            json.RawMessage `json:"feed"`
}

type itemWire struct {
	ContentType string         `json:"contentType"`
	Details     map[string]any `json:"details"`
}

// DecodePayload runs steps two and three on the nested feed JSON. Items with
// an unknown contentType are dropped and counted, not fatal, so the feed may
// come back empty.
func (d *Decoder) DecodePayload(payload string) (FeedResult, DecodeStats, error) {
	var wire feedWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return FeedResult{}, DecodeStats{}, &DecodeError{Kind: DecodeMalformedJSON, Err: err}
	}
	if wire.DetectedEmotion == nil || strings.TrimSpace(*wire.DetectedEmotion) == "" {
		return FeedResult{}, DecodeStats{}, decodeErr(DecodeInvalidShape, "detectedEmotion missing")
	}
	if len(wire.Feed) == 0 || string(wire.Feed) == "null" {
		return FeedResult{}, DecodeStats{}, decodeErr(DecodeInvalidShape, "feed missing")
	}
	var rawItems []json.RawMessage
	if err := json.Unmarshal(wire.Feed, &rawItems); err != nil {
		return FeedResult{}, DecodeStats{}, decodeErr(DecodeInvalidShape, "feed is not an array: %v", err)
	}

	var stats DecodeStats
	items := make([]FeedItem, 0, len(rawItems))
	for i, rawItem := range rawItems {
		var item itemWire
		if err := json.Unmarshal(rawItem, &item); err != nil {
			return FeedResult{}, DecodeStats{}, decodeErr(DecodeInvalidShape, "feed[%d] is not an object: %v", i, err)
		}
		ct := ContentType(item.ContentType)
		if !ct.IsKnown() {
			d.logger.Warn("dropping feed item with unknown content type", "content_type", item.ContentType, "index", i)
			stats.Dropped++
			continue
		}
		if item.Details == nil {
			return FeedResult{}, DecodeStats{}, decodeErr(DecodeInvalidShape, "feed[%d] details missing", i)
		}
		details, err := validateDetails(ct, item.Details)
		if err != nil {
			return FeedResult{}, DecodeStats{}, decodeErr(DecodeInvalidShape, "feed[%d] %s: %v", i, ct, err)
		}
		items = append(items, FeedItem{ContentType: ct, Details: details})
	}

	return FeedResult{DetectedEmotion: strings.TrimSpace(*wire.DetectedEmotion), Items: items}, stats, nil
}

// validateDetails keeps the fields allowed for ct, checks their kinds and
// requires the type's required set.
func validateDetails(ct ContentType, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for _, name := range detailFieldNames() {
		value, present := raw[name]
		if !present || value == nil || !ct.allows(name) {
			continue
		}
		switch detailFields[name] {
		case fieldNumber:
			n, err := coerceNumber(value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out[name] = n
		default:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be a string", name)
			}
			if s = strings.TrimSpace(s); s != "" {
				out[name] = s
			}
		}
	}
	for _, name := range contentRules[ct].required {
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("required field %s missing", name)
		}
	}
	return out, nil
}

// coerceNumber accepts a JSON number or a numeric string holding a whole,
// finite value. NaN and Inf would make the result unmarshalable.
func coerceNumber(value any) (float64, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.New("must be a number")
		}
		n = parsed
	default:
		return 0, errors.New("must be a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, errors.New("must be a finite number")
	}
	if n != math.Trunc(n) {
		return 0, errors.New("must be a whole number")
	}
	return n, nil
}

type legacyWire struct {
	Emotion        string `json:"emotion"`
	Recommendation string `json:"recommendation"`
}

// DecodeLegacyPayload maps the single {emotion, recommendation} shape onto a
// one-quote feed.
func DecodeLegacyPayload(payload string) (FeedResult, error) {
	var wire legacyWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return FeedResult{}, &DecodeError{Kind: DecodeMalformedJSON, Err: err}
	}
	emotion := strings.TrimSpace(wire.Emotion)
	quote := strings.TrimSpace(wire.Recommendation)
	if emotion == "" || quote == "" {
		return FeedResult{}, decodeErr(DecodeInvalidShape, "emotion and recommendation are required")
	}
	return FeedResult{
		DetectedEmotion: emotion,
		Items: []FeedItem{{
			ContentType: ContentQuote,
			Details:     map[string]any{"text": quote, "author": "Unknown"},
		}},
	}, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
