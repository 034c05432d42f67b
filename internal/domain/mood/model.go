package mood

import (
	"strings"
	"time"

	"github.com/moodmirror/moodmirror/pkg/metrics"
)

// Intent is the user's goal for the feed.
type Intent string

const (
	IntentReflect Intent = "Reflect"
	IntentLift    Intent = "Lift"
	IntentCalm    Intent = "Calm"
	IntentBoost   Intent = "Boost"
)

var intentOrder = []Intent{IntentReflect, IntentLift, IntentCalm, IntentBoost}

var intentDescriptions = map[Intent]string{
	IntentReflect: "Find content that matches my feeling",
	IntentLift:    "Improve my mood",
	IntentCalm:    "Help me relax",
	IntentBoost:   "Get me motivated",
}

// ParseIntent matches raw case-insensitively against the known intents.
func ParseIntent(raw string) (Intent, bool) {
	raw = strings.TrimSpace(raw)
	for _, intent := range intentOrder {
		if strings.EqualFold(raw, string(intent)) {
			return intent, true
		}
	}
	return "", false
}

// Description is the fixed human readable text used in prompts.
func (i Intent) Description() string {
	return intentDescriptions[i]
}

// IntentInfo describes an intent for API consumers.
type IntentInfo struct {
	Name        Intent `json:"name"`
	Description string `json:"description"`
}

// MoodQuery is one validated user submission.
type MoodQuery struct {
	RawText string
	Intent  Intent
}

// ContentType tags a feed item. The set is closed.
type ContentType string

const (
	ContentQuote       ContentType = "quote"
	ContentSong        ContentType = "song"
	ContentAlbum       ContentType = "album"
	ContentPlaylist    ContentType = "playlist"
	ContentMovie       ContentType = "movie"
	ContentBook        ContentType = "book"
	ContentTVShow      ContentType = "tvShow"
	ContentArticle     ContentType = "article"
	ContentPodcast     ContentType = "podcast"
	ContentArt         ContentType = "art"
	ContentPhotography ContentType = "photography"

	// ContentError only appears on the sentinel item.
	ContentError ContentType = "error"
)

// ContentTypes lists the types a model may return, in prompt order.
var ContentTypes = []ContentType{
	ContentQuote, ContentSong, ContentAlbum, ContentPlaylist, ContentMovie, ContentBook,
	ContentTVShow, ContentArticle, ContentPodcast, ContentArt, ContentPhotography,
}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldNumber
)

// detailFields is every field a details map may carry, with its JSON kind.
var detailFields = map[string]fieldKind{
	"text":        fieldString,
	"author":      fieldString,
	"title":       fieldString,
	"artist":      fieldString,
	"url":         fieldString,
	"year":        fieldNumber,
	"description": fieldString,
	"imageUrl":    fieldString,
	"coverImg":    fieldString,
	"sourceName":  fieldString,
	"podcastName": fieldString,
}

type contentRule struct {
	required []string
	optional []string
	hint     string
}

var contentRules = map[ContentType]contentRule{
	ContentQuote:       {required: []string{"text", "author"}, hint: `If no author is known, use "Unknown".`},
	ContentSong:        {required: []string{"title", "artist", "url"}, optional: []string{"imageUrl"}, hint: "url is a plausible spotify.com link; imageUrl is a placeholder."},
	ContentAlbum:       {required: []string{"title", "artist", "url"}, optional: []string{"imageUrl"}, hint: "url is a spotify.com link; imageUrl is a placeholder."},
	ContentPlaylist:    {required: []string{"title", "sourceName", "url"}, hint: `sourceName is e.g. "Spotify" or "Apple Music".`},
	ContentMovie:       {required: []string{"title", "year", "description", "url"}, optional: []string{"imageUrl"}, hint: "year is a number; description is 1-2 sentences; url is an imdb.com link."},
	ContentBook:        {required: []string{"title", "author", "url"}, optional: []string{"coverImg"}, hint: "url is a goodreads.com link; coverImg is a placeholder."},
	ContentTVShow:      {required: []string{"title", "year", "description", "url"}, optional: []string{"imageUrl"}, hint: "year is a number; description is 1-2 sentences; url is an imdb.com link."},
	ContentArticle:     {required: []string{"title", "sourceName", "url"}, hint: `sourceName is e.g. "Medium" or "The New York Times".`},
	ContentPodcast:     {required: []string{"title", "podcastName", "url"}, hint: "title is the episode title; podcastName is the show name."},
	ContentArt:         {required: []string{"title", "artist", "url"}, optional: []string{"imageUrl"}, hint: "url is a viewing link."},
	ContentPhotography: {required: []string{"title", "artist", "url"}, optional: []string{"imageUrl"}, hint: "artist is the photographer."},
}

// IsKnown reports whether t is one of the model-facing content types.
func (t ContentType) IsKnown() bool {
	_, ok := contentRules[t]
	return ok
}

// RequiredFields returns the details keys t must carry.
func (t ContentType) RequiredFields() []string {
	return append([]string(nil), contentRules[t].required...)
}

func (t ContentType) allows(field string) bool {
	rule := contentRules[t]
	for _, f := range rule.required {
		if f == field {
			return true
		}
	}
	for _, f := range rule.optional {
		if f == field {
			return true
		}
	}
	return false
}

// FeedItem is one recommendation card. Details values are strings or float64.
type FeedItem struct {
	ContentType ContentType    `json:"contentType"`
	Details     map[string]any `json:"details"`
}

// FeedResult is either fully valid or the single sentinel error item.
type FeedResult struct {
	DetectedEmotion string     `json:"detectedEmotion"`
	Items           []FeedItem `json:"feed"`
}

// SentinelEmotion marks the error result.
const SentinelEmotion = "Error"

// SentinelResult is the only recovery path: a single error card carrying message.
func SentinelResult(message string) FeedResult {
	return FeedResult{
		DetectedEmotion: SentinelEmotion,
		Items: []FeedItem{{
			ContentType: ContentError,
			Details: map[string]any{
				"emotion": SentinelEmotion,
				"text":    message,
			},
		}},
	}
}

// IsSentinel reports whether r is the error sentinel.
func (r FeedResult) IsSentinel() bool {
	return r.DetectedEmotion == SentinelEmotion && len(r.Items) == 1 && r.Items[0].ContentType == ContentError
}

// Request is the submitMood payload.
type Request struct {
	Text      string `json:"text"`
	Intent    string `json:"intent"`
	SessionID string `json:"sessionId,omitempty"`
}

// Response wraps a FeedResult with per-query facts.
type Response struct {
	QueryID string `json:"queryId"`
	FeedResult
	DroppedItems int                 `json:"droppedItems"`
	Cached       bool                `json:"cached"`
	GeneratedAt  time.Time           `json:"generatedAt"`
	DurationMs   int64               `json:"durationMs"`
	TokenUsage   *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// Status tells clients whether submission is available.
type Status struct {
	SubmissionEnabled bool   `json:"submissionEnabled"`
	PromptVersion     string `json:"promptVersion"`
	Model             string `json:"model"`
	Warning           string `json:"warning,omitempty"`
}

// Config wires runtime knobs for the mood domain.
type Config struct {
	PromptVersion string
	MinItems      int
	MaxItems      int
	Model         string
	Temperature   float32
	CacheTTL      time.Duration
}
