package mood

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSingleQuote(t *testing.T) {
	raw := envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"quote","details":{"text":"Carry on.","author":"Unknown"}}]}`)

	result, stats, err := newTestDecoder(VersionFeed).Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "Joy", result.DetectedEmotion)
	require.Len(t, result.Items, 1)
	require.Equal(t, ContentQuote, result.Items[0].ContentType)
	require.Equal(t, map[string]any{"text": "Carry on.", "author": "Unknown"}, result.Items[0].Details)
	require.Zero(t, stats.Dropped)
}

func TestDecodeDropsUnknownContentType(t *testing.T) {
	raw := envelope(t, `{"detectedEmotion":"Calm","feed":[
		{"contentType":"unknownType","details":{"title":"?"}},
		{"contentType":"quote","details":{"text":"Breathe.","author":"Thich Nhat Hanh"}}
	]}`)

	result, stats, err := newTestDecoder(VersionFeed).Decode(raw)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, ContentQuote, result.Items[0].ContentType)
	require.Equal(t, 1, stats.Dropped)
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		kind DecodeErrorKind
	}{
		{
			name: "envelope not json",
			raw:  []byte(`<html>`),
			kind: DecodeMalformedJSON,
		},
		{
			name: "no candidates",
			raw:  []byte(`{"candidates":[]}`),
			kind: DecodeMissingPayload,
		},
		{
			name: "blocked prompt",
			raw:  []byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`),
			kind: DecodeMissingPayload,
		},
		{
			name: "empty text",
			raw:  envelope(t, "   "),
			kind: DecodeMissingPayload,
		},
		{
			name: "truncated payload",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"quote"`),
			kind: DecodeMalformedJSON,
		},
		{
			name: "missing emotion",
			raw:  envelope(t, `{"feed":[{"contentType":"quote","details":{"text":"a","author":"b"}}]}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "feed not array",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":{"contentType":"quote"}}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "details missing",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"quote"}]}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "required field missing",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"movie","details":{"title":"Up","url":"https://imdb.com/x","description":"Balloons."}}]}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "wrong field type",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"quote","details":{"text":42,"author":"b"}}]}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "year not a number",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"movie","details":{"title":"Up","year":"NaN","url":"https://imdb.com/x","description":"Balloons."}}]}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "year infinite",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"tvShow","details":{"title":"Up","year":"+Inf","url":"https://imdb.com/x","description":"Balloons."}}]}`),
			kind: DecodeInvalidShape,
		},
		{
			name: "year fractional",
			raw:  envelope(t, `{"detectedEmotion":"Joy","feed":[{"contentType":"movie","details":{"title":"Up","year":2009.5,"url":"https://imdb.com/x","description":"Balloons."}}]}`),
			kind: DecodeInvalidShape,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestDecoder(VersionFeed).Decode(tt.raw)
			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			require.Equal(t, tt.kind, decErr.Kind)
		})
	}
}

func TestDecodeEmptyFeedIsNotFatal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		dropped int
	}{
		{"only unknown items", `{"detectedEmotion":"Joy","feed":[{"contentType":"hologram","details":{}}]}`, 1},
		{"empty array", `{"detectedEmotion":"Joy","feed":[]}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, stats, err := newTestDecoder(VersionFeed).Decode(envelope(t, tt.payload))
			require.NoError(t, err)
			require.Equal(t, "Joy", result.DetectedEmotion)
			require.NotNil(t, result.Items)
			require.Empty(t, result.Items)
			require.Equal(t, tt.dropped, stats.Dropped)

			encoded, err := json.Marshal(result)
			require.NoError(t, err)
			require.JSONEq(t, `{"detectedEmotion":"Joy","feed":[]}`, string(encoded))
		})
	}
}

func TestDecodeNormalizesDetails(t *testing.T) {
	raw := envelope(t, "```json\n"+`{"detectedEmotion":" Nostalgia ","feed":[
		{"contentType":"movie","details":{"title":"Amélie","year":"2001","description":"A shy waitress.","url":"https://imdb.com/title/tt0211915","imageUrl":"https://placehold.co/1","text":"stray"}},
		{"contentType":"book","details":{"title":"Norwegian Wood","author":"Haruki Murakami","url":"https://goodreads.com/x","coverImg":null}}
	]}`+"\n```")

	result, _, err := newTestDecoder(VersionFeed).Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "Nostalgia", result.DetectedEmotion)
	require.Equal(t, map[string]any{
		"title":       "Amélie",
		"year":        2001.0,
		"description": "A shy waitress.",
		"url":         "https://imdb.com/title/tt0211915",
		"imageUrl":    "https://placehold.co/1",
	}, result.Items[0].Details)
	require.NotContains(t, result.Items[1].Details, "coverImg")
}

func TestDecodeRoundTrip(t *testing.T) {
	raw := envelope(t, `{"detectedEmotion":"Hope","feed":[
		{"contentType":"song","details":{"title":"Here Comes the Sun","artist":"The Beatles","url":"https://open.spotify.com/track/1"}},
		{"contentType":"tvShow","details":{"title":"Ted Lasso","year":2020,"description":"Kindness wins.","url":"https://imdb.com/title/tt10986410"}}
	]}`)
	dec := newTestDecoder(VersionFeed)

	first, _, err := dec.Decode(raw)
	require.NoError(t, err)

	reencoded, err := json.Marshal(first)
	require.NoError(t, err)
	second, _, err := dec.DecodePayload(string(reencoded))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDecodeLegacy(t *testing.T) {
	raw := envelope(t, `{"emotion":"Sadness","recommendation":"This too shall pass."}`)

	result, _, err := newTestDecoder(VersionLegacy).Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "Sadness", result.DetectedEmotion)
	require.Equal(t, []FeedItem{{ContentType: ContentQuote, Details: map[string]any{"text": "This too shall pass.", "author": "Unknown"}}}, result.Items)
}

func TestDecodeUsageMetadata(t *testing.T) {
	raw := []byte(`{"candidates":[{"content":{"parts":[{"text":"{\"detectedEmotion\":\"Joy\",\"feed\":[{\"contentType\":\"quote\",\"details\":{\"text\":\"a\",\"author\":\"b\"}}]}"}]}}],
		"usageMetadata":{"promptTokenCount":120,"candidatesTokenCount":80,"totalTokenCount":200}}`)

	_, stats, err := newTestDecoder(VersionFeed).Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, stats.Usage)
	require.Equal(t, 200, stats.Usage.TotalTokens)
	require.Equal(t, 80, stats.Usage.CompletionTokens)
}

func TestDecodeZeroUsageIsOmitted(t *testing.T) {
	raw := []byte(`{"candidates":[{"content":{"parts":[{"text":"{\"detectedEmotion\":\"Joy\",\"feed\":[]}"}]}}],
		"usageMetadata":{"promptTokenCount":0,"candidatesTokenCount":0,"totalTokenCount":0}}`)

	_, stats, err := newTestDecoder(VersionFeed).Decode(raw)
	require.NoError(t, err)
	require.Nil(t, stats.Usage)
}

func TestSentinelResult(t *testing.T) {
	result := SentinelResult("boom")
	require.True(t, result.IsSentinel())
	require.Equal(t, "Error", result.DetectedEmotion)
	require.Equal(t, map[string]any{"emotion": "Error", "text": "boom"}, result.Items[0].Details)
}

func envelope(t *testing.T, text string) []byte {
	t.Helper()
	body := map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	}
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return data
}

func newTestDecoder(version string) *Decoder {
	return NewDecoder(version, newTestLogger())
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
