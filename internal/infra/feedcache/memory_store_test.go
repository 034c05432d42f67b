package feedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moodmirror/moodmirror/internal/domain/mood"
)

func sampleFeed() mood.FeedResult {
	return mood.FeedResult{
		DetectedEmotion: "Calm",
		Items: []mood.FeedItem{{
			ContentType: mood.ContentQuote,
			Details:     map[string]any{"text": "Breathe.", "author": "Unknown"},
		}},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Save(ctx, "k", sampleFeed(), time.Minute))
	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sampleFeed(), got)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "k", sampleFeed(), time.Minute))
	store.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, store.Len())
}

func TestMemoryStoreSkipsSentinels(t *testing.T) {
	store := NewMemoryStore()

	require.NoError(t, store.Save(context.Background(), "k", mood.SentinelResult("nope"), time.Minute))
	require.Zero(t, store.Len())
}
