package mood

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/moodmirror/moodmirror/pkg/errors"
)

func TestBuildIsDeterministic(t *testing.T) {
	b := Builder{Version: VersionFeed, MinItems: 5, MaxItems: 7}
	query := MoodQuery{RawText: "I finally finished my thesis", Intent: IntentBoost}

	first, err := b.Build(query)
	require.NoError(t, err)
	second, err := b.Build(query)
	require.NoError(t, err)
	require.Equal(t, first, second)

	a, err := json.Marshal(first.Schema)
	require.NoError(t, err)
	c, err := json.Marshal(second.Schema)
	require.NoError(t, err)
	require.Equal(t, string(a), string(c))
}

func TestBuildFeedEmbedsTextAndIntent(t *testing.T) {
	b := Builder{Version: VersionFeed, MinItems: 5, MaxItems: 7}
	req, err := b.Build(MoodQuery{RawText: "  rainy sunday  ", Intent: IntentCalm})
	require.NoError(t, err)

	require.Equal(t, VersionFeed, req.Version)
	require.Contains(t, req.InstructionText, `The user's text is: "rainy sunday"`)
	require.Contains(t, req.InstructionText, `"Calm" (Help me relax)`)
	require.Contains(t, req.InstructionText, "5-7 content items")
	require.Contains(t, req.InstructionText, `- For "quote": details must have "text", "author"`)
	require.Equal(t, "Analyze the user input and generate the feed.", req.PayloadText)

	require.Equal(t, []string{"detectedEmotion", "feed"}, req.Schema.Required)
	items := req.Schema.Properties["feed"].Items
	require.Equal(t, []string{"contentType", "details"}, items.Required)
	require.Len(t, items.Properties["contentType"].Enum, 11)
	require.Equal(t, "NUMBER", items.Properties["details"].Properties["year"].Type)
}

func TestBuildLegacy(t *testing.T) {
	b := Builder{Version: VersionLegacy}
	req, err := b.Build(MoodQuery{RawText: "nervous about tomorrow", Intent: IntentReflect})
	require.NoError(t, err)

	require.Equal(t, VersionLegacy, req.Version)
	require.Equal(t, "nervous about tomorrow", req.PayloadText)
	require.Contains(t, req.InstructionText, "Find content that matches my feeling")
	require.Equal(t, []string{"emotion", "recommendation"}, req.Schema.Required)
}

func TestBuildRejectsInvalidQuery(t *testing.T) {
	b := Builder{Version: VersionFeed}

	_, err := b.Build(MoodQuery{RawText: " \t\n", Intent: IntentLift})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = b.Build(MoodQuery{RawText: "ok", Intent: "Sulk"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestNewMoodQuery(t *testing.T) {
	q, err := NewMoodQuery("  café vibes\x00 ", "lift")
	require.NoError(t, err)
	require.Equal(t, IntentLift, q.Intent)
	require.Equal(t, "café vibes", q.RawText)

	_, err = NewMoodQuery("fine", "")
	require.EqualError(t, err, "intent must be one of Reflect, Lift, Calm, Boost")

	_, err = NewMoodQuery("", "Calm")
	require.EqualError(t, err, "text cannot be empty")
}

func TestIntentDescriptions(t *testing.T) {
	require.Equal(t, "Find content that matches my feeling", IntentReflect.Description())
	require.Equal(t, "Improve my mood", IntentLift.Description())
	require.Equal(t, "Help me relax", IntentCalm.Description())
	require.Equal(t, "Get me motivated", IntentBoost.Description())
}
