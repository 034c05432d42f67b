package mood

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	apperrors "github.com/moodmirror/moodmirror/pkg/errors"
)

// Prompt versions.
const (
	VersionFeed   = "feed"
	VersionLegacy = "legacy"
)

// SchemaDescriptor declares the JSON shape the model must return. It
// marshals to the responseSchema dialect of the generation endpoint.
type SchemaDescriptor struct {
	Type       string                       `json:"type"`
	Properties map[string]*SchemaDescriptor `json:"properties,omitempty"`
	Items      *SchemaDescriptor            `json:"items,omitempty"`
	Enum       []string                     `json:"enum,omitempty"`
	Required   []string                     `json:"required,omitempty"`
}

// GenerationRequest is derived from a MoodQuery and owned by one call.
type GenerationRequest struct {
	Version         string
	InstructionText string
	Schema          *SchemaDescriptor
	PayloadText     string
}

// Builder turns a MoodQuery into a GenerationRequest. It is pure.
type Builder struct {
	Version  string
	MinItems int
	MaxItems int
}

// NewMoodQuery validates raw user input.
func NewMoodQuery(text, intent string) (MoodQuery, error) {
	clean := normalizeText(text)
	if clean == "" {
		return MoodQuery{}, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil)
	}
	parsed, ok := ParseIntent(intent)
	if !ok {
		return MoodQuery{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("intent must be one of %s", strings.Join(intentNames(), ", ")), nil)
	}
	return MoodQuery{RawText: clean, Intent: parsed}, nil
}

// Build produces the instruction, schema and payload for query.
func (b Builder) Build(query MoodQuery) (GenerationRequest, error) {
	text := normalizeText(query.RawText)
	if text == "" {
		return GenerationRequest{}, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil)
	}
	if _, ok := intentDescriptions[query.Intent]; !ok {
		return GenerationRequest{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown intent %q", query.Intent), nil)
	}

	if b.Version == VersionLegacy {
		return GenerationRequest{
			Version:         VersionLegacy,
			InstructionText: legacyInstruction(text, query.Intent),
			Schema:          legacySchema(),
			PayloadText:     text,
		}, nil
	}
	return GenerationRequest{
		Version:         VersionFeed,
		InstructionText: b.feedInstruction(text, query.Intent),
		Schema:          feedSchema(),
		PayloadText:     "Analyze the user input and generate the feed.",
	}, nil
}

func (b Builder) itemBounds() (int, int) {
	lo, hi := b.MinItems, b.MaxItems
	if lo <= 0 {
		lo = 5
	}
	if hi < lo {
		hi = lo + 2
	}
	return lo, hi
}

func (b Builder) feedInstruction(text string, intent Intent) string {
	lo, hi := b.itemBounds()
	var sb strings.Builder
	sb.WriteString(`You are MoodMirror's "MirrorMatch Engine". Your task is to generate a personalized content feed.` + "\n")
	sb.WriteString(`Analyze the user's emotion from their text input. Then consider their chosen "intent".` + "\n")
	sb.WriteString("Based on the emotion and intent, return a JSON object containing a 'feed' key.\n")
	fmt.Fprintf(&sb, "The 'feed' array must contain %d-%d content items.\n", lo, hi)
	fmt.Fprintf(&sb, "Mix the content types, choosing from: %s.\n", quotedTypes())
	sb.WriteString("Include at least one media item (not just quotes) if possible.\n")
	fmt.Fprintf(&sb, "The user's text is: \"%s\"\n", text)
	fmt.Fprintf(&sb, "The user's intent is: \"%s\" (%s)\n\n", intent, intent.Description())
	sb.WriteString("Respond only with the JSON object. Do not include markdown.\n")
	sb.WriteString("Each item in the 'feed' array must have a 'contentType' field and a 'details' field.\n")
	for _, ct := range ContentTypes {
		rule := contentRules[ct]
		fmt.Fprintf(&sb, "- For %q: details must have %s", string(ct), quotedList(rule.required))
		if len(rule.optional) > 0 {
			fmt.Fprintf(&sb, " and may have %s", quotedList(rule.optional))
		}
		fmt.Fprintf(&sb, ". %s\n", rule.hint)
	}
	sb.WriteString("Also include a top-level 'detectedEmotion' field with the emotion you found.")
	return sb.String()
}

func legacyInstruction(text string, intent Intent) string {
	return fmt.Sprintf(
		"You are MoodMirror. Analyze the user's emotion from the provided text. "+
			"The user's text is: \"%s\". The user's intent is: \"%s\" (%s). "+
			"Respond only with a JSON object in the format: {\"emotion\": \"emotion_name\", \"recommendation\": \"A short, relevant quote in English\"}. "+
			"Do not include other text or markdown formatting.",
		text, intent, intent.Description(),
	)
}

func feedSchema() *SchemaDescriptor {
	details := &SchemaDescriptor{Type: "OBJECT", Properties: make(map[string]*SchemaDescriptor, len(detailFields))}
	for name, kind := range detailFields {
		typ := "STRING"
		if kind == fieldNumber {
			typ = "NUMBER"
		}
		details.Properties[name] = &SchemaDescriptor{Type: typ}
	}
	types := make([]string, 0, len(ContentTypes))
	for _, ct := range ContentTypes {
		types = append(types, string(ct))
	}
	return &SchemaDescriptor{
		Type: "OBJECT",
		Properties: map[string]*SchemaDescriptor{
			"detectedEmotion": {Type: "STRING"},
			"feed": {
				Type: "ARRAY",
				Items: &SchemaDescriptor{
					Type: "OBJECT",
					Properties: map[string]*SchemaDescriptor{
						"contentType": {Type: "STRING", Enum: types},
						"details":     details,
					},
					Required: []string{"contentType", "details"},
				},
			},
		},
		Required: []string{"detectedEmotion", "feed"},
	}
}

func legacySchema() *SchemaDescriptor {
	return &SchemaDescriptor{
		Type: "OBJECT",
		Properties: map[string]*SchemaDescriptor{
			"emotion":        {Type: "STRING"},
			"recommendation": {Type: "STRING"},
		},
		Required: []string{"emotion", "recommendation"},
	}
}

// normalizeText trims, composes to NFC and drops control runes other than
// newline and tab.
func normalizeText(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text))
}

func intentNames() []string {
	names := make([]string, 0, len(intentOrder))
	for _, intent := range intentOrder {
		names = append(names, string(intent))
	}
	return names
}

func quotedTypes() string {
	names := make([]string, 0, len(ContentTypes))
	for _, ct := range ContentTypes {
		names = append(names, string(ct))
	}
	return quotedList(names)
}

func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}

// detailFieldNames returns the details keys in stable order.
func detailFieldNames() []string {
	names := make([]string, 0, len(detailFields))
	for name := range detailFields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
