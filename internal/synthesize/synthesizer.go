package synthesize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

// DefaultInputCharBudget bounds how much document text is sent to the model
const DefaultInputCharBudget = 12000

// ProviderUnavailableError signals that no language model client is
// configured. Callers fall back to heuristic segmentation.
type ProviderUnavailableError struct{}

func (e *ProviderUnavailableError) Error() string {
	return "no language model provider configured"
}

// MalformedResponseError signals the model returned something that is not a
// parseable slide deck
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Reason)
}

// ChatCompleter is the slice of the OpenAI client the synthesizer needs
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Synthesizer turns extracted document text into a slide deck via a
// language model. Parse and provider errors propagate unretried; the
// conversion service owns the fallback to heuristic segmentation.
type Synthesizer struct {
	client          ChatCompleter
	model           string
	InputCharBudget int
}

// New builds a synthesizer. A nil client produces a synthesizer whose
// Synthesize always fails with ProviderUnavailableError.
func New(client ChatCompleter, model string) *Synthesizer {
	if model == "" {
		model = openai.GPT4TurboPreview
	}
	return &Synthesizer{
		client:          client,
		model:           model,
		InputCharBudget: DefaultInputCharBudget,
	}
}

// Enabled reports whether a provider is configured
func (s *Synthesizer) Enabled() bool {
	return s != nil && s.client != nil
}

const systemPrompt = `You are a presentation designer. You turn document text into a rich,
narrated slide deck. Respond with a single JSON object of the form:

{"slides": [{"title": string, "content": [string, ...], "type": string,
"quote": string, "attribution": string, "leftContent": [string, ...],
"rightContent": [string, ...], "highlight": bool, "imageIndices": [int, ...]}]}

Rules:
- "type" is one of: title, content, quote, two-column, highlight, section-divider.
- Bullets in "content" should be full sentences, two or more where the source allows.
- Use "quote"/"attribution" only for quote slides, "leftContent"/"rightContent" only
  for two-column slides.
- "imageIndices" may reference the numbered images listed in the request; omit it
  when a slide has no matching image.
- Output only the JSON object, no commentary.`

// aiSlide is the wire shape the model is asked to produce
type aiSlide struct {
	Title        string   `json:"title"`
	Content      []string `json:"content"`
	Type         string   `json:"type"`
	Quote        string   `json:"quote"`
	Attribution  string   `json:"attribution"`
	LeftContent  []string `json:"leftContent"`
	RightContent []string `json:"rightContent"`
	Highlight    bool     `json:"highlight"`
	ImageIndices []int    `json:"imageIndices"`
}

type aiDeck struct {
	Slides []aiSlide `json:"slides"`
}

// Synthesize sends the document text to the model and parses back a deck.
// When targetCount > 0 the result always has exactly targetCount slides,
// regardless of how many the model produced.
func (s *Synthesizer) Synthesize(ctx context.Context, text, filename string, targetCount int, images []deck.ExtractedImage) ([]deck.Slide, error) {
	if !s.Enabled() {
		return nil, &ProviderUnavailableError{}
	}

	prompt := s.buildUserPrompt(text, filename, targetCount, images)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("slide synthesis request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &MalformedResponseError{Reason: "no choices in response"}
	}

	slides, refs, err := parseDeck(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	slides = assignImages(slides, refs, images)

	if targetCount > 0 {
		slides = Redistribute(slides, targetCount, images)
	} else {
		slides = deck.Truncate(slides, deck.MaxSlides)
	}

	log.Debug().
		Int("slides", len(slides)).
		Int("target", targetCount).
		Str("filename", filename).
		Msg("AI synthesis complete")

	return slides, nil
}

// buildUserPrompt assembles the request, truncating the text to the input
// budget and listing the available images
func (s *Synthesizer) buildUserPrompt(text, filename string, targetCount int, images []deck.ExtractedImage) string {
	budget := s.InputCharBudget
	if budget <= 0 {
		budget = DefaultInputCharBudget
	}

	truncated := false
	if len(text) > budget {
		text = text[:budget]
		truncated = true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create a slide deck from the document %q.\n", filename)
	if targetCount > 0 {
		fmt.Fprintf(&sb, "Produce exactly %d slides.\n", targetCount)
	} else {
		fmt.Fprintf(&sb, "Produce at most %d slides.\n", deck.MaxSlides)
	}

	if len(images) > 0 {
		sb.WriteString("Available images (reference by index in imageIndices):\n")
		for i, img := range images {
			desc := img.Description
			if desc == "" {
				desc = "no description"
			}
			fmt.Fprintf(&sb, "  %d: page %d, %dx%d, %s\n", i, img.Page, img.Width, img.Height, desc)
		}
	}

	sb.WriteString("\nDocument text")
	if truncated {
		sb.WriteString(" (truncated)")
	}
	sb.WriteString(":\n\n")
	sb.WriteString(text)
	return sb.String()
}

// parseDeck decodes and normalizes the model's JSON, returning the slides
// alongside their per-slide image references (kept aligned through
// normalization)
func parseDeck(raw string) ([]deck.Slide, [][]int, error) {
	jsonText := extractJSONObject(raw)
	if jsonText == "" {
		return nil, nil, &MalformedResponseError{Reason: "no JSON object in response"}
	}

	var parsed aiDeck
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, nil, &MalformedResponseError{Reason: err.Error()}
	}
	if len(parsed.Slides) == 0 {
		return nil, nil, &MalformedResponseError{Reason: "empty slides array"}
	}

	var slides []deck.Slide
	var refs [][]int
	for _, as := range parsed.Slides {
		slide := deck.Slide{
			Title:        strings.TrimSpace(as.Title),
			Content:      dropEmptyLines(as.Content),
			Type:         normalizeType(as.Type),
			Quote:        strings.TrimSpace(as.Quote),
			Attribution:  strings.TrimSpace(as.Attribution),
			LeftContent:  dropEmptyLines(as.LeftContent),
			RightContent: dropEmptyLines(as.RightContent),
			Highlight:    as.Highlight,
		}
		if slide.IsEmpty() {
			continue
		}
		if slide.Title == "" && slide.Quote == "" {
			slide.Title = "Untitled"
		}
		slides = append(slides, slide)
		refs = append(refs, as.ImageIndices)
	}

	if len(slides) == 0 {
		return nil, nil, &MalformedResponseError{Reason: "all slides empty after normalization"}
	}
	return slides, refs, nil
}

// assignImages resolves the model's image references. Indices are tried as
// 0-based positions first, then as page numbers. When the model assigned
// nothing, images are auto-distributed evenly by slide position.
func assignImages(slides []deck.Slide, refs [][]int, images []deck.ExtractedImage) []deck.Slide {
	if len(images) == 0 {
		return slides
	}

	assignedAny := false
	for i := range slides {
		if i >= len(refs) {
			break
		}
		for _, ref := range refs[i] {
			if img, ok := resolveImageRef(ref, images); ok {
				slides[i].Images = append(slides[i].Images, img)
				assignedAny = true
			}
		}
	}

	if !assignedAny {
		distributeImages(slides, images)
	}
	return slides
}

// resolveImageRef supports both 0-based index and 1-based page references
func resolveImageRef(ref int, images []deck.ExtractedImage) (deck.ExtractedImage, bool) {
	if ref >= 0 && ref < len(images) {
		return images[ref], true
	}
	for _, img := range images {
		if img.Page == ref {
			return img, true
		}
	}
	return deck.ExtractedImage{}, false
}

// extractJSONObject pulls the outermost {...} block out of a response that
// may be wrapped in prose or a markdown fence
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

func normalizeType(t string) deck.SlideType {
	switch deck.SlideType(strings.TrimSpace(strings.ToLower(t))) {
	case deck.TypeTitle:
		return deck.TypeTitle
	case deck.TypeQuote:
		return deck.TypeQuote
	case deck.TypeTwoColumn:
		return deck.TypeTwoColumn
	case deck.TypeHighlight:
		return deck.TypeHighlight
	case deck.TypeSectionDivider:
		return deck.TypeSectionDivider
	default:
		return deck.TypeContent
	}
}

func dropEmptyLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
