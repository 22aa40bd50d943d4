package convert

import (
	"context"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacondesk/beacon-deck/pkg/deck"
	"github.com/beacondesk/beacon-deck/pkg/extractor"
	"github.com/beacondesk/beacon-deck/pkg/pipeline"
)

type fakeChat struct {
	response string
	calls    int
}

func (f *fakeChat) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.response}},
		},
	}, nil
}

func testConfig() *pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Logging.OutputFile = ""
	return cfg
}

const sampleText = "Project Overview\n\nThe system converts documents into presentations. " +
	"It extracts text, finds embedded images, and builds a navigable deck from the result. " +
	"Everything happens in memory within a single request."

func TestConvertRejectsInvalidFormat(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)

	_, err := svc.Convert(context.Background(), []byte("not a pdf"), "doc.pdf", ModeExtract, 0)
	require.Error(t, err)
	assert.True(t, extractor.IsInvalidFormat(err))
}

func TestBuildSlidesHeuristicWhenAIDisabled(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)
	assert.False(t, svc.AIEnabled())

	slides := svc.buildSlides(context.Background(), sampleText, "doc.pdf", ModeAI, 0, nil)
	require.NotEmpty(t, slides)
	assert.LessOrEqual(t, len(slides), deck.MaxSlides)
}

func TestBuildSlidesUsesAIWhenAvailable(t *testing.T) {
	chat := &fakeChat{response: `{"slides": [{"title": "From The Model", "content": ["a point"], "type": "content"}]}`}
	svc := NewService(testConfig(), chat, nil)
	assert.True(t, svc.AIEnabled())

	slides := svc.buildSlides(context.Background(), sampleText, "doc.pdf", ModeAI, 0, nil)
	require.Len(t, slides, 1)
	assert.Equal(t, "From The Model", slides[0].Title)
	assert.Equal(t, 1, chat.calls)
}

func TestBuildSlidesFallsBackOnMalformedAI(t *testing.T) {
	chat := &fakeChat{response: "I'm sorry, I can't produce JSON today."}
	svc := NewService(testConfig(), chat, nil)

	slides := svc.buildSlides(context.Background(), sampleText, "doc.pdf", ModeAI, 0, nil)
	require.NotEmpty(t, slides, "heuristic fallback must still yield a deck")
	assert.Equal(t, 1, chat.calls)
}

func TestBuildSlidesExtractModeSkipsAI(t *testing.T) {
	chat := &fakeChat{response: `{"slides": [{"title": "x", "content": ["y"], "type": "content"}]}`}
	svc := NewService(testConfig(), chat, nil)

	svc.buildSlides(context.Background(), sampleText, "doc.pdf", ModeExtract, 0, nil)
	assert.Equal(t, 0, chat.calls)
}

func TestBuildSlidesShortTextSkipsAI(t *testing.T) {
	chat := &fakeChat{response: `{"slides": [{"title": "x", "content": ["y"], "type": "content"}]}`}
	svc := NewService(testConfig(), chat, nil)

	short := "tiny"
	svc.buildSlides(context.Background(), short, "doc.pdf", ModeAI, 0, nil)
	assert.Equal(t, 0, chat.calls)
}

func TestBuildSlidesEnforcesExactCount(t *testing.T) {
	chat := &fakeChat{response: `{"slides": [
		{"title": "Alpha", "content": ["one", "two", "three"], "type": "content"},
		{"title": "Beta", "content": ["four", "five"], "type": "content"}
	]}`}
	svc := NewService(testConfig(), chat, nil)

	slides := svc.buildSlides(context.Background(), sampleText, "doc.pdf", ModeAI, 8, nil)
	assert.Len(t, slides, 8)
}

func TestClampSlideCount(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)

	tests := []struct {
		in, out int
	}{
		{0, 0},
		{-3, 0},
		{1, 5},
		{5, 5},
		{30, 30},
		{50, 50},
		{200, 50},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.out, svc.clampSlideCount(tt.in), "clamp(%d)", tt.in)
	}
}

func TestBuildSlidesNeverHallucinatesOnHeuristicPath(t *testing.T) {
	svc := NewService(testConfig(), nil, nil)

	slides := svc.buildSlides(context.Background(), sampleText, "doc.pdf", ModeExtract, 0, nil)
	for _, slide := range slides {
		for _, line := range slide.Content {
			assert.True(t, strings.Contains(sampleText, line) || line == slide.Title,
				"content %q must come from the input", line)
		}
	}
}
