package vision

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog/log"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

const describePrompt = "Describe this image from a document in one short sentence, " +
	"focusing on what it shows (chart, diagram, photo, logo). Plain text only."

// ChatCompleter is the slice of the OpenAI client the describer needs,
// kept narrow so tests can stub it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Describer annotates extracted images with short natural-language
// descriptions from a vision-capable model. All failures degrade to an
// empty description; the pipeline never aborts over a picture.
type Describer struct {
	client ChatCompleter
	model  string

	// Delay between calls. Rate-limit avoidance, not concurrency control.
	Delay time.Duration
}

// NewDescriber builds a describer over an OpenAI-compatible client. A nil
// client yields a describer that leaves descriptions empty.
func NewDescriber(client ChatCompleter, model string) *Describer {
	if model == "" {
		model = openai.GPT4VisionPreview
	}
	return &Describer{client: client, model: model, Delay: 200 * time.Millisecond}
}

// Enabled reports whether a vision model is configured
func (d *Describer) Enabled() bool {
	return d != nil && d.client != nil
}

// DescribeAll annotates each image in place, sequentially
func (d *Describer) DescribeAll(ctx context.Context, images []deck.ExtractedImage) {
	if !d.Enabled() {
		return
	}

	for i := range images {
		if ctx.Err() != nil {
			return
		}

		desc, err := d.describe(ctx, images[i].Data)
		if err != nil {
			log.Debug().
				Err(err).
				Int("page", images[i].Page).
				Msg("Vision description failed, continuing without one")
			continue
		}
		images[i].Description = desc

		if d.Delay > 0 && i < len(images)-1 {
			select {
			case <-time.After(d.Delay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// describe sends one image as a data URI to the vision endpoint
func (d *Describer) describe(ctx context.Context, dataURI string) (string, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: describePrompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
				},
			},
		},
		MaxTokens: 60,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
