package convert

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/beacondesk/beacon-deck/internal/preview"
	"github.com/beacondesk/beacon-deck/internal/pptx"
	"github.com/beacondesk/beacon-deck/internal/segment"
	"github.com/beacondesk/beacon-deck/internal/synthesize"
	"github.com/beacondesk/beacon-deck/pkg/deck"
	"github.com/beacondesk/beacon-deck/pkg/extractor"
	"github.com/beacondesk/beacon-deck/pkg/pipeline"
	"github.com/beacondesk/beacon-deck/pkg/vision"
)

// ModeAI requests language-model synthesis; ModeExtract forces the
// deterministic heuristic segmenter.
const (
	ModeAI      = "ai"
	ModeExtract = "extract"
)

// Result is the success payload of a conversion
type Result struct {
	Slides      []deck.Slide `json:"slides"`
	HTMLPreview string       `json:"htmlPreview"`
	PPTXBase64  string       `json:"pptxBase64"`
	Filename    string       `json:"filename"`
	TotalSlides int          `json:"totalSlides"`
}

// Service runs the full PDF-to-deck pipeline: text and image extraction,
// slide synthesis with heuristic fallback, preview rendering, and PPTX
// packaging. Everything lives in memory for the duration of one request.
type Service struct {
	cfg       *pipeline.Config
	engine    *extractor.Engine
	images    *extractor.ImageExtractor
	describer *vision.Describer
	synth     *synthesize.Synthesizer
	segmenter *segment.Segmenter
}

// NewService wires the pipeline from configuration. Both clients may be
// nil, which disables AI synthesis and vision descriptions respectively.
func NewService(cfg *pipeline.Config, chat synthesize.ChatCompleter, visionClient vision.ChatCompleter) *Service {
	engine := extractor.NewEngine(cfg.Extraction.MinTextLength, cfg.Extraction.PDFMaxPages, cfg.Extraction.OCRPageCap)

	imgExtractor := extractor.NewImageExtractor()
	imgExtractor.MaxImages = cfg.Extraction.MaxImages

	synth := synthesize.New(chat, cfg.Synthesis.ChatModel)
	synth.InputCharBudget = cfg.Synthesis.InputCharBudget

	return &Service{
		cfg:       cfg,
		engine:    engine,
		images:    imgExtractor,
		describer: vision.NewDescriber(visionClient, cfg.Synthesis.VisionModel),
		synth:     synth,
		segmenter: segment.New(),
	}
}

// AIEnabled reports whether a language model provider is configured
func (s *Service) AIEnabled() bool {
	return s.synth.Enabled()
}

// Convert runs the pipeline over one uploaded document. numSlides == 0
// means no exact count was requested; a non-zero value is clamped to the
// configured bounds and then enforced exactly on the AI path.
func (s *Service) Convert(ctx context.Context, pdfBytes []byte, filename, mode string, numSlides int) (*Result, error) {
	if s.cfg.Extraction.ExtractionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Extraction.ExtractionTimeout)
		defer cancel()
	}

	logger := log.With().Str("filename", filename).Logger()

	text, err := s.engine.ExtractText(ctx, pdfBytes)
	if err != nil {
		return nil, err
	}

	images, err := s.images.ExtractImages(ctx, pdfBytes)
	if err != nil {
		// Image extraction is best-effort; only a cancelled context stops us
		if ctx.Err() != nil {
			return nil, err
		}
		images = nil
	}

	numSlides = s.clampSlideCount(numSlides)

	slides := s.buildSlides(ctx, text, filename, mode, numSlides, images)

	html := preview.Render(slides, filename)

	pptxBytes, err := pptx.Write(slides, filename)
	if err != nil {
		return nil, fmt.Errorf("packaging presentation: %w", err)
	}

	logger.Info().
		Int("slides", len(slides)).
		Int("images", len(images)).
		Int("text_length", len(text)).
		Msg("Conversion complete")

	return &Result{
		Slides:      slides,
		HTMLPreview: html,
		PPTXBase64:  base64.StdEncoding.EncodeToString(pptxBytes),
		Filename:    filename,
		TotalSlides: len(slides),
	}, nil
}

// buildSlides chooses the synthesis path. AI failures are deliberately
// silent: as long as the heuristic fallback succeeds, the user never sees
// an AI-specific error.
func (s *Service) buildSlides(ctx context.Context, text, filename, mode string, numSlides int, images []deck.ExtractedImage) []deck.Slide {
	useAI := mode != ModeExtract && s.synth.Enabled() && len(text) >= s.cfg.Synthesis.MinTextForAI

	if useAI {
		s.describer.DescribeAll(ctx, images)

		slides, err := s.synth.Synthesize(ctx, text, filename, numSlides, images)
		if err == nil {
			return slides
		}
		log.Warn().
			Err(err).
			Str("filename", filename).
			Msg("AI synthesis failed, falling back to heuristic segmentation")
	}

	return s.segmenter.Segment(text, filename)
}

// clampSlideCount pins a requested count into the configured range; zero
// stays zero (no exact count requested)
func (s *Service) clampSlideCount(n int) int {
	if n <= 0 {
		return 0
	}
	if n < s.cfg.Synthesis.MinSlides {
		return s.cfg.Synthesis.MinSlides
	}
	if n > s.cfg.Synthesis.MaxSlides {
		return s.cfg.Synthesis.MaxSlides
	}
	return n
}
