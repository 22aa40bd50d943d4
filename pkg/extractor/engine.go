package extractor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Verdict tells the chain what to do after a strategy fails
type Verdict int

const (
	// VerdictFallthrough moves on to the next strategy
	VerdictFallthrough Verdict = iota
	// VerdictRetry re-runs the same strategy once after a short delay
	VerdictRetry
	// VerdictAbort stops the chain and surfaces the error
	VerdictAbort
)

// Strategy is one extraction method in the ordered fallback chain
type Strategy interface {
	Name() string
	Extract(ctx context.Context, content []byte) (string, error)
	Classify(err error) Verdict
}

// Engine runs an ordered chain of extraction strategies until one yields
// enough text. Strategies are tried in sequence; each failure is classified
// as retry-once, fall-through, or abort.
type Engine struct {
	strategies []Strategy

	// MinTextLength is the threshold below which a strategy's output is
	// considered insufficient and the next strategy is attempted
	MinTextLength int
	// RetryDelay is the pause before a single same-strategy retry
	RetryDelay time.Duration
}

// NewEngine builds the default chain: text layer, then content stream,
// then OCR (a no-op stub unless built with the ocr tag). OCR gets its own
// page cap since rendering is far more expensive than parsing.
func NewEngine(minTextLength, maxPages, ocrPageCap int) *Engine {
	return &Engine{
		strategies: []Strategy{
			&TextLayerStrategy{MaxPages: maxPages},
			&ContentStreamStrategy{MaxPages: maxPages},
			NewOCRStrategy(ocrPageCap),
		},
		MinTextLength: minTextLength,
		RetryDelay:    250 * time.Millisecond,
	}
}

// NewEngineWithStrategies builds an engine over an explicit chain, used by
// tests and by callers that disable OCR.
func NewEngineWithStrategies(minTextLength int, strategies ...Strategy) *Engine {
	return &Engine{
		strategies:    strategies,
		MinTextLength: minTextLength,
		RetryDelay:    250 * time.Millisecond,
	}
}

// ExtractText runs the fallback chain over raw PDF bytes.
//
// The %PDF magic header is checked before any strategy runs. The first
// strategy producing text at or above MinTextLength wins; otherwise the
// longest output seen anywhere in the chain is returned. When nothing at
// all was recovered the error is typed KindEmptyDocument.
func (e *Engine) ExtractText(ctx context.Context, content []byte) (string, error) {
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return "", NewExtractionError(KindInvalidFormat,
			"not a valid PDF file - content starts with: %q", string(content[:min(20, len(content))]))
	}

	best := ""
	for _, strategy := range e.strategies {
		text, err := e.runStrategy(ctx, strategy, content)
		if err != nil {
			if strategy.Classify(err) == VerdictAbort {
				return "", err
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Debug().
				Str("strategy", strategy.Name()).
				Err(err).
				Msg("Extraction strategy failed, falling through")
			continue
		}

		if len(text) >= e.MinTextLength {
			log.Debug().
				Str("strategy", strategy.Name()).
				Int("text_length", len(text)).
				Msg("Extraction strategy succeeded")
			return text, nil
		}

		// Insufficient text: remember the best attempt and keep going, the
		// document may be scanned and only yield through OCR.
		if len(text) > len(best) {
			best = text
		}
	}

	if best != "" {
		return best, nil
	}
	return "", NewExtractionError(KindEmptyDocument, "PDF contains no extractable text")
}

// runStrategy executes one strategy, honoring a single retry verdict
func (e *Engine) runStrategy(ctx context.Context, strategy Strategy, content []byte) (string, error) {
	text, err := strategy.Extract(ctx, content)
	if err == nil {
		return text, nil
	}

	if strategy.Classify(err) == VerdictRetry {
		log.Debug().
			Str("strategy", strategy.Name()).
			Err(err).
			Msg("Transient extraction error, retrying once")
		select {
		case <-time.After(e.RetryDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return strategy.Extract(ctx, content)
	}

	return "", err
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
