// +build !ocr

package extractor

import (
	"context"
)

// OCRStrategy is the stub used when Tesseract is not available. The chain
// treats its failure as a normal fall-through, so builds without the ocr
// tag simply skip the OCR stage.
type OCRStrategy struct {
	Language string
	PageCap  int
}

// NewOCRStrategy creates the fallback stub
func NewOCRStrategy(pageCap int) *OCRStrategy {
	return &OCRStrategy{Language: "eng", PageCap: pageCap}
}

// Name identifies the strategy in logs and metadata
func (s *OCRStrategy) Name() string { return "ocr" }

// Extract reports that OCR is unavailable in this build
func (s *OCRStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	return "", NewExtractionError(KindParse,
		"OCR requires Tesseract; rebuild with -tags ocr after installing tesseract-ocr")
}

// Classify never aborts: missing OCR support is not a document error
func (s *OCRStrategy) Classify(err error) Verdict {
	return VerdictFallthrough
}
