// +build ocr

package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// OCRStrategy recognizes text in scanned documents. Each page is rendered
// to a bitmap with go-fitz and fed to Tesseract. It is the last strategy in
// the chain and only compiled in when the ocr build tag is set.
type OCRStrategy struct {
	Language             string // Tesseract language code (e.g., "eng", "eng+fra")
	PageCap              int    // rendering a page is expensive, so OCR stops early
	PageSegmentationMode gosseract.PageSegMode
}

// NewOCRStrategy creates an OCR strategy with default settings
func NewOCRStrategy(pageCap int) *OCRStrategy {
	return &OCRStrategy{
		Language:             "eng",
		PageCap:              pageCap,
		PageSegmentationMode: gosseract.PSM_AUTO,
	}
}

// Name identifies the strategy in logs and metadata
func (s *OCRStrategy) Name() string { return "ocr" }

// Extract renders each page to a bitmap and runs Tesseract over it,
// concatenating per-page results with page-boundary markers.
func (s *OCRStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return "", NewExtractionError(KindParse, "failed to open PDF for OCR rendering: %v", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(s.Language); err != nil {
		return "", NewExtractionError(KindParse, "failed to set OCR language '%s': %v", s.Language, err)
	}
	if err := client.SetPageSegMode(s.PageSegmentationMode); err != nil {
		return "", NewExtractionError(KindParse, "failed to set page segmentation mode: %v", err)
	}

	pages := doc.NumPage()
	if s.PageCap > 0 && pages > s.PageCap {
		pages = s.PageCap
	}

	var sb strings.Builder
	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		img, err := doc.Image(i)
		if err != nil {
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			continue
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			continue
		}

		pageText, err := client.Text()
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		sb.WriteString(fmt.Sprintf("--- Page %d ---\n", i+1))
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}

	text := strings.TrimSpace(sb.String())
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if text == "" {
		return "", NewExtractionError(KindParse, "OCR could not recognize any text")
	}
	return text, nil
}

// Classify never retries or aborts: OCR is the end of the chain
func (s *OCRStrategy) Classify(err error) Verdict {
	return VerdictFallthrough
}
