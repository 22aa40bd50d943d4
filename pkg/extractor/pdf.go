package extractor

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextLayerStrategy extracts text through the PDF's text layer using the
// ledongthuc parser. It is the primary strategy in the fallback chain.
type TextLayerStrategy struct {
	MaxPages int
}

// Name identifies the strategy in logs and metadata
func (s *TextLayerStrategy) Name() string { return "text-layer" }

// Extract pulls plain text from every page's text layer
func (s *TextLayerStrategy) Extract(ctx context.Context, content []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables; convert
	// those into ordinary parse errors so the chain can fall through.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = NewExtractionError(KindParse, "text-layer parser panic: %v", r)
		}
	}()

	reader := bytes.NewReader(content)
	doc, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		if isEncryptionError(err) {
			return "", NewExtractionError(KindPasswordProtected, "PDF is password protected")
		}
		return "", NewExtractionError(KindParse, "failed to parse PDF: %v", err)
	}

	var textBuilder strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if s.MaxPages > 0 && i > s.MaxPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages, keep the rest
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	return strings.TrimSpace(textBuilder.String()), nil
}

// Classify decides how the chain reacts to an extraction error. Transient
// initialization failures get one retry; encryption aborts the whole chain;
// anything else falls through to the next strategy.
func (s *TextLayerStrategy) Classify(err error) Verdict {
	if IsPasswordProtected(err) {
		return VerdictAbort
	}
	if isTransientInitError(err) {
		return VerdictRetry
	}
	return VerdictFallthrough
}

// isEncryptionError matches the parser's encrypted-document errors
func isEncryptionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt")
}

// isTransientInitError matches failures from the parser's own setup rather
// than from the document, which are worth a single retry.
func isTransientInitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unexpected eof") ||
		strings.Contains(msg, "no such file") ||
		strings.Contains(msg, "resource temporarily unavailable")
}
