package extractor

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ContentStreamStrategy is the secondary extraction strategy. It walks page
// content streams with pdfcpu and decodes Tj/TJ show-text operators
// directly. Pure Go, so it keeps working in environments where the primary
// parser trips over the document's text layer.
type ContentStreamStrategy struct {
	MaxPages int
}

// Name identifies the strategy in logs and metadata
func (s *ContentStreamStrategy) Name() string { return "content-stream" }

// Extract walks each page's content stream and recovers show-text operands
func (s *ContentStreamStrategy) Extract(ctx context.Context, content []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		if isEncryptionError(err) {
			return "", NewExtractionError(KindPasswordProtected, "PDF is password protected")
		}
		return "", NewExtractionError(KindParse, "pdfcpu read: %v", err)
	}

	pages := pdfCtx.PageCount
	if s.MaxPages > 0 && pages > s.MaxPages {
		pages = s.MaxPages
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pages; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pageText := extractPageText(pdfCtx, pageNr)
		if pageText == "" {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}

	return strings.TrimSpace(sb.String()), nil
}

// Classify always falls through: the chain's last chance after this
// strategy is OCR.
func (s *ContentStreamStrategy) Classify(err error) Verdict {
	if IsPasswordProtected(err) {
		return VerdictAbort
	}
	return VerdictFallthrough
}

// extractPageText reads a single page's content stream
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return parseShowTextOperators(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// parseShowTextOperators scans content stream lines for the text-showing
// operators Tj, TJ and ' and decodes their string operands.
func parseShowTextOperators(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return strings.TrimSpace(sb.String())
}

// decodePDFString handles basic PDF escape sequences, including octal
// escapes like \040.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for j := 0; j < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; j++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}
