package segment

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

// Rule thresholds. These mirror what the heuristic pass considers a "short"
// line at each decision point.
const (
	dividerLineMax   = 60
	titleLineMax     = 80
	highlightLineMax = 40
	columnLineMax    = 100
	highlightTitleMax = 50
	minColumnLines   = 6
	fallbackExcerpt  = 500
)

var chapterRe = regexp.MustCompile(`(?i)^chapter\s+([0-9]+|[ivxlcdm]+)\b`)

// Segmenter turns extracted text into a slide deck without any model call.
// It is fully deterministic and serves as the fallback when AI synthesis is
// disabled or fails.
type Segmenter struct{}

// New creates a heuristic segmenter
func New() *Segmenter {
	return &Segmenter{}
}

// Segment splits text into sections and classifies each into a slide. It
// always returns at least one slide and never more than deck.MaxSlides.
func (s *Segmenter) Segment(text, filename string) []deck.Slide {
	sections := splitSections(text)

	// A document with no blank-line structure reads as continuous prose,
	// not as a deliberate list: one content slide titled by the first line.
	if len(sections) == 1 && len(sections[0].body) > 0 {
		return []deck.Slide{{
			Title:   sections[0].first,
			Content: sections[0].body,
			Type:    deck.TypeContent,
		}}
	}

	var slides []deck.Slide
	for _, section := range sections {
		slide, ok := classifySection(section)
		if ok {
			slides = append(slides, slide)
		}
	}

	if len(slides) == 0 {
		slides = append(slides, fallbackSlide(text, filename))
	}

	return deck.Truncate(slides, deck.MaxSlides)
}

// section is a classified chunk of input: a first line and any body lines
type section struct {
	first string
	body  []string
}

// splitSections breaks text into paragraph-like sections on blank-line
// boundaries. When the text has no blank lines at all, the whole text is
// one section with the first line as its head.
func splitSections(text string) []section {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []string
	for _, block := range regexp.MustCompile(`\n\s*\n`).Split(text, -1) {
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, block)
		}
	}

	var sections []section
	for _, block := range blocks {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) == 0 {
			continue
		}
		sections = append(sections, section{first: lines[0], body: lines[1:]})
	}

	return sections
}

// classifySection applies the ordered rules, first match wins
func classifySection(sec section) (deck.Slide, bool) {
	first := sec.first
	body := sec.body

	// Rule 1: a standalone quoted line becomes a quote slide
	if len(body) == 0 {
		if quote, attribution, ok := parseQuote(first); ok {
			return deck.Slide{
				Type:        deck.TypeQuote,
				Quote:       quote,
				Attribution: attribution,
			}, true
		}
	}

	// Rule 2: short heading-like line with no body is a section divider
	if len(body) == 0 && len(first) < dividerLineMax && isDividerLine(first) {
		return deck.Slide{
			Title: strings.TrimSuffix(first, ":"),
			Type:  deck.TypeSectionDivider,
		}, true
	}

	// Rule 3: short line alone is a title slide
	if len(body) == 0 && len(first) < titleLineMax {
		return deck.Slide{
			Title:     first,
			Type:      deck.TypeTitle,
			Highlight: len(first) < highlightLineMax,
		}, true
	}

	// Rule 4: many short lines split evenly into two columns
	if len(body) >= minColumnLines && allShorterThan(body, columnLineMax) {
		split := (len(body) + 1) / 2
		return deck.Slide{
			Title:        first,
			Type:         deck.TypeTwoColumn,
			LeftContent:  body[:split],
			RightContent: body[split:],
		}, true
	}

	// Rule 5: short title with a handful of lines gets emphasis
	if len(first) < highlightTitleMax && len(body) >= 2 && len(body) <= 5 {
		return deck.Slide{
			Title:     first,
			Content:   body,
			Type:      deck.TypeHighlight,
			Highlight: true,
		}, true
	}

	// Rule 6: everything else is a plain content slide
	content := body
	if len(content) == 0 {
		content = []string{first}
	}
	return deck.Slide{
		Title:   first,
		Content: content,
		Type:    deck.TypeContent,
	}, true
}

// parseQuote recognizes a quoted line, optionally followed by an em/en-dash
// attribution: "Stay hungry" — Steve Jobs
func parseQuote(line string) (quote, attribution string, ok bool) {
	openers := []string{`"`, "“"}
	opened := false
	for _, o := range openers {
		if strings.HasPrefix(line, o) {
			opened = true
			break
		}
	}
	if !opened {
		return "", "", false
	}

	closers := []string{`"`, "”"}
	closeIdx := -1
	for _, c := range closers {
		if idx := strings.LastIndex(line, c); idx > 0 && idx > closeIdx {
			closeIdx = idx
		}
	}
	if closeIdx <= 0 {
		return "", "", false
	}

	quote = strings.Trim(line[:closeIdx+1], `"`+"“” ")
	rest := strings.TrimSpace(line[closeIdx+1:])

	for _, dash := range []string{"—", "–", "--", "-"} {
		if strings.HasPrefix(rest, dash) {
			attribution = strings.TrimSpace(strings.TrimPrefix(rest, dash))
			break
		}
	}

	if rest != "" && attribution == "" {
		// Trailing text that is not an attribution: not a clean quote line
		return "", "", false
	}
	return quote, attribution, true
}

// isDividerLine matches headings: trailing colon, all caps, or a chapter
// marker
func isDividerLine(line string) bool {
	if strings.HasSuffix(line, ":") {
		return true
	}
	if chapterRe.MatchString(line) {
		return true
	}
	return isAllCaps(line)
}

// isAllCaps reports whether the line has letters and none are lowercase
func isAllCaps(line string) bool {
	hasLetter := false
	for _, r := range line {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

// allShorterThan reports whether every line is under max characters
func allShorterThan(lines []string, max int) bool {
	for _, line := range lines {
		if len(line) >= max {
			return false
		}
	}
	return true
}

// fallbackSlide guarantees at least one slide even for degenerate input
func fallbackSlide(text, filename string) deck.Slide {
	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if title == "" || title == "." {
		title = "Document"
	}

	excerpt := strings.TrimSpace(text)
	if len(excerpt) > fallbackExcerpt {
		excerpt = excerpt[:fallbackExcerpt]
	}

	content := []string{}
	if excerpt != "" {
		content = append(content, excerpt)
	} else {
		content = append(content, title)
	}

	return deck.Slide{
		Title:   title,
		Content: content,
		Type:    deck.TypeContent,
	}
}
