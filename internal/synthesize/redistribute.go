package synthesize

import (
	"github.com/beacondesk/beacon-deck/pkg/deck"
)

// Redistribute rebuilds a slide sequence into exactly n slides. The model
// rarely honors a count instruction, so the caller's requested count is
// enforced here: every bullet string and slide title is flattened into one
// ordered list, re-chunked evenly, and titles are reattached from the
// original sequence by positional mapping. Images are spread evenly across
// the new slides in order.
//
// The function is pure: it only looks at the slides it is given and how the
// model grouped them has no bearing on the result.
func Redistribute(slides []deck.Slide, n int, images []deck.ExtractedImage) []deck.Slide {
	if n <= 0 {
		return slides
	}

	items := flatten(slides)
	titles := collectTitles(slides)

	perSlide := ceilDiv(len(items), n)
	if perSlide < 1 {
		perSlide = 1
	}

	out := make([]deck.Slide, n)
	for i := 0; i < n; i++ {
		start := i * perSlide
		end := start + perSlide
		if start > len(items) {
			start = len(items)
		}
		if end > len(items) {
			end = len(items)
		}

		out[i] = deck.Slide{
			Title:   titleFor(titles, i, n),
			Content: append([]string(nil), items[start:end]...),
			Type:    deck.TypeContent,
		}
	}

	distributeImages(out, images)
	return out
}

// flatten collects every piece of slide-level text, in order, as atomic
// bullet strings
func flatten(slides []deck.Slide) []string {
	var items []string
	for _, s := range slides {
		if s.Title != "" {
			items = append(items, s.Title)
		}
		items = append(items, s.Content...)
		if s.Quote != "" {
			items = append(items, s.Quote)
		}
		items = append(items, s.LeftContent...)
		items = append(items, s.RightContent...)
	}
	return items
}

// collectTitles returns the non-empty titles of the original sequence
func collectTitles(slides []deck.Slide) []string {
	var titles []string
	for _, s := range slides {
		if s.Title != "" {
			titles = append(titles, s.Title)
		}
	}
	return titles
}

// titleFor maps new slide i of n onto the original title sequence
// proportionally
func titleFor(titles []string, i, n int) string {
	if len(titles) == 0 {
		return "Untitled"
	}
	idx := i * len(titles) / n
	if idx >= len(titles) {
		idx = len(titles) - 1
	}
	return titles[idx]
}

// distributeImages assigns ceil(m/n) images per slide, in order
func distributeImages(slides []deck.Slide, images []deck.ExtractedImage) {
	if len(images) == 0 || len(slides) == 0 {
		return
	}

	perSlide := ceilDiv(len(images), len(slides))
	for i := range slides {
		start := i * perSlide
		if start >= len(images) {
			break
		}
		end := start + perSlide
		if end > len(images) {
			end = len(images)
		}
		slides[i].Images = append([]deck.ExtractedImage(nil), images[start:end]...)
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
