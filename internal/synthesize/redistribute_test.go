package synthesize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

func makeSlides(n int) []deck.Slide {
	slides := make([]deck.Slide, n)
	for i := range slides {
		slides[i] = deck.Slide{
			Title:   fmt.Sprintf("Section %d", i),
			Content: []string{fmt.Sprintf("point %d-a", i), fmt.Sprintf("point %d-b", i)},
			Type:    deck.TypeContent,
		}
	}
	return slides
}

func TestRedistributeExactCount(t *testing.T) {
	tests := []struct {
		name   string
		slides int
		target int
	}{
		{name: "expand few into many", slides: 3, target: 10},
		{name: "compress many into few", slides: 20, target: 5},
		{name: "already exact", slides: 8, target: 8},
		{name: "single source slide", slides: 1, target: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Redistribute(makeSlides(tt.slides), tt.target, nil)
			assert.Len(t, out, tt.target)
		})
	}
}

func TestRedistributePreservesAllText(t *testing.T) {
	slides := []deck.Slide{
		{Title: "One", Content: []string{"a", "b"}, Type: deck.TypeContent},
		{Quote: "the quote", Type: deck.TypeQuote},
		{Title: "Two", LeftContent: []string{"l1"}, RightContent: []string{"r1"}, Type: deck.TypeTwoColumn},
	}

	out := Redistribute(slides, 5, nil)
	require.Len(t, out, 5)

	var all []string
	for _, s := range out {
		all = append(all, s.Content...)
	}
	assert.ElementsMatch(t, []string{"One", "a", "b", "the quote", "Two", "l1", "r1"}, all)
}

func TestRedistributeIsPure(t *testing.T) {
	// The same flattened items must produce the same output regardless of
	// how the source sequence grouped them
	grouped := []deck.Slide{
		{Title: "T", Content: []string{"a", "b", "c", "d"}, Type: deck.TypeContent},
	}
	split := []deck.Slide{
		{Title: "T", Content: []string{"a", "b"}, Type: deck.TypeContent},
		{Content: []string{"c", "d"}, Type: deck.TypeContent},
	}

	assert.Equal(t, Redistribute(grouped, 3, nil), Redistribute(split, 3, nil))
}

func TestRedistributeTitleMapping(t *testing.T) {
	out := Redistribute(makeSlides(2), 4, nil)
	require.Len(t, out, 4)

	// First half keeps the first title, second half the second
	assert.Equal(t, "Section 0", out[0].Title)
	assert.Equal(t, "Section 1", out[3].Title)
}

func TestRedistributeSpreadsImages(t *testing.T) {
	images := []deck.ExtractedImage{
		{Data: "data:image/png;base64,AA==", Page: 1},
		{Data: "data:image/png;base64,BB==", Page: 2},
		{Data: "data:image/png;base64,CC==", Page: 3},
		{Data: "data:image/png;base64,DD==", Page: 4},
		{Data: "data:image/png;base64,EE==", Page: 5},
	}

	out := Redistribute(makeSlides(4), 3, images)
	require.Len(t, out, 3)

	total := 0
	for _, s := range out {
		total += len(s.Images)
		assert.LessOrEqual(t, len(s.Images), 2, "no slide gets more than ceil(m/n) images")
	}
	assert.Equal(t, len(images), total)
}

func TestRedistributeZeroTarget(t *testing.T) {
	slides := makeSlides(3)
	assert.Equal(t, slides, Redistribute(slides, 0, nil))
}
