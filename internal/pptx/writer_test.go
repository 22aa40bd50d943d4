package pptx

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

func readEntry(t *testing.T, r *zip.Reader, name string) string {
	t.Helper()
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatalf("entry %s not found in package", name)
	return ""
}

func TestWriteProducesValidZip(t *testing.T) {
	slides := []deck.Slide{
		{Title: "Opening", Content: []string{"first point", "second point"}, Type: deck.TypeContent},
		{Title: "Closing", Content: []string{"thanks"}, Type: deck.TypeContent},
	}

	data, err := Write(slides, "talk.pdf")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	for _, name := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"docProps/core.xml",
		"ppt/presentation.xml",
		"ppt/slides/slide1.xml",
		"ppt/slides/slide2.xml",
		"ppt/slideMasters/slideMaster1.xml",
		"ppt/slideLayouts/slideLayout1.xml",
		"ppt/theme/theme1.xml",
	} {
		assert.Contains(t, entryNames(r), name)
	}
}

func entryNames(r *zip.Reader) []string {
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestWriteSlideContent(t *testing.T) {
	slides := []deck.Slide{
		{Title: "Results & Plans", Content: []string{"grew <fast>"}, Type: deck.TypeContent},
	}

	data, err := Write(slides, "doc.pdf")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	slide1 := readEntry(t, r, "ppt/slides/slide1.xml")
	assert.Contains(t, slide1, "Results &amp; Plans")
	assert.Contains(t, slide1, "grew &lt;fast&gt;")
	assert.NotContains(t, slide1, "<fast>")
}

func TestWriteFlattensSpecialTypes(t *testing.T) {
	slides := []deck.Slide{
		{Quote: "Make it simple", Attribution: "someone", Type: deck.TypeQuote},
		{Title: "Pairs", LeftContent: []string{"alpha"}, RightContent: []string{"beta"}, Type: deck.TypeTwoColumn},
	}

	data, err := Write(slides, "doc.pdf")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	quote := readEntry(t, r, "ppt/slides/slide1.xml")
	assert.Contains(t, quote, "Make it simple")
	assert.Contains(t, quote, "someone")

	cols := readEntry(t, r, "ppt/slides/slide2.xml")
	assert.Contains(t, cols, "alpha")
	assert.Contains(t, cols, "beta")
}

func TestWriteContentTypesListsEverySlide(t *testing.T) {
	slides := make([]deck.Slide, 5)
	for i := range slides {
		slides[i] = deck.Slide{Title: "s", Type: deck.TypeContent}
	}

	data, err := Write(slides, "doc.pdf")
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	ct := readEntry(t, r, "[Content_Types].xml")
	assert.Equal(t, 5, strings.Count(ct, "slide+xml"))
}

func TestWriteRejectsEmptyDeck(t *testing.T) {
	_, err := Write(nil, "doc.pdf")
	assert.Error(t, err)
}
