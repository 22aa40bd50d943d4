package deck

import (
	"fmt"
)

// SlideType classifies how a slide is laid out and rendered
type SlideType string

const (
	TypeTitle          SlideType = "title"
	TypeContent        SlideType = "content"
	TypeQuote          SlideType = "quote"
	TypeTwoColumn      SlideType = "two-column"
	TypeHighlight      SlideType = "highlight"
	TypeSectionDivider SlideType = "section-divider"
)

// MaxSlides caps a deck regardless of source document length
const MaxSlides = 50

// Slide is the unit of output produced by either segmentation strategy
type Slide struct {
	Title        string           `json:"title"`
	Content      []string         `json:"content"`
	Type         SlideType        `json:"type"`
	Quote        string           `json:"quote,omitempty"`
	Attribution  string           `json:"attribution,omitempty"`
	LeftContent  []string         `json:"leftContent,omitempty"`
	RightContent []string         `json:"rightContent,omitempty"`
	Highlight    bool             `json:"highlight,omitempty"`
	Images       []ExtractedImage `json:"images,omitempty"`
}

// ExtractedImage represents one embedded raster image pulled from a PDF.
// Data carries a data-URI (MIME prefix plus base64 payload) so it can be
// embedded directly into the HTML preview. Images live only in memory for
// the duration of a request; nothing is persisted.
type ExtractedImage struct {
	Data        string `json:"data"`
	Page        int    `json:"page"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Description string `json:"description,omitempty"`
}

// Validate checks the slide carries at least some presentable content
func (s *Slide) Validate() error {
	if s.Title == "" && len(s.Content) == 0 && s.Quote == "" {
		return fmt.Errorf("slide must have a title, content, or quote")
	}
	return nil
}

// IsEmpty reports whether the slide has nothing to show at all
func (s *Slide) IsEmpty() bool {
	return s.Validate() != nil && len(s.LeftContent) == 0 && len(s.RightContent) == 0
}

// Truncate caps a deck at n slides, returning the deck unchanged when it
// already fits
func Truncate(slides []Slide, n int) []Slide {
	if n > 0 && len(slides) > n {
		return slides[:n]
	}
	return slides
}
