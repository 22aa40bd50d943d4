package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlideValidate(t *testing.T) {
	tests := []struct {
		name        string
		slide       Slide
		expectError bool
	}{
		{
			name:        "title only",
			slide:       Slide{Title: "Introduction", Type: TypeTitle},
			expectError: false,
		},
		{
			name:        "content only",
			slide:       Slide{Content: []string{"a point"}, Type: TypeContent},
			expectError: false,
		},
		{
			name:        "quote only",
			slide:       Slide{Quote: "To be or not to be", Type: TypeQuote},
			expectError: false,
		},
		{
			name:        "completely empty",
			slide:       Slide{Type: TypeContent},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.slide.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSlideIsEmpty(t *testing.T) {
	assert.True(t, (&Slide{Type: TypeContent}).IsEmpty())
	assert.False(t, (&Slide{Title: "x"}).IsEmpty())
	assert.False(t, (&Slide{LeftContent: []string{"left"}}).IsEmpty())
}

func TestTruncate(t *testing.T) {
	slides := make([]Slide, 60)
	for i := range slides {
		slides[i] = Slide{Title: "slide", Type: TypeContent}
	}

	assert.Len(t, Truncate(slides, MaxSlides), MaxSlides)
	assert.Len(t, Truncate(slides[:10], MaxSlides), 10)
	assert.Len(t, Truncate(nil, MaxSlides), 0)
	// n <= 0 disables the cap
	assert.Len(t, Truncate(slides, 0), 60)
}
