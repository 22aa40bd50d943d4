package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

// ImageExtractor pulls embedded raster images out of a PDF by walking each
// page's resource dictionary for image XObjects. Extraction is strictly
// best-effort: a failure on one image never aborts the rest, and an
// unsupported document yields an empty slice rather than an error.
type ImageExtractor struct {
	MaxImages int
}

// NewImageExtractor creates an image extractor with a sane per-document cap
func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{MaxImages: 20}
}

// ExtractImages walks every page's XObject dictionary and decodes the
// images it finds
func (e *ImageExtractor) ExtractImages(ctx context.Context, content []byte) ([]deck.ExtractedImage, error) {
	images := []deck.ExtractedImage{}

	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return images, NewExtractionError(KindInvalidFormat, "not a valid PDF file")
	}

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		// Image extraction is best-effort; the text pipeline reports the
		// document's real problem.
		log.Debug().Err(err).Msg("Image extraction unsupported for this document")
		return images, nil
	}

	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return images, err
		}
		if e.MaxImages > 0 && len(images) >= e.MaxImages {
			break
		}

		pageImages := e.extractPageImages(doc.Page(pageNum), pageNum)
		images = append(images, pageImages...)
	}

	if e.MaxImages > 0 && len(images) > e.MaxImages {
		images = images[:e.MaxImages]
	}
	return images, nil
}

// extractPageImages walks one page's resources, isolating failures per
// XObject
func (e *ImageExtractor) extractPageImages(page pdf.Page, pageNum int) []deck.ExtractedImage {
	var images []deck.ExtractedImage

	defer func() {
		if r := recover(); r != nil {
			log.Debug().
				Int("page", pageNum).
				Interface("panic", r).
				Msg("Recovered from page image walk")
		}
	}()

	if page.V.IsNull() {
		return images
	}
	resources := page.V.Key("Resources")
	if resources.IsNull() {
		return images
	}
	xObjects := resources.Key("XObject")
	if xObjects.IsNull() || xObjects.Kind() != pdf.Dict {
		return images
	}

	for _, key := range xObjects.Keys() {
		// Isolate each XObject: one malformed image must not take down the
		// remaining ones.
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Debug().
						Str("xobject", key).
						Int("page", pageNum).
						Interface("panic", r).
						Msg("Recovered from XObject extraction")
				}
			}()

			obj := xObjects.Key(key)
			if obj.IsNull() {
				return
			}
			subtype := obj.Key("Subtype")
			if subtype.IsNull() || subtype.Name() != "Image" {
				return
			}

			width := int(obj.Key("Width").Int64())
			height := int(obj.Key("Height").Int64())
			if width <= 0 || height <= 0 {
				return
			}

			data, err := readStream(obj)
			if err != nil || len(data) == 0 {
				return
			}

			mime := "image/png"
			if hasFilter(obj, "DCTDecode") {
				mime = "image/jpeg"
			}

			images = append(images, deck.ExtractedImage{
				Data:   fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
				Page:   pageNum,
				Width:  width,
				Height: height,
			})
		}()
	}

	return images
}

// readStream reads the XObject's decoded stream payload
func readStream(obj pdf.Value) ([]byte, error) {
	r := obj.Reader()
	defer r.Close()
	return io.ReadAll(r)
}

// hasFilter reports whether the stream's Filter entry (name or array)
// includes the given filter
func hasFilter(obj pdf.Value, name string) bool {
	filter := obj.Key("Filter")
	switch filter.Kind() {
	case pdf.Name:
		return filter.Name() == name
	case pdf.Array:
		for i := 0; i < filter.Len(); i++ {
			if filter.Index(i).Name() == name {
				return true
			}
		}
	}
	return false
}
