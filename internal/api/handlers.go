package api

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/beacondesk/beacon-deck/internal/convert"
	"github.com/beacondesk/beacon-deck/internal/synthesize"
	"github.com/beacondesk/beacon-deck/pkg/extractor"
	"github.com/beacondesk/beacon-deck/pkg/logging"
	"github.com/beacondesk/beacon-deck/pkg/pipeline"
)

// Handlers contains the HTTP handlers for the API
type Handlers struct {
	converter *convert.Service
	cfg       *pipeline.Config
	sessions  *SessionStore
}

// NewHandlers creates a new handlers instance
func NewHandlers(converter *convert.Service, cfg *pipeline.Config) *Handlers {
	return &Handlers{
		converter: converter,
		cfg:       cfg,
		sessions:  NewSessionStore(cfg.Upload.SessionTTL),
	}
}

// Health returns the service health status
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "healthy",
		"service":    "beacon-deck",
		"version":    "0.1.0",
		"ai_enabled": h.converter.AIEnabled(),
		"timestamp":  time.Now().UTC(),
	})
}

// CreateDeck handles a direct multipart upload and runs the full conversion
func (h *Handlers) CreateDeck(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded or invalid file format",
		})
	}

	// Reject oversized uploads before reading anything
	if file.Size > h.cfg.Upload.MaxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large: %d bytes. Maximum size is %d bytes", file.Size, h.cfg.Upload.MaxUploadBytes),
		})
	}

	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".pdf" {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported file type: %s. Only PDF is supported", ext),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to open uploaded file",
		})
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read file content",
		})
	}

	numSlides := parseNumSlides(c.FormValue("numSlides"))
	mode := c.FormValue("extractionMode")

	requestID := uuid.New().String()
	logger := logging.GetConversionLogger(requestID, file.Filename)
	logger.Info().
		Int64("size", file.Size).
		Str("mode", mode).
		Msg("Received conversion request")

	result, err := h.converter.Convert(c.Context(), content, file.Filename, mode, numSlides)
	if err != nil {
		return conversionError(c, err)
	}

	return c.JSON(result)
}

// conversionError maps pipeline error kinds to HTTP status codes
func conversionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError

	switch {
	case extractor.IsInvalidFormat(err):
		status = fiber.StatusUnsupportedMediaType
	case extractor.IsPasswordProtected(err), extractor.IsEmptyDocument(err):
		status = fiber.StatusUnprocessableEntity
	case extractor.KindOf(err) == extractor.KindParse:
		status = fiber.StatusUnprocessableEntity
	default:
		var unavailable *synthesize.ProviderUnavailableError
		var malformed *synthesize.MalformedResponseError
		if errors.As(err, &unavailable) {
			status = fiber.StatusServiceUnavailable
		} else if errors.As(err, &malformed) {
			status = fiber.StatusBadGateway
		}
	}

	log.Error().Err(err).Int("status", status).Msg("Conversion failed")

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// parseNumSlides returns 0 for absent or unparsable values; the converter
// treats 0 as "no exact count requested"
func parseNumSlides(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
