package pipeline

import (
	"time"

	"github.com/beacondesk/beacon-deck/pkg/logging"
)

// Config holds the complete deck-conversion pipeline configuration
type Config struct {
	// Logging configuration
	Logging *logging.LogConfig `json:"logging"`

	// Extraction configuration
	Extraction *ExtractionConfig `json:"extraction"`

	// Synthesis configuration
	Synthesis *SynthesisConfig `json:"synthesis"`

	// Server configuration
	Server *ServerConfig `json:"server"`

	// Upload configuration
	Upload *UploadConfig `json:"upload"`
}

// ExtractionConfig holds PDF extraction settings
type ExtractionConfig struct {
	// MinTextLength is the threshold below which extracted text is
	// considered insufficient and the next strategy in the chain runs
	MinTextLength int `json:"min_text_length"`
	// PDFMaxPages bounds text extraction per document
	PDFMaxPages int `json:"pdf_max_pages"`
	// OCRPageCap bounds how many pages are rendered for OCR
	OCRPageCap int `json:"ocr_page_cap"`
	// MaxImages bounds embedded image extraction per document
	MaxImages int `json:"max_images"`
	// ExtractionTimeout bounds one document's end-to-end extraction
	ExtractionTimeout time.Duration `json:"extraction_timeout"`
}

// SynthesisConfig holds language model settings
type SynthesisConfig struct {
	// ChatModel is the chat-completion model used for slide synthesis
	ChatModel string `json:"chat_model"`
	// VisionModel is used for image descriptions; empty disables vision
	VisionModel string `json:"vision_model"`
	// InputCharBudget truncates document text before it is sent
	InputCharBudget int `json:"input_char_budget"`
	// MinSlides and MaxSlides clamp a caller's requested slide count
	MinSlides int `json:"min_slides"`
	MaxSlides int `json:"max_slides"`
	// MinTextForAI is the text length below which synthesis is skipped in
	// favor of the heuristic segmenter
	MinTextForAI int `json:"min_text_for_ai"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// UploadConfig holds upload limits and chunked-upload settings
type UploadConfig struct {
	// MaxUploadBytes is the hard per-file limit; exceeding it fails with
	// an oversized-upload error before any processing happens
	MaxUploadBytes int64 `json:"max_upload_bytes"`
	// ChunkSize is the byte-range size the chunked upload client uses
	ChunkSize int64 `json:"chunk_size"`
	// SessionTTL is how long a partially-assembled chunked upload is kept
	SessionTTL time.Duration `json:"session_ttl"`
}

// DefaultConfig returns a complete default configuration. Upload and slide
// bounds varied across earlier deployments; these are the documented
// defaults, all overridable.
func DefaultConfig() *Config {
	return &Config{
		Logging: &logging.LogConfig{
			Level:      "info",
			Format:     "json",
			OutputFile: "logs/beacon-deck.log",
			MaxSize:    100 * 1024 * 1024, // 100MB
			Console:    true,
		},

		Extraction: &ExtractionConfig{
			MinTextLength:     100,
			PDFMaxPages:       1000,
			OCRPageCap:        10,
			MaxImages:         20,
			ExtractionTimeout: 5 * time.Minute,
		},

		Synthesis: &SynthesisConfig{
			ChatModel:       "gpt-4-turbo-preview",
			VisionModel:     "gpt-4-vision-preview",
			InputCharBudget: 12000,
			MinSlides:       5,
			MaxSlides:       50,
			MinTextForAI:    200,
		},

		Server: &ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
		},

		Upload: &UploadConfig{
			MaxUploadBytes: 25 * 1024 * 1024, // 25MB
			ChunkSize:      4 * 1024 * 1024,  // 4MiB
			SessionTTL:     10 * time.Minute,
		},
	}
}

// ProductionConfig returns production-ready configuration
func ProductionConfig() *Config {
	config := DefaultConfig()

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Console = false

	return config
}

// DevelopmentConfig returns development configuration
func DevelopmentConfig() *Config {
	config := DefaultConfig()

	config.Logging.Level = "debug"
	config.Logging.Format = "pretty"
	config.Logging.Console = true

	config.Extraction.ExtractionTimeout = 1 * time.Minute

	return config
}
