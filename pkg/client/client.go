// Package client provides a Go client for the beacon-deck HTTP API,
// including chunked uploads for documents too large for a single request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

// DefaultChunkSize is the chunk size used when none is configured
const DefaultChunkSize = 4 * 1024 * 1024

// Result is the server's success payload for a completed conversion
type Result struct {
	Slides      []deck.Slide `json:"slides"`
	HTMLPreview string       `json:"htmlPreview"`
	PPTXBase64  string       `json:"pptxBase64"`
	Filename    string       `json:"filename"`
	TotalSlides int          `json:"totalSlides"`
}

// UploadMeta carries the conversion options alongside the document
type UploadMeta struct {
	Filename       string
	ExtractionMode string
	NumSlides      int
}

// ProgressFunc receives upload progress as a percentage in [0, 100]
type ProgressFunc func(percent float64)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a beacon-deck server
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	ChunkSize  int64
}

// New creates a client with sensible defaults
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Minute},
		ChunkSize:  DefaultChunkSize,
	}
}

// Upload sends the whole document in one multipart request
func (c *Client) Upload(ctx context.Context, r io.Reader, meta UploadMeta) (*Result, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", meta.Filename)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	writeMetaFields(w, meta)
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	return c.post(ctx, c.BaseURL+"/api/v1/decks", w.FormDataContentType(), &body)
}

// UploadLarge streams the document to the server in fixed-size chunks under
// one session. Chunks are sent sequentially; onProgress (optional) is called
// after each acknowledged chunk. The final chunk's response carries the
// conversion result.
func (c *Client) UploadLarge(ctx context.Context, r io.Reader, size int64, meta UploadMeta, onProgress ProgressFunc) (*Result, error) {
	chunkSize := c.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if size <= 0 {
		return nil, fmt.Errorf("upload size must be positive, got %d", size)
	}

	sessionID := uuid.New().String()
	totalChunks := int((size + chunkSize - 1) / chunkSize)

	var sent int64
	buf := make([]byte, chunkSize)

	for index := 0; index < totalChunks; index++ {
		n, err := io.ReadFull(r, buf)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			// Short final chunk
			err = nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading chunk %d: %w", index, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("document shorter than declared size %d", size)
		}

		result, err := c.sendChunk(ctx, sessionID, index, totalChunks, buf[:n], meta)
		if err != nil {
			return nil, err
		}

		sent += int64(n)
		if onProgress != nil {
			onProgress(float64(sent) / float64(size) * 100)
		}

		if result != nil {
			return result, nil
		}
	}

	return nil, fmt.Errorf("upload session %s completed without a result", sessionID)
}

// sendChunk posts one chunk. A nil result with nil error is an intermediate
// acknowledgement; the final chunk returns the conversion result.
func (c *Client) sendChunk(ctx context.Context, sessionID string, index, total int, data []byte, meta UploadMeta) (*Result, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("chunk", fmt.Sprintf("%s.part%d", meta.Filename, index))
	if err != nil {
		return nil, fmt.Errorf("building chunk request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("building chunk request: %w", err)
	}

	w.WriteField("sessionId", sessionID)
	w.WriteField("chunkIndex", strconv.Itoa(index))
	w.WriteField("totalChunks", strconv.Itoa(total))
	if index == 0 {
		w.WriteField("filename", meta.Filename)
		writeMetaFields(w, meta)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("building chunk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/v1/decks/chunks", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending chunk %d: %w", index, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading chunk %d response: %w", index, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, payload)
	}

	// The final chunk's response carries the conversion result; anything
	// with a slides array counts, regardless of which chunk we think this is
	var result Result
	if err := json.Unmarshal(payload, &result); err == nil && result.Slides != nil {
		return &result, nil
	}
	return nil, nil
}

func (c *Client) post(ctx context.Context, url, contentType string, body io.Reader) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, payload)
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}

// decodeError prefers the server's {"error": ...} shape, falling back to the
// raw body for plain-text errors from proxies
func decodeError(status int, payload []byte) error {
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &wire); err == nil && wire.Error != "" {
		return &APIError{StatusCode: status, Message: wire.Error}
	}
	msg := string(bytes.TrimSpace(payload))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}

func writeMetaFields(w *multipart.Writer, meta UploadMeta) {
	if meta.ExtractionMode != "" {
		w.WriteField("extractionMode", meta.ExtractionMode)
	}
	if meta.NumSlides > 0 {
		w.WriteField("numSlides", strconv.Itoa(meta.NumSlides))
	}
}
