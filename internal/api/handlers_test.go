package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacondesk/beacon-deck/internal/convert"
	"github.com/beacondesk/beacon-deck/pkg/pipeline"
)

func newTestApp(t *testing.T) (*fiber.App, *pipeline.Config) {
	t.Helper()

	cfg := pipeline.DefaultConfig()
	cfg.Logging.OutputFile = ""
	cfg.Upload.MaxUploadBytes = 1024 * 1024

	converter := convert.NewService(cfg, nil, nil)
	h := NewHandlers(converter, cfg)

	app := fiber.New()
	app.Get("/health", h.Health)
	app.Post("/api/v1/decks", h.CreateDeck)
	app.Post("/api/v1/decks/chunks", h.UploadChunk)
	return app, cfg
}

// multipartBody builds a multipart payload with one file part plus fields
func multipartBody(t *testing.T, fileField, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var wire struct {
		Error string `json:"error"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &wire))
	return wire.Error
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")
	assert.Contains(t, string(body), "ai_enabled")
}

func TestCreateDeckMissingFile(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "", "", nil, map[string]string{"numSlides": "5"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateDeckOversized(t *testing.T) {
	app, cfg := newTestApp(t)

	oversized := make([]byte, cfg.Upload.MaxUploadBytes+1)
	copy(oversized, "%PDF-1.4")

	body, contentType := multipartBody(t, "file", "big.pdf", oversized, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp), "too large")
}

func TestCreateDeckWrongExtension(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "file", "notes.docx", []byte("%PDF-1.4 fake"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestCreateDeckInvalidPDF(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "file", "fake.pdf", []byte("plain text, no header"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp), "not a valid PDF")
}

func chunkRequest(t *testing.T, sessionID string, index, total int, data []byte, first bool) *http.Request {
	t.Helper()

	fields := map[string]string{
		"sessionId":   sessionID,
		"chunkIndex":  strconv.Itoa(index),
		"totalChunks": strconv.Itoa(total),
	}
	if first {
		fields["filename"] = "chunked.pdf"
		fields["extractionMode"] = "extract"
	}

	body, contentType := multipartBody(t, "chunk", "chunked.pdf.part", data, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks/chunks", body)
	req.Header.Set("Content-Type", contentType)
	return req
}

func TestUploadChunkIntermediateAck(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(chunkRequest(t, "sess-1", 0, 3, []byte("%PDF"), true))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack struct {
		SessionID      string `json:"sessionId"`
		ReceivedChunks int    `json:"receivedChunks"`
		TotalChunks    int    `json:"totalChunks"`
	}
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.Equal(t, "sess-1", ack.SessionID)
	assert.Equal(t, 1, ack.ReceivedChunks)
	assert.Equal(t, 3, ack.TotalChunks)
}

func TestUploadChunkFinalTriggersConversion(t *testing.T) {
	app, _ := newTestApp(t)

	// Reassembled payload has no %PDF header, so the final chunk must
	// reach the converter and come back with its typed error
	resp, err := app.Test(chunkRequest(t, "sess-2", 0, 2, []byte("not a "), true))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(chunkRequest(t, "sess-2", 1, 2, []byte("pdf at all"), false), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp), "not a valid PDF")
}

func TestUploadChunkOutOfOrder(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(chunkRequest(t, "sess-3", 0, 3, []byte("abc"), true))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(chunkRequest(t, "sess-3", 2, 3, []byte("def"), false))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp), "Out-of-order")
}

func TestUploadChunkMissingSession(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartBody(t, "chunk", "x.part", []byte("abc"), map[string]string{
		"chunkIndex":  "0",
		"totalChunks": "2",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks/chunks", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)

	store.get("old")
	require.Equal(t, 1, store.count())

	time.Sleep(20 * time.Millisecond)

	// Any access sweeps stale sessions
	store.get("new")
	assert.Equal(t, 1, store.count())
}
