package api

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/beacondesk/beacon-deck/pkg/logging"
)

// uploadSession accumulates the chunks of one logical upload. Chunks may
// only arrive in order; the index check rejects gaps and duplicates.
type uploadSession struct {
	mu             sync.Mutex
	Filename       string
	ExtractionMode string
	NumSlides      int
	TotalChunks    int
	NextIndex      int
	Buffer         bytes.Buffer
	LastSeen       time.Time
}

// SessionStore holds in-flight chunked uploads in memory. Sessions that go
// quiet past the TTL are dropped on the next access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*uploadSession
	ttl      time.Duration
}

// NewSessionStore creates a session store with the given idle TTL
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*uploadSession),
		ttl:      ttl,
	}
}

// get returns an existing session or creates one for the first chunk
func (s *SessionStore) get(id string) *uploadSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &uploadSession{}
		s.sessions[id] = sess
	}
	sess.LastSeen = time.Now()
	return sess
}

func (s *SessionStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// expireLocked drops sessions idle past the TTL. Caller holds the lock.
func (s *SessionStore) expireLocked() {
	cutoff := time.Now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.LastSeen.Before(cutoff) {
			log.Debug().Str("session_id", id).Msg("Expiring stale upload session")
			delete(s.sessions, id)
		}
	}
}

// count reports live sessions, used by tests
func (s *SessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// UploadChunk receives one chunk of a chunked upload. Intermediate chunks
// are acknowledged; the final chunk reassembles the document and returns
// the full conversion result.
func (h *Handlers) UploadChunk(c *fiber.Ctx) error {
	sessionID := c.FormValue("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "sessionId is required",
		})
	}

	chunkIndex, err := strconv.Atoi(c.FormValue("chunkIndex"))
	if err != nil || chunkIndex < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chunkIndex",
		})
	}

	totalChunks, err := strconv.Atoi(c.FormValue("totalChunks"))
	if err != nil || totalChunks < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid totalChunks",
		})
	}

	file, err := c.FormFile("chunk")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No chunk uploaded",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to open chunk",
		})
	}
	defer src.Close()

	sess := h.sessions.get(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if chunkIndex != sess.NextIndex {
		h.sessions.remove(sessionID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Out-of-order chunk: got index %d, expected %d", chunkIndex, sess.NextIndex),
		})
	}

	if chunkIndex == 0 {
		sess.Filename = c.FormValue("filename")
		sess.ExtractionMode = c.FormValue("extractionMode")
		sess.NumSlides = parseNumSlides(c.FormValue("numSlides"))
		sess.TotalChunks = totalChunks
	} else if totalChunks != sess.TotalChunks {
		h.sessions.remove(sessionID)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "totalChunks changed mid-session",
		})
	}

	written, err := io.Copy(&sess.Buffer, src)
	if err != nil {
		h.sessions.remove(sessionID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to buffer chunk",
		})
	}

	if int64(sess.Buffer.Len()) > h.cfg.Upload.MaxUploadBytes {
		h.sessions.remove(sessionID)
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("Upload exceeds maximum size of %d bytes", h.cfg.Upload.MaxUploadBytes),
		})
	}

	sess.NextIndex++

	logger := logging.GetUploadLogger(sessionID)
	logger.Debug().
		Int("chunk_index", chunkIndex).
		Int("total_chunks", totalChunks).
		Int64("bytes", written).
		Msg("Buffered upload chunk")

	// Intermediate chunk: just acknowledge
	if sess.NextIndex < sess.TotalChunks {
		return c.JSON(fiber.Map{
			"sessionId":      sessionID,
			"receivedChunks": sess.NextIndex,
			"totalChunks":    sess.TotalChunks,
		})
	}

	// Final chunk: reassemble and convert
	content := sess.Buffer.Bytes()
	filename := sess.Filename
	mode := sess.ExtractionMode
	numSlides := sess.NumSlides
	h.sessions.remove(sessionID)

	logger.Info().
		Str("filename", filename).
		Int("size", len(content)).
		Msg("Chunked upload complete, starting conversion")

	result, err := h.converter.Convert(c.Context(), content, filename, mode, numSlides)
	if err != nil {
		return conversionError(c, err)
	}

	return c.JSON(result)
}
