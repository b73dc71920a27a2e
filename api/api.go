package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/memory"
	"github.com/lifemap/memorymap/server"
	"github.com/lifemap/memorymap/transcription"
)

// Transcriber is the pipeline behind /api/transcribe.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error)
}

// Handlers holds the services behind the routes. A nil Transcriber turns
// the transcription routes into 503s.
type Handlers struct {
	Transcriber Transcriber
	Memories    *memory.MemoryService
	Audio       *memory.AudioService
	Voice       *memory.VoiceService
	Photos      *memory.PhotoService

	// MaxFileSize caps each uploaded file; zero leaves only the server's
	// body limit.
	MaxFileSize int64
}

// Register mounts the API routes on r. Routes of a nil service are left
// out; the transcription routes are always mounted.
func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/api/transcribe", h.transcribe)
	r.POST("/transcribe", h.transcribe)

	if h.Memories != nil {
		mem := r.Group("/api/memories")
		mem.POST("", h.createMemory)
		mem.GET("", h.listMemories)
		mem.GET("/:id", h.getMemory)
		mem.PUT("/:id", h.updateMemory)
		mem.DELETE("/:id", h.deleteMemory)
	}
	if h.Audio != nil {
		audio := r.Group("/api/audio")
		audio.POST("", h.createAudio)
		audio.GET("", h.listAudio)
		audio.GET("/:id", h.getAudio)
		audio.DELETE("/:id", h.deleteAudio)
	}
	if h.Voice != nil {
		admin := r.Group("/api/admin")
		admin.POST("/upload", h.uploadVoice)
		admin.GET("/records", h.listVoice)
		admin.GET("/records/:id", h.getVoice)
		admin.POST("/analyze", h.analyzeVoice)
	}
	if h.Photos != nil {
		r.POST("/api/photo/upload", h.uploadPhoto)
	}
}

// bindJSON decodes the body into v, rejecting unknown shapes with 400.
func bindJSON(c *gin.Context, v any) error {
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return apperrors.InvalidInput("body", "request body is empty")
		default:
			return apperrors.InvalidInput("body", "request body must be valid JSON").WithCause(err)
		}
	}
	return nil
}

// limitParam reads ?limit=; absent means the service default.
func limitParam(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.InvalidInput("limit", "limit must be a positive integer")
	}
	return n, nil
}

func unavailable(c *gin.Context, feature string) {
	server.RespondWithError(c, apperrors.ServiceUnavailable(feature))
}
