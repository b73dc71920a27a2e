package memory

import (
	"context"
	"encoding/base64"
	"mime"
	"strings"

	"github.com/lifemap/memorymap/database"
	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/storage"
	"github.com/lifemap/memorymap/util"
	"github.com/lifemap/memorymap/validation"
)

const (
	defaultAudioType   = "audio/webm"
	defaultAudioSource = "mobile_app"
)

// CreateAudioInput is the body of an audio upload. AudioData is standard
// base64, optionally as a data URL.
type CreateAudioInput struct {
	AudioData     string   `json:"audio_data" validate:"required"`
	AudioType     string   `json:"audio_type"`
	Transcription string   `json:"transcription"`
	Location      string   `json:"location"`
	Latitude      *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude" validate:"omitempty,longitude"`
	PlaceName     string   `json:"place_name"`
	MemoryID      *string  `json:"memory_id"`
	Source        string   `json:"source"`
	Duration      float64  `json:"duration" validate:"gte=0"`
}

// AudioService stores recordings in object storage and their metadata in
// the database.
type AudioService struct {
	recordings  *table[AudioRecording]
	store       storage.Storage
	maxFileSize int64
	log         *logger.Logger
}

// NewAudioService creates the service. maxFileSize bounds decoded payloads;
// zero means unbounded.
func NewAudioService(db *database.DB, store storage.Storage, maxFileSize int64, log *logger.Logger) *AudioService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AudioService{
		recordings:  newTable[AudioRecording](db, "audio recording"),
		store:       store,
		maxFileSize: maxFileSize,
		log:         log.WithComponent("audio"),
	}
}

// Create decodes and stores the clip, then records its metadata. The object
// is removed again when the row cannot be written.
func (s *AudioService) Create(ctx context.Context, in CreateAudioInput) (*AudioRecording, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	audioType, payload := splitDataURL(in.AudioData)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, apperrors.InvalidInput("audio_data", "audio_data must be non-empty base64")
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, apperrors.PayloadTooLarge(s.maxFileSize)
	}

	rec := &AudioRecording{
		AudioType:     util.Coalesce(strings.TrimSpace(in.AudioType), audioType, defaultAudioType),
		SizeBytes:     int64(len(data)),
		Transcription: in.Transcription,
		Location:      in.Location,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		PlaceName:     in.PlaceName,
		MemoryID:      in.MemoryID,
		Source:        util.Coalesce(strings.TrimSpace(in.Source), defaultAudioSource),
		Duration:      in.Duration,
	}
	// The id is assigned here so the object key can carry it.
	_ = rec.BeforeCreate(nil)
	rec.ObjectKey = "audio/" + rec.ID + extensionFor(rec.AudioType, ".bin")

	if err := storage.PutBytes(ctx, s.store, rec.ObjectKey, data, rec.AudioType); err != nil {
		return nil, apperrors.ExternalServiceError("storage", err)
	}
	if err := s.recordings.create(ctx, rec); err != nil {
		if delErr := s.store.Delete(ctx, rec.ObjectKey); delErr != nil {
			s.log.Warn("removing orphaned audio object failed", logger.ErrorFields("delete", delErr))
		}
		return nil, err
	}
	s.withURL(ctx, rec)
	return rec, nil
}

// List returns recording metadata, newest first.
func (s *AudioService) List(ctx context.Context, limit int) ([]AudioRecording, error) {
	recs, err := s.recordings.list(ctx, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	for i := range recs {
		s.withURL(ctx, &recs[i])
	}
	return recs, nil
}

// Get returns one recording's metadata.
func (s *AudioService) Get(ctx context.Context, id string) (*AudioRecording, error) {
	rec, err := s.recordings.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.withURL(ctx, rec)
	return rec, nil
}

// Delete removes the row and then the object. A failed object delete is
// logged; the row is already gone.
func (s *AudioService) Delete(ctx context.Context, id string) error {
	rec, err := s.recordings.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.recordings.delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, rec.ObjectKey); err != nil {
		s.log.WithContext(ctx).Warn("deleting audio object failed", logger.Fields("key", rec.ObjectKey, logger.FieldError, err.Error()))
	}
	return nil
}

func (s *AudioService) withURL(ctx context.Context, rec *AudioRecording) {
	if url, err := s.store.URL(ctx, rec.ObjectKey); err == nil {
		rec.AudioURL = url
	}
}

// splitDataURL separates "data:audio/webm;base64,AAAA" into its media type
// and payload. Plain base64 is returned unchanged.
func splitDataURL(s string) (mediaType, payload string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return "", s
	}
	header, body, ok := strings.Cut(s, ",")
	if !ok {
		return "", s
	}
	mediaType = strings.TrimPrefix(header, "data:")
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return mediaType, body
}

func extensionFor(contentType, fallback string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "audio/webm":
			return ".webm"
		case "audio/wav", "audio/x-wav", "audio/wave":
			return ".wav"
		case "audio/mpeg":
			return ".mp3"
		case "audio/mp4", "audio/m4a", "audio/x-m4a":
			return ".m4a"
		case "audio/ogg":
			return ".ogg"
		case "image/jpeg":
			return ".jpg"
		}
		if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return fallback
}
