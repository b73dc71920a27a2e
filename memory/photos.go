package memory

import (
	"bytes"
	"context"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/storage"
)

// ThumbnailSize bounds both sides of a generated thumbnail.
const ThumbnailSize = 300

// PhotoUpload is the stored location of an uploaded photo.
type PhotoUpload struct {
	PhotoURL     string `json:"photo_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// PhotoService stores photos and their thumbnails.
type PhotoService struct {
	store       storage.Storage
	maxFileSize int64
	log         *logger.Logger
}

// NewPhotoService creates the service.
func NewPhotoService(store storage.Storage, maxFileSize int64, log *logger.Logger) *PhotoService {
	if log == nil {
		log = logger.NewNop()
	}
	return &PhotoService{store: store, maxFileSize: maxFileSize, log: log.WithComponent("photos")}
}

// Upload decodes the image, stores the original and a JPEG thumbnail, and
// returns their URLs. Undecodable input is INVALID_INPUT.
func (s *PhotoService) Upload(ctx context.Context, filename, contentType string, body io.Reader) (*PhotoUpload, error) {
	limit := s.maxFileSize
	if limit <= 0 {
		limit = 1 << 62
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, apperrors.InvalidInput("photo", "failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, apperrors.PayloadTooLarge(s.maxFileSize)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.InvalidInput("photo", "file is not a supported image")
	}
	_, format, _ := image.DecodeConfig(bytes.NewReader(data))

	id := uuid.NewString()
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/" + format
	}
	ext := photoExtension(filename, format)
	original := "photos/" + id + ext
	thumbKey := "photos/" + id + "_thumb.jpg"

	thumb := imaging.Fit(img, ThumbnailSize, ThumbnailSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := storage.PutBytes(ctx, s.store, original, data, contentType); err != nil {
		return nil, apperrors.ExternalServiceError("storage", err)
	}
	if err := storage.PutBytes(ctx, s.store, thumbKey, buf.Bytes(), "image/jpeg"); err != nil {
		_ = s.store.Delete(ctx, original)
		return nil, apperrors.ExternalServiceError("storage", err)
	}

	out := &PhotoUpload{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if out.PhotoURL, err = s.store.URL(ctx, original); err != nil {
		return nil, apperrors.ExternalServiceError("storage", err)
	}
	if out.ThumbnailURL, err = s.store.URL(ctx, thumbKey); err != nil {
		return nil, apperrors.ExternalServiceError("storage", err)
	}
	s.log.WithContext(ctx).Info("photo stored", logger.Fields("key", original, "width", out.Width, "height", out.Height))
	return out, nil
}

func photoExtension(filename, format string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 && i < len(filename)-1 {
		ext := strings.ToLower(filename[i:])
		switch ext {
		case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
			return ext
		}
	}
	switch format {
	case "jpeg":
		return ".jpg"
	case "":
		return ".img"
	}
	return "." + format
}
