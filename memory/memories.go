package memory

import (
	"context"
	"strings"

	"github.com/lifemap/memorymap/database"
	"github.com/lifemap/memorymap/geocode"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/validation"
)

// MaxListLimit caps list queries; it is also the default.
const MaxListLimit = 100

// Geocoder finds and resolves place names. *geocode.Resolver implements it.
type Geocoder interface {
	Detect(text string) (string, bool)
	Resolve(ctx context.Context, name string) (*geocode.Place, bool)
}

// CreateMemoryInput is the body of a create request.
type CreateMemoryInput struct {
	Text      string   `json:"text" validate:"required"`
	Summary   string   `json:"summary"`
	PlaceName string   `json:"place_name"`
	Lat       *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng       *float64 `json:"lng" validate:"omitempty,longitude"`
	Date      string   `json:"date"`
	PhotoURL  string   `json:"photo_url"`
}

// UpdateMemoryInput holds the fields to change; nil fields are left alone.
type UpdateMemoryInput struct {
	Text      *string  `json:"text" validate:"omitempty,min=1"`
	Summary   *string  `json:"summary"`
	PlaceName *string  `json:"place_name"`
	Lat       *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng       *float64 `json:"lng" validate:"omitempty,longitude"`
	Date      *string  `json:"date"`
	PhotoURL  *string  `json:"photo_url"`
}

// MemoryService implements the memories endpoints.
type MemoryService struct {
	memories *table[Memory]
	geocoder Geocoder
	log      *logger.Logger
}

// NewMemoryService creates the service. A nil geocoder disables automatic
// place resolution.
func NewMemoryService(db *database.DB, geocoder Geocoder, log *logger.Logger) *MemoryService {
	if log == nil {
		log = logger.NewNop()
	}
	return &MemoryService{
		memories: newTable[Memory](db, "memory"),
		geocoder: geocoder,
		log:      log.WithComponent("memories"),
	}
}

// Create stores a memory. Without coordinates, the place is taken from
// place_name or detected in the text and geocoded; a miss is not an error.
func (s *MemoryService) Create(ctx context.Context, in CreateMemoryInput) (*Memory, error) {
	in.Text = strings.TrimSpace(in.Text)
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	m := &Memory{
		Text:      in.Text,
		Summary:   in.Summary,
		PlaceName: strings.TrimSpace(in.PlaceName),
		Lat:       in.Lat,
		Lng:       in.Lng,
		Date:      in.Date,
		PhotoURL:  in.PhotoURL,
	}
	if !m.HasLocation() {
		s.locate(ctx, m)
	}
	if err := s.memories.create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MemoryService) locate(ctx context.Context, m *Memory) {
	if s.geocoder == nil {
		return
	}
	name := m.PlaceName
	if name == "" {
		detected, ok := s.geocoder.Detect(m.Text)
		if !ok {
			return
		}
		name = detected
	}
	place, ok := s.geocoder.Resolve(ctx, name)
	if !ok {
		s.log.WithContext(ctx).Debug("place not resolved", logger.Fields("place", name))
		return
	}
	lat, lng := place.Lat, place.Lng
	m.Lat, m.Lng = &lat, &lng
	if m.PlaceName == "" {
		m.PlaceName = name
	}
}

// List returns up to limit memories, newest first. Values outside
// 1..MaxListLimit mean MaxListLimit.
func (s *MemoryService) List(ctx context.Context, limit int) ([]Memory, error) {
	return s.memories.list(ctx, clampLimit(limit))
}

// Get returns one memory or a NOT_FOUND error.
func (s *MemoryService) Get(ctx context.Context, id string) (*Memory, error) {
	return s.memories.get(ctx, id)
}

// Update applies the non-nil fields of in.
func (s *MemoryService) Update(ctx context.Context, id string, in UpdateMemoryInput) (*Memory, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	columns := map[string]any{}
	setIf(columns, "text", in.Text)
	setIf(columns, "summary", in.Summary)
	setIf(columns, "place_name", in.PlaceName)
	setIf(columns, "lat", in.Lat)
	setIf(columns, "lng", in.Lng)
	setIf(columns, "date", in.Date)
	setIf(columns, "photo_url", in.PhotoURL)
	return s.memories.update(ctx, id, columns)
}

// Delete removes a memory or returns NOT_FOUND.
func (s *MemoryService) Delete(ctx context.Context, id string) error {
	return s.memories.delete(ctx, id)
}

func setIf[T any](columns map[string]any, column string, v *T) {
	if v != nil {
		columns[column] = *v
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
