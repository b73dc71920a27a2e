package memory

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memory is a text note pinned to a place.
type Memory struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Text      string    `gorm:"not null" json:"text"`
	Summary   string    `json:"summary"`
	PlaceName string    `json:"place_name"`
	Lat       *float64  `json:"lat"`
	Lng       *float64  `json:"lng"`
	Date      string    `json:"date"`
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Memory) TableName() string { return "memories" }

func (m *Memory) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// HasLocation reports whether both coordinates are set.
func (m *Memory) HasLocation() bool { return m.Lat != nil && m.Lng != nil }

// AudioRecording is the metadata of an uploaded clip. The audio itself lives
// in object storage under ObjectKey.
type AudioRecording struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ObjectKey     string    `gorm:"not null" json:"-"`
	AudioType     string    `json:"audio_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Transcription string    `json:"transcription"`
	Location      string    `json:"location"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	PlaceName     string    `json:"place_name"`
	MemoryID      *string   `json:"memory_id"`
	Source        string    `json:"source"`
	Duration      float64   `json:"duration"`
	Synced        bool      `json:"synced"`
	CreatedAt     time.Time `json:"created_at"`

	AudioURL string `gorm:"-" json:"audio_url,omitempty"`
}

func (AudioRecording) TableName() string { return "audio_recordings" }

func (a *AudioRecording) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// AnalysisStatus is the lifecycle state of a voice record analysis.
type AnalysisStatus string

const (
	StatusPending    AnalysisStatus = "pending"
	StatusProcessing AnalysisStatus = "processing"
	StatusDone       AnalysisStatus = "done"
	StatusFailed     AnalysisStatus = "failed"
)

// VoiceRecord is an admin-uploaded recording and its analysis.
type VoiceRecord struct {
	ID                  string         `gorm:"primaryKey;size:36" json:"id"`
	Filename            string         `gorm:"not null" json:"filename"`
	FilePath            string         `gorm:"not null" json:"file_path"`
	FileURL             string         `json:"file_url"`
	ContentType         string         `json:"content_type"`
	SizeBytes           int64          `json:"size_bytes"`
	AnalysisStatus      AnalysisStatus `gorm:"size:16;not null" json:"analysis_status"`
	TranscribedText     string         `json:"transcribed_text"`
	RegionAnalysis      string         `json:"region_analysis"`
	InterestAnalysis    string         `json:"interest_analysis"`
	AnalysisError       string         `json:"analysis_error,omitempty"`
	Metadata            Metadata       `gorm:"type:text" json:"metadata"`
	CreatedAt           time.Time      `json:"created_at"`
	AnalysisStartedAt   *time.Time     `json:"analysis_started_at"`
	AnalysisCompletedAt *time.Time     `json:"analysis_completed_at"`
}

func (VoiceRecord) TableName() string { return "voice_records" }

func (v *VoiceRecord) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.AnalysisStatus == "" {
		v.AnalysisStatus = StatusPending
	}
	return nil
}

// Metadata is free-form JSON stored as text.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = Metadata{}
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = out
	return nil
}
