package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/lifemap/memorymap/database"
	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/observability"
	"github.com/lifemap/memorymap/resilience"
	"github.com/lifemap/memorymap/storage"
	"github.com/lifemap/memorymap/transcription"
)

// Transcriber turns audio into text. *transcription.Service implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error)
}

// AnalysisConfig bounds background analysis.
type AnalysisConfig struct {
	// Workers is the number of analyses that run at once.
	Workers int `mapstructure:"workers"`
	// QueueWait is how long a triggered analysis waits for a free worker
	// before it is marked failed.
	QueueWait time.Duration `mapstructure:"queue_wait"`
	// Timeout bounds one analysis.
	Timeout time.Duration `mapstructure:"timeout"`
	// TargetScript is applied to transcripts, e.g. "traditional".
	TargetScript string `mapstructure:"target_script"`
}

// ApplyDefaults fills in zero-value fields.
func (c *AnalysisConfig) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueWait <= 0 {
		c.QueueWait = 10 * time.Minute
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Minute
	}
}

// UploadVoiceInput is an admin upload. Metadata is optional raw JSON.
type UploadVoiceInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Metadata    string
}

// VoiceService manages admin voice records and their analysis. Analyses
// run on a bulkhead, detached from the triggering request; Close cancels
// the outstanding ones and waits for them.
type VoiceService struct {
	records     *table[VoiceRecord]
	store       storage.Storage
	transcriber Transcriber
	geocoder    Geocoder
	cfg         AnalysisConfig
	bulkhead    *resilience.Bulkhead
	metrics     *observability.Metrics
	maxFileSize int64
	log         *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// VoiceOption configures a VoiceService.
type VoiceOption func(*VoiceService)

// WithAnalysisMetrics records finished analyses on m.
func WithAnalysisMetrics(m *observability.Metrics) VoiceOption {
	return func(s *VoiceService) { s.metrics = m }
}

// WithMaxFileSize caps an uploaded recording at n bytes.
func WithMaxFileSize(n int64) VoiceOption {
	return func(s *VoiceService) { s.maxFileSize = n }
}

// NewVoiceService creates the service. A nil transcriber makes every
// analysis fail with a clear message; a nil geocoder skips region analysis.
func NewVoiceService(db *database.DB, store storage.Storage, transcriber Transcriber, geocoder Geocoder, cfg AnalysisConfig, log *logger.Logger, opts ...VoiceOption) *VoiceService {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &VoiceService{
		records:     newTable[VoiceRecord](db, "voice record"),
		store:       store,
		transcriber: transcriber,
		geocoder:    geocoder,
		cfg:         cfg,
		bulkhead: resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "voice-analysis",
			MaxConcurrent: cfg.Workers,
			MaxWait:       cfg.QueueWait,
		}),
		log:    log.WithComponent("voice"),
		ctx:    ctx,
		cancel: cancel,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores the file and creates a pending record.
func (s *VoiceService) Upload(ctx context.Context, in UploadVoiceInput) (*VoiceRecord, error) {
	name := sanitizeFilename(in.Filename)
	if name == "" {
		return nil, apperrors.MissingField("file")
	}
	meta := Metadata{}
	if strings.TrimSpace(in.Metadata) != "" {
		if err := json.Unmarshal([]byte(in.Metadata), &meta); err != nil {
			return nil, apperrors.InvalidInput("metadata", "metadata must be a JSON object")
		}
	}

	rec := &VoiceRecord{
		Filename:    name,
		ContentType: in.ContentType,
		Metadata:    meta,
	}
	_ = rec.BeforeCreate(nil)
	rec.FilePath = path.Join("voice", rec.ID, name)

	body := in.Body
	if s.maxFileSize > 0 {
		body = io.LimitReader(body, s.maxFileSize+1)
	}
	counter := &countingReader{r: body}
	if err := s.store.Upload(ctx, rec.FilePath, counter, in.ContentType); err != nil {
		return nil, apperrors.ExternalServiceError("storage", err)
	}
	if s.maxFileSize > 0 && counter.n > s.maxFileSize {
		_ = s.store.Delete(ctx, rec.FilePath)
		return nil, apperrors.PayloadTooLarge(s.maxFileSize)
	}
	rec.SizeBytes = counter.n
	if url, err := s.store.URL(ctx, rec.FilePath); err == nil {
		rec.FileURL = url
	}
	if err := s.records.create(ctx, rec); err != nil {
		_ = s.store.Delete(ctx, rec.FilePath)
		return nil, err
	}
	s.log.WithContext(ctx).Info("voice record uploaded", logger.Fields("id", rec.ID, "bytes", rec.SizeBytes))
	return rec, nil
}

// List returns records newest first.
func (s *VoiceService) List(ctx context.Context, limit int) ([]VoiceRecord, error) {
	return s.records.list(ctx, clampLimit(limit))
}

// Get returns one record.
func (s *VoiceService) Get(ctx context.Context, id string) (*VoiceRecord, error) {
	return s.records.get(ctx, id)
}

// Analyze marks the record processing and schedules its analysis. It
// returns once the record is marked; the analysis outlives the request.
func (s *VoiceService) Analyze(ctx context.Context, id string) (*VoiceRecord, error) {
	if s.ctx.Err() != nil {
		return nil, apperrors.ServiceUnavailable("analysis worker")
	}
	marked, err := s.records.updateIf(ctx, id, map[string]any{
		"analysis_status":       StatusProcessing,
		"analysis_started_at":   s.now(),
		"analysis_completed_at": nil,
		"analysis_error":        "",
	}, "analysis_status <> ?", StatusProcessing)
	if err != nil {
		return nil, err
	}
	if !marked {
		if _, err := s.records.get(ctx, id); err != nil {
			return nil, err
		}
		return nil, apperrors.New(apperrors.ErrCodeAlreadyExists, "Analysis is already running for this record.", http.StatusConflict).
			WithDetail("id", id)
	}
	rec, err := s.records.get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(rec.ID, rec.FilePath, rec.Filename)
	}()
	return rec, nil
}

// Close cancels running analyses and waits for them to record their state.
func (s *VoiceService) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *VoiceService) run(id, filePath, filename string) {
	log := s.log.WithFields(logger.Fields("id", id))
	var out analysis
	err := s.bulkhead.Execute(s.ctx, func() error {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.Timeout)
		defer cancel()
		var err error
		out, err = s.analyze(ctx, filePath, filename)
		return err
	})

	// The final state is written even when the service is shutting down.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 10*time.Second)
	defer cancel()
	columns := map[string]any{"analysis_completed_at": s.now()}
	if err != nil {
		columns["analysis_status"] = StatusFailed
		columns["analysis_error"] = err.Error()
		log.WithError(err).Warn("voice analysis failed")
	} else {
		columns["analysis_status"] = StatusDone
		columns["transcribed_text"] = out.text
		columns["region_analysis"] = out.region
		columns["interest_analysis"] = out.interests
		log.Info("voice analysis complete", logger.Fields("region", out.region, "interests", out.interests))
	}
	if _, err := s.records.update(ctx, id, columns); err != nil {
		log.WithError(err).Error("recording analysis result failed")
	}
	s.metrics.RecordAnalysis(ctx, string(columns["analysis_status"].(AnalysisStatus)))
}

type analysis struct {
	text      string
	region    string
	interests string
}

func (s *VoiceService) analyze(ctx context.Context, filePath, filename string) (analysis, error) {
	if s.transcriber == nil {
		return analysis{}, fmt.Errorf("transcription is disabled")
	}
	body, err := s.store.Download(ctx, filePath)
	if err != nil {
		return analysis{}, fmt.Errorf("read audio: %w", err)
	}
	defer body.Close()

	res, err := s.transcriber.Transcribe(ctx, transcription.Request{
		Audio:        body,
		Filename:     filename,
		TargetScript: s.cfg.TargetScript,
	})
	if err != nil {
		return analysis{}, err
	}
	return analysis{
		text:      res.Text,
		region:    s.region(ctx, res.Text),
		interests: Interests(res.Text),
	}, nil
}

// region names the place mentioned in text, with coordinates when it
// resolves.
func (s *VoiceService) region(ctx context.Context, text string) string {
	if s.geocoder == nil {
		return ""
	}
	name, ok := s.geocoder.Detect(text)
	if !ok {
		return ""
	}
	if place, ok := s.geocoder.Resolve(ctx, name); ok {
		return fmt.Sprintf("%s (%.4f, %.4f)", name, place.Lat, place.Lng)
	}
	return name
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// sanitizeFilename keeps the base name and drops path separators.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
