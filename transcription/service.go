package transcription

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lifemap/memorymap/component"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/observability"
)

const emptyTranscriptNote = "engine produced no text; audio may be silent or unsupported"

// Service runs the full pipeline: stage the upload, normalize, infer with
// the cached model, optionally convert the script.
type Service struct {
	cfg        Config
	cache      *ModelCache
	normalizer *Normalizer
	runner     *Runner
	converter  *ScriptConverter
	log        *logger.Logger
	metrics    *observability.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) Option { return func(s *Service) { s.metrics = m } }

// NewService wires a service around an injected model cache.
func NewService(cfg Config, cache *ModelCache, opts ...Option) *Service {
	cfg.ApplyDefaults()
	s := &Service{cfg: cfg, cache: cache, log: logger.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithComponent("transcription")
	s.normalizer = NewNormalizer(cfg.FFmpegPath, cfg.TempDir, s.log)
	s.converter = NewScriptConverter(s.log)
	s.runner = NewRunner(cfg.DefaultThreads, s.log)
	return s
}

// Transcribe runs req through the pipeline. Temporary files are removed on
// every exit path.
func (s *Service) Transcribe(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	key := s.modelKey(req.Model)
	defer func() { s.metrics.RecordTranscription(ctx, key.Model, time.Since(start), err) }()

	input, err := s.stage(req.Audio, req.Filename)
	if err != nil {
		return nil, err
	}
	defer s.remove(input)

	normStart := time.Now()
	canonical, err := s.normalizer.Normalize(ctx, input)
	if err != nil {
		return nil, err
	}
	defer s.remove(canonical)
	normElapsed := time.Since(normStart)

	lease, err := s.cache.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	language := req.Language
	if language == "" {
		language = s.cfg.Language
	}
	inf, err := s.runner.Run(ctx, lease.Model(), canonical, RunOptions{
		BeamSize: req.BeamSize,
		Threads:  req.Threads,
		Fast:     req.Fast,
		Language: language,
	})
	if err != nil {
		return nil, err
	}

	res = &Result{
		Text:          inf.Text,
		Duration:      inf.Info.Duration,
		BeamSizeUsed:  inf.BeamSize,
		ThreadsUsed:   inf.Threads,
		SegmentsCount: len(inf.Segments),
		Segments:      inf.Segments,
	}

	wavInfo, probeErr := ProbeWAV(canonical)
	if probeErr != nil {
		s.log.Warn("probing canonical audio failed", logger.Fields(logger.FieldError, probeErr.Error()))
	} else if res.Duration <= 0 {
		res.Duration = wavInfo.Duration
	}

	if req.TargetScript != "" && res.Text != "" {
		_, span := observability.StartSpan(ctx, observability.SpanConvert)
		if conv := s.converter.Convert(res.Text, req.TargetScript); conv.Converted() {
			res.Text = conv.Text
			res.OrigText = conv.Original
			res.TargetScript = conv.Target
		}
		span.End()
	}

	if req.Debug {
		res.DebugWAV = wavInfo
		res.DebugSegments = inf.Segments
		if res.DebugSegments == nil {
			res.DebugSegments = []Segment{}
		}
	}
	if req.Debug || res.Text == "" {
		res.Info = &ResultInfo{
			Model:               key.Model,
			ComputeType:         key.ComputeType,
			Device:              key.Device,
			Engine:              s.cache.engine.Name(),
			Language:            inf.Info.Language,
			LanguageProbability: inf.Info.LanguageProbability,
			NormalizeSeconds:    normElapsed.Seconds(),
			InferenceSeconds:    inf.Elapsed.Seconds(),
			SegmentsConsidered:  len(inf.Segments),
		}
		if res.Text == "" {
			res.Info.Note = emptyTranscriptNote
		}
	}

	s.log.WithContext(ctx).Info("transcription complete", logger.Fields(
		logger.FieldModel, key.Model,
		"segments", res.SegmentsCount,
		"audio_seconds", res.Duration,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return res, nil
}

func (s *Service) modelKey(model string) ModelKey {
	if model == "" {
		model = s.cfg.DefaultModel
	}
	return ModelKey{Model: model, ComputeType: s.cfg.ComputeType, Device: s.cfg.Device}.Normalize()
}

// stage copies the upload into a request-scoped temp file, keeping the
// extension so the converter can sniff the container.
func (s *Service) stage(r io.Reader, filename string) (string, error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (s *Service) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("removing temp file failed", logger.Fields("path", path, logger.FieldError, err.Error()))
	}
}

// Component exposes the engine for lifecycle and health reporting.
func (s *Service) Component() component.Component { return &serviceComponent{s: s} }

type serviceComponent struct{ s *Service }

func (c *serviceComponent) Name() string { return "transcription" }

func (c *serviceComponent) Start(context.Context) error { return nil }

// Stop retires the cached model and shuts the engine down when it owns
// resources such as a worker process.
func (c *serviceComponent) Stop(context.Context) error {
	err := c.s.cache.Close()
	if closer, ok := c.s.cache.engine.(io.Closer); ok {
		err = stderrors.Join(err, closer.Close())
	}
	return err
}

func (c *serviceComponent) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if _, err := c.s.normalizer.ResolveTool(); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
		return h
	}
	if err := c.s.cache.engine.Ping(ctx); err != nil {
		h.Status, h.Message = component.StatusDegraded, err.Error()
	}
	return h
}

func (c *serviceComponent) Describe() component.Description {
	return component.Description{
		Name:    "Transcription",
		Type:    "engine",
		Details: c.s.cache.engine.Name() + " model=" + c.s.cfg.DefaultModel + " device=" + c.s.cfg.Device,
	}
}
