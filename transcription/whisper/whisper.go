// Package whisper implements a transcription engine backed by a
// faster-whisper HTTP sidecar.
package whisper

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lifemap/memorymap/httpclient"
	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/transcription"
)

const (
	// EngineName is the registered engine name.
	EngineName = "whisper"

	defaultWhisperURL     = "http://localhost:8387"
	defaultWhisperTimeout = 10 * time.Minute
)

// Config holds configuration for the sidecar engine.
type Config struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Retry enables retries of transport failures and 5xx responses.
	Retry bool `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultWhisperURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultWhisperTimeout
	}
}

// Engine implements transcription.Engine over HTTP. The sidecar owns the
// loaded weights; a Model here only pins the key sent with each request.
type Engine struct {
	cfg    Config
	client *httpclient.Client
	log    *logger.Logger
}

// New creates a sidecar engine.
func New(cfg Config, log *logger.Logger) (*Engine, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	hc := httpclient.Config{
		BaseURL:        cfg.URL,
		Timeout:        cfg.Timeout,
		CircuitBreaker: httpclient.DefaultCircuitBreakerConfig(EngineName),
	}
	if cfg.Retry {
		hc.Retry = httpclient.DefaultRetryConfig()
	}
	client, err := httpclient.New(hc)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	return &Engine{cfg: cfg, client: client, log: log.WithComponent("whisper")}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return EngineName }

// Ping checks that the sidecar answers its health endpoint.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err
}

// Load asks the sidecar to warm the model so the first request does not
// pay the download.
func (e *Engine) Load(ctx context.Context, key transcription.ModelKey) (transcription.Model, error) {
	_, err := e.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/load",
		Body:   loadRequest{Model: key.Model, ComputeType: key.ComputeType, Device: key.Device},
	})
	if err != nil {
		return nil, err
	}
	e.log.Debug("sidecar model ready", logger.Fields(logger.FieldModel, key.String()))
	return &model{engine: e, key: key}, nil
}

type model struct {
	engine *Engine
	key    transcription.ModelKey
}

// Transcribe uploads the canonical audio and replays the returned segments.
func (m *model) Transcribe(ctx context.Context, audioPath string, opts transcription.DecodeOptions) (iter.Seq2[transcription.Segment, error], transcription.Info, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, transcription.Info{}, fmt.Errorf("whisper: read audio: %w", err)
	}
	fields := map[string]string{
		"model":        m.key.Model,
		"compute_type": m.key.ComputeType,
		"device":       m.key.Device,
		"beam_size":    strconv.Itoa(opts.BeamSize),
	}
	if opts.Threads > 0 {
		fields["threads"] = strconv.Itoa(opts.Threads)
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}

	resp, err := m.engine.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   "audio",
				FileName:    filepath.Base(audioPath),
				ContentType: "audio/wav",
				Data:        data,
			}},
		},
	})
	if err != nil {
		return nil, transcription.Info{}, err
	}

	var result whisperResponse
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, transcription.Info{}, err
	}
	return result.segments(), result.info(), nil
}

// Close is a no-op; the sidecar manages its own memory.
func (m *model) Close() error { return nil }

type loadRequest struct {
	Model       string `json:"model"`
	ComputeType string `json:"compute_type"`
	Device      string `json:"device"`
}

type whisperResponse struct {
	Text                string           `json:"text"`
	Segments            []whisperSegment `json:"segments"`
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	Duration            float64          `json:"duration"`
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *whisperResponse) segments() iter.Seq2[transcription.Segment, error] {
	return func(yield func(transcription.Segment, error) bool) {
		for _, s := range r.Segments {
			if !yield(transcription.Segment{Start: s.Start, End: s.End, Text: s.Text}, nil) {
				return
			}
		}
	}
}

func (r *whisperResponse) info() transcription.Info {
	duration := r.Duration
	if duration == 0 && len(r.Segments) > 0 {
		duration = r.Segments[len(r.Segments)-1].End
	}
	return transcription.Info{Duration: duration, Language: r.Language, LanguageProbability: r.LanguageProbability}
}
