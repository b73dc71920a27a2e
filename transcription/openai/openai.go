// Package openai implements a transcription engine on the OpenAI audio API.
package openai

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/transcription"
)

// EngineName is the registered engine name.
const EngineName = "openai"

// Config configures the OpenAI engine.
type Config struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Model is used unless the request key names a hosted model itself.
	Model   string        `yaml:"model" mapstructure:"model"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = goopenai.Whisper1
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("transcription.openai.api_key is required")
	}
	return nil
}

// Engine transcribes through the hosted API. It keeps no local weights,
// so loading only validates that the model exists.
type Engine struct {
	cfg    Config
	client *goopenai.Client
	log    *logger.Logger
}

// New creates an engine.
func New(cfg Config, log *logger.Logger) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	cc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Engine{cfg: cfg, client: goopenai.NewClientWithConfig(cc), log: log.WithComponent("openai")}, nil
}

func (e *Engine) Name() string { return EngineName }

// Ping checks that the configured model is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	_, err := e.client.GetModel(ctx, e.cfg.Model)
	return err
}

// Load resolves the hosted model for key and checks that it exists.
func (e *Engine) Load(ctx context.Context, key transcription.ModelKey) (transcription.Model, error) {
	name := e.hostedModel(key.Model)
	if _, err := e.client.GetModel(ctx, name); err != nil {
		return nil, err
	}
	return &model{engine: e, name: name}, nil
}

// hostedModel maps local size names such as "small" onto the configured
// hosted model.
func (e *Engine) hostedModel(requested string) string {
	if strings.HasPrefix(requested, "whisper-") || strings.Contains(requested, "transcribe") {
		return requested
	}
	return e.cfg.Model
}

type model struct {
	engine *Engine
	name   string
}

// Transcribe uploads the audio and requests segment timestamps. Beam
// width and threads have no hosted equivalent and are ignored.
func (m *model) Transcribe(ctx context.Context, audioPath string, opts transcription.DecodeOptions) (iter.Seq2[transcription.Segment, error], transcription.Info, error) {
	resp, err := m.engine.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:                  m.name,
		FilePath:               audioPath,
		Language:               opts.Language,
		Format:                 goopenai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []goopenai.TranscriptionTimestampGranularity{goopenai.TranscriptionTimestampGranularitySegment},
	})
	if err != nil {
		return nil, transcription.Info{}, err
	}

	segments := make([]transcription.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, transcription.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	// Some hosted models return text without segments.
	if len(segments) == 0 && resp.Text != "" {
		segments = append(segments, transcription.Segment{End: resp.Duration, Text: resp.Text})
	}
	info := transcription.Info{Duration: resp.Duration, Language: resp.Language}

	return func(yield func(transcription.Segment, error) bool) {
		for _, s := range segments {
			if !yield(s, nil) {
				return
			}
		}
	}, info, nil
}

func (m *model) Close() error { return nil }
