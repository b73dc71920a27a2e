package transcription

import (
	"context"
	"fmt"
	"io"
	"iter"
)

// Device names.
const (
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// ModelKey identifies a loaded model.
type ModelKey struct {
	Model       string `json:"model"`
	ComputeType string `json:"compute_type"`
	Device      string `json:"device"`
}

// Normalize fills in the device and compute precision: int8 on CPU,
// float16 on CUDA, unless set explicitly.
func (k ModelKey) Normalize() ModelKey {
	if k.Device == "" {
		k.Device = DeviceCPU
	}
	if k.ComputeType == "" {
		switch k.Device {
		case DeviceCPU:
			k.ComputeType = "int8"
		case DeviceCUDA:
			k.ComputeType = "float16"
		default:
			k.ComputeType = "default"
		}
	}
	return k
}

func (k ModelKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Model, k.ComputeType, k.Device)
}

// Segment is one timed span of transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Info is summary metadata reported by an engine.
type Info struct {
	Duration            float64
	Language            string
	LanguageProbability float64
}

// DecodeOptions are the per-request inference settings.
type DecodeOptions struct {
	BeamSize int
	Threads  int
	Language string
}

// Engine loads models. Implementations must be safe for concurrent use.
type Engine interface {
	Name() string
	Load(ctx context.Context, key ModelKey) (Model, error)
	Ping(ctx context.Context) error
}

// Model is a loaded speech-to-text model. The returned sequence is lazy,
// single-pass and finite; a non-nil error value ends the iteration.
type Model interface {
	Transcribe(ctx context.Context, audioPath string, opts DecodeOptions) (iter.Seq2[Segment, error], Info, error)
	io.Closer
}

// Request is one transcription request.
type Request struct {
	Audio    io.Reader
	Filename string
	// Model overrides the configured default model.
	Model    string
	BeamSize int
	Threads  int
	Fast     bool
	Debug    bool
	// TargetScript requests Chinese script conversion, e.g. "traditional".
	TargetScript string
	Language     string
}

// Result is the response body of a transcription.
type Result struct {
	Text          string      `json:"text"`
	Duration      float64     `json:"duration"`
	BeamSizeUsed  int         `json:"beam_size_used"`
	ThreadsUsed   int         `json:"threads_used"`
	OrigText      string      `json:"orig_text,omitempty"`
	TargetScript  string      `json:"target_script,omitempty"`
	SegmentsCount int         `json:"segments_count"`
	DebugWAV      *WAVInfo    `json:"debug_wav,omitempty"`
	DebugSegments []Segment   `json:"debug_segments,omitempty"`
	Info          *ResultInfo `json:"info,omitempty"`

	Segments []Segment `json:"-"`
}

// ResultInfo carries diagnostics returned with debug requests and with
// empty transcripts.
type ResultInfo struct {
	Model               string  `json:"model"`
	ComputeType         string  `json:"compute_type"`
	Device              string  `json:"device"`
	Engine              string  `json:"engine"`
	Language            string  `json:"language,omitempty"`
	LanguageProbability float64 `json:"language_probability,omitempty"`
	NormalizeSeconds    float64 `json:"normalize_seconds"`
	InferenceSeconds    float64 `json:"inference_seconds"`
	SegmentsConsidered  int     `json:"segments_considered"`
	Note                string  `json:"note,omitempty"`
}
