package transcription

import (
	"context"
	stderrors "errors"
	"runtime"
	"strings"
	"time"

	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/observability"
)

const defaultBeamSize = 1

// RunOptions are the caller-facing inference knobs.
type RunOptions struct {
	BeamSize int
	Threads  int
	Fast     bool
	Language string
}

// Inference is the outcome of one model run.
type Inference struct {
	Text     string
	Segments []Segment
	Info     Info
	BeamSize int
	Threads  int
	Elapsed  time.Duration
}

// Runner runs a model over canonical audio and assembles the transcript.
type Runner struct {
	defaultThreads int
	log            *logger.Logger
}

// NewRunner creates a runner. defaultThreads <= 0 means runtime.NumCPU().
func NewRunner(defaultThreads int, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{defaultThreads: defaultThreads, log: log.WithComponent("runner")}
}

// EffectiveBeamSize applies the beam rules: fast forces 1, otherwise an
// explicit positive width, otherwise 1.
func EffectiveBeamSize(requested int, fast bool) int {
	if fast || requested <= 0 {
		return defaultBeamSize
	}
	return requested
}

// EffectiveThreads returns requested when positive, else the runner default,
// else the CPU count.
func (r *Runner) EffectiveThreads(requested int) int {
	switch {
	case requested > 0:
		return requested
	case r.defaultThreads > 0:
		return r.defaultThreads
	default:
		return runtime.NumCPU()
	}
}

// Run decodes audioPath with m. Segment texts are concatenated in order
// with no separator; an empty sequence yields an empty transcript, not an
// error. Engine failures come back as *InferenceError.
func (r *Runner) Run(ctx context.Context, m Model, audioPath string, opts RunOptions) (inf *Inference, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanInference)
	defer func() { observability.EndSpan(span, err) }()

	inf = &Inference{
		BeamSize: EffectiveBeamSize(opts.BeamSize, opts.Fast),
		Threads:  r.EffectiveThreads(opts.Threads),
	}
	start := time.Now()

	seq, info, err := m.Transcribe(ctx, audioPath, DecodeOptions{BeamSize: inf.BeamSize, Threads: inf.Threads, Language: opts.Language})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	inf.Info = info

	var sb strings.Builder
	for seg, segErr := range seq {
		if segErr != nil {
			return nil, r.fail(ctx, segErr)
		}
		inf.Segments = append(inf.Segments, seg)
		sb.WriteString(seg.Text)
	}
	inf.Text = sb.String()
	inf.Elapsed = time.Since(start)

	if inf.Text == "" {
		r.log.Info("empty transcript", logger.Fields("segments", len(inf.Segments), "audio", audioPath))
	}
	return inf, nil
}

func (r *Runner) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var loadErr *ModelLoadError
	if stderrors.As(err, &loadErr) {
		return err
	}
	r.log.WithContext(ctx).WithStack(err).Error("inference failed")
	return &InferenceError{Err: err}
}
