package transcription

import (
	"context"
	stderrors "errors"
	"os"
	"strconv"
	"strings"

	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/observability"
	"github.com/lifemap/memorymap/process"
)

const defaultTool = "ffmpeg"

// Normalizer converts arbitrary audio containers to the canonical WAV format.
type Normalizer struct {
	toolPath string
	tempDir  string
	log      *logger.Logger
}

// NewNormalizer creates a normalizer. toolPath may be empty, in which case
// ffmpeg is looked up on PATH for every conversion.
func NewNormalizer(toolPath, tempDir string, log *logger.Logger) *Normalizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Normalizer{toolPath: toolPath, tempDir: tempDir, log: log.WithComponent("normalizer")}
}

// ResolveTool returns the override path when it is executable, else the
// PATH lookup of ffmpeg.
func (n *Normalizer) ResolveTool() (string, error) {
	if n.toolPath != "" {
		path, err := process.LookPath(n.toolPath)
		if err == nil {
			return path, nil
		}
		n.log.Warn("configured ffmpeg path not usable, falling back to PATH", logger.Fields("path", n.toolPath, logger.FieldError, err.Error()))
	}
	path, err := process.LookPath(defaultTool)
	if err != nil {
		return "", &ToolNotFoundError{Tool: defaultTool, Err: err}
	}
	return path, nil
}

// Args returns the ffmpeg argument list converting in to out.
func Args(in, out string) []string {
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", in,
		"-ac", strconv.Itoa(CanonicalChannels),
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		out,
	}
}

// Normalize writes a canonical copy of inputPath to a new temporary file
// and returns its path. The caller owns both files on success; on failure
// the output file has already been removed.
func (n *Normalizer) Normalize(ctx context.Context, inputPath string) (_ string, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanNormalize)
	defer func() { observability.EndSpan(span, err) }()

	tool, err := n.ResolveTool()
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(n.tempDir, "canonical-*.wav")
	if err != nil {
		return "", err
	}
	out := f.Name()
	_ = f.Close()
	defer func() {
		if err != nil {
			_ = os.Remove(out)
		}
	}()

	res, err := process.Run(ctx, process.Command{Binary: tool, Args: Args(inputPath, out)})
	if err != nil {
		if stderrors.Is(err, process.ErrNotFound) {
			return "", &ToolNotFoundError{Tool: tool, Err: err}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		convErr := &ConversionError{ExitCode: -1, Err: err}
		if res != nil {
			convErr.ExitCode = res.ExitCode
			convErr.Output = strings.TrimSpace(string(res.Stderr))
		}
		return "", convErr
	}
	n.log.Debug("audio normalized", logger.Fields("input", inputPath, logger.FieldDuration, res.Duration.Milliseconds()))
	return out, nil
}
