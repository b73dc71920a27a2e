package transcription_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifemap/memorymap/transcription"
	"github.com/lifemap/memorymap/transcription/transcriptiontest"
)

func TestArgsProduceCanonicalFormat(t *testing.T) {
	args := transcription.Args("in.m4a", "out.wav")
	assert.Equal(t, "in.m4a", args[indexOf(args, "-i")+1])
	assert.Equal(t, "1", args[indexOf(args, "-ac")+1])
	assert.Equal(t, "16000", args[indexOf(args, "-ar")+1])
	assert.Equal(t, "pcm_s16le", args[indexOf(args, "-acodec")+1])
	assert.Equal(t, "out.wav", args[len(args)-1])
}

func indexOf(args []string, flag string) int {
	for i, a := range args {
		if a == flag {
			return i
		}
	}
	return -1
}

func TestNormalizeWithStandInTool(t *testing.T) {
	tmp := t.TempDir()
	n := transcription.NewNormalizer(transcriptiontest.FakeFFmpeg(t), tmp, nil)

	out, err := n.Normalize(context.Background(), transcriptiontest.SilentWAV(t, 1))
	require.NoError(t, err)
	defer os.Remove(out)

	info, err := transcription.ProbeWAV(out)
	require.NoError(t, err)
	assert.True(t, info.IsCanonical())
	assert.InDelta(t, 1.0, info.Duration, 0.01)
}

func TestNormalizeConversionFailureCleansUp(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("FAIL_CONVERSION", "1")
	n := transcription.NewNormalizer(transcriptiontest.FakeFFmpeg(t), tmp, nil)

	_, err := n.Normalize(context.Background(), transcriptiontest.SilentWAV(t, 1))

	var convErr *transcription.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 1, convErr.ExitCode)
	assert.Contains(t, convErr.Output, "invalid data")

	leftovers, _ := filepath.Glob(filepath.Join(tmp, "canonical-*"))
	assert.Empty(t, leftovers)
}

func TestNormalizeMissingTool(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	n := transcription.NewNormalizer("/nonexistent/ffmpeg", t.TempDir(), nil)

	_, err := n.Normalize(context.Background(), "in.wav")

	var toolErr *transcription.ToolNotFoundError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "TOOL_NOT_FOUND", string(transcription.AppError(err).Code))
}

func TestNormalizeRealFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "stereo.wav")
	samples := make([]int, 44100)
	require.NoError(t, transcription.WritePCM16(src, 44100, samples))

	out, err := transcription.NewNormalizer("", dir, nil).Normalize(context.Background(), src)
	require.NoError(t, err)

	info, err := transcription.ProbeWAV(out)
	require.NoError(t, err)
	assert.Equal(t, transcription.CanonicalSampleRate, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.InDelta(t, 1.0, info.Duration, 0.05)
}
