package transcription_test

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifemap/memorymap/transcription"
	"github.com/lifemap/memorymap/transcription/transcriptiontest"
)

func loadStub(t *testing.T, engine *transcriptiontest.Engine) transcription.Model {
	t.Helper()
	m, err := engine.Load(context.Background(), transcription.ModelKey{Model: "small"}.Normalize())
	require.NoError(t, err)
	return m
}

func TestEffectiveBeamSize(t *testing.T) {
	assert.Equal(t, 1, transcription.EffectiveBeamSize(0, false))
	assert.Equal(t, 5, transcription.EffectiveBeamSize(5, false))
	assert.Equal(t, 1, transcription.EffectiveBeamSize(5, true))
	assert.Equal(t, 1, transcription.EffectiveBeamSize(-3, false))
}

func TestRunnerJoinsSegmentsWithoutSeparator(t *testing.T) {
	segs := []transcription.Segment{
		{Start: 0, End: 1.2, Text: "今天去了"},
		{Start: 1.2, End: 2.5, Text: " 台北101，"},
		{Start: 2.5, End: 4, Text: "看到很美的夜景。 "},
	}
	engine := &transcriptiontest.Engine{Segments: segs, Info: transcription.Info{Duration: 4, Language: "zh"}}
	r := transcription.NewRunner(2, nil)

	inf, err := r.Run(context.Background(), loadStub(t, engine), "in.wav", transcription.RunOptions{BeamSize: 5})
	require.NoError(t, err)

	var joined strings.Builder
	for _, s := range inf.Segments {
		joined.WriteString(s.Text)
	}
	assert.Equal(t, joined.String(), inf.Text)
	assert.Equal(t, "今天去了 台北101，看到很美的夜景。 ", inf.Text)
	assert.Equal(t, 5, inf.BeamSize)
	assert.Equal(t, 2, inf.Threads)

	opts, _ := engine.LastOptions()
	assert.Equal(t, 5, opts.BeamSize)
}

func TestRunnerZeroSegmentsIsNotAnError(t *testing.T) {
	r := transcription.NewRunner(0, nil)
	inf, err := r.Run(context.Background(), loadStub(t, &transcriptiontest.Engine{}), "in.wav", transcription.RunOptions{Fast: true, BeamSize: 4})
	require.NoError(t, err)
	assert.Equal(t, "", inf.Text)
	assert.Empty(t, inf.Segments)
	assert.Equal(t, 1, inf.BeamSize)
	assert.Equal(t, runtime.NumCPU(), inf.Threads)
}

func TestRunnerMidStreamFailure(t *testing.T) {
	engine := &transcriptiontest.Engine{
		Segments:   []transcription.Segment{{Text: "partial"}},
		SegmentErr: errors.New("cuda out of memory"),
	}
	_, err := transcription.NewRunner(1, nil).Run(context.Background(), loadStub(t, engine), "in.wav", transcription.RunOptions{})

	var inferErr *transcription.InferenceError
	require.ErrorAs(t, err, &inferErr)
	assert.Contains(t, err.Error(), "cuda out of memory")
	assert.Equal(t, "INFERENCE_FAILED", string(transcription.AppError(err).Code))
}
