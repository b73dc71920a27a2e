package transcription_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifemap/memorymap/component"
	"github.com/lifemap/memorymap/transcription"
	"github.com/lifemap/memorymap/transcription/transcriptiontest"
)

func newService(t *testing.T, engine *transcriptiontest.Engine) (*transcription.Service, string) {
	t.Helper()
	tmp := t.TempDir()
	cfg := transcription.Config{FFmpegPath: transcriptiontest.FakeFFmpeg(t), TempDir: tmp, DefaultThreads: 2}
	return transcription.NewService(cfg, transcription.NewModelCache(engine, nil, nil)), tmp
}

func silentUpload(t *testing.T, seconds float64) *bytes.Reader {
	t.Helper()
	data, err := os.ReadFile(transcriptiontest.SilentWAV(t, seconds))
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestTranscribeSilentAudio(t *testing.T) {
	svc, tmp := newService(t, &transcriptiontest.Engine{})

	res, err := svc.Transcribe(context.Background(), transcription.Request{Audio: silentUpload(t, 2), Filename: "silence.wav"})
	require.NoError(t, err)

	assert.Equal(t, "", res.Text)
	assert.Equal(t, 0, res.SegmentsCount)
	assert.InDelta(t, 2.0, res.Duration, 0.01)
	assert.Equal(t, 1, res.BeamSizeUsed)
	assert.Equal(t, 2, res.ThreadsUsed)
	require.NotNil(t, res.Info, "empty transcript carries diagnostics")
	assert.NotEmpty(t, res.Info.Note)
	assert.Equal(t, "small", res.Info.Model)
	assert.Equal(t, "stub", res.Info.Engine)

	leftovers, _ := filepath.Glob(filepath.Join(tmp, "*"))
	assert.Empty(t, leftovers, "temp files removed")
}

func TestTranscribeFastForcesBeamOne(t *testing.T) {
	engine := &transcriptiontest.Engine{Segments: []transcription.Segment{{Text: "hello"}}}
	svc, _ := newService(t, engine)

	res, err := svc.Transcribe(context.Background(), transcription.Request{Audio: silentUpload(t, 1), Filename: "a.wav", BeamSize: 5, Fast: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.BeamSizeUsed)
	opts, _ := engine.LastOptions()
	assert.Equal(t, 1, opts.BeamSize)
	assert.Nil(t, res.Info, "no diagnostics without debug when text is present")
}

func TestTranscribeUnknownTargetLeavesText(t *testing.T) {
	engine := &transcriptiontest.Engine{Segments: []transcription.Segment{{Text: "台北"}}}
	svc, _ := newService(t, engine)

	res, err := svc.Transcribe(context.Background(), transcription.Request{Audio: silentUpload(t, 1), Filename: "a.wav", TargetScript: "klingon"})
	require.NoError(t, err)
	assert.Equal(t, "台北", res.Text)
	assert.Empty(t, res.OrigText)
	assert.Empty(t, res.TargetScript)
}

func TestTranscribeDebugFields(t *testing.T) {
	svc, _ := newService(t, &transcriptiontest.Engine{})

	res, err := svc.Transcribe(context.Background(), transcription.Request{Audio: silentUpload(t, 1), Filename: "a.wav", Debug: true})
	require.NoError(t, err)
	require.NotNil(t, res.DebugWAV)
	assert.True(t, res.DebugWAV.IsCanonical())
	assert.NotNil(t, res.DebugSegments)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"debug_wav"`)
	assert.Contains(t, string(body), `"segments_count":0`)
}

func TestTranscribeSameKeyLoadsOnce(t *testing.T) {
	engine := &transcriptiontest.Engine{Segments: []transcription.Segment{{Text: "x"}}}
	svc, _ := newService(t, engine)

	for i := 0; i < 3; i++ {
		_, err := svc.Transcribe(context.Background(), transcription.Request{Audio: silentUpload(t, 1), Filename: "a.wav"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, engine.Loads())

	_, err := svc.Transcribe(context.Background(), transcription.Request{Audio: silentUpload(t, 1), Filename: "a.wav", Model: "medium"})
	require.NoError(t, err)
	assert.Equal(t, 2, engine.Loads())
	assert.Equal(t, 1, engine.Closes())
}

func TestTranscribeConversionFailure(t *testing.T) {
	t.Setenv("FAIL_CONVERSION", "1")
	svc, _ := newService(t, &transcriptiontest.Engine{})

	_, err := svc.Transcribe(context.Background(), transcription.Request{Audio: bytes.NewReader([]byte("not audio")), Filename: "x.m4a"})
	app := transcription.AppError(err)
	require.NotNil(t, app)
	assert.Equal(t, "AUDIO_CONVERSION_FAILED", string(app.Code))
}

func TestServiceComponentHealth(t *testing.T) {
	engine := &transcriptiontest.Engine{}
	svc, _ := newService(t, engine)
	comp := svc.Component()

	assert.Equal(t, component.StatusHealthy, comp.Health(context.Background()).Status)

	engine.PingErr = assert.AnError
	assert.Equal(t, component.StatusDegraded, comp.Health(context.Background()).Status)
	require.NoError(t, comp.Stop(context.Background()))
}
