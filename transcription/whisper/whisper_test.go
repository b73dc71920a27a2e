package whisper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifemap/memorymap/httpclient"
	"github.com/lifemap/memorymap/transcription"
)

func sidecar(t *testing.T, transcribe http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("POST /load", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "missing" {
			http.Error(w, `{"error":"unknown model"}`, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /transcribe", transcribe)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "canonical.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
	return path
}

func TestTranscribeSendsKeyAndReplaysSegments(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "small", r.FormValue("model"))
		assert.Equal(t, "int8", r.FormValue("compute_type"))
		assert.Equal(t, "5", r.FormValue("beam_size"))
		assert.Equal(t, "zh", r.FormValue("language"))
		if _, hdr, err := r.FormFile("audio"); assert.NoError(t, err) {
			assert.Equal(t, "canonical.wav", hdr.Filename)
		}

		_ = json.NewEncoder(w).Encode(whisperResponse{
			Segments: []whisperSegment{{Text: "台北", Start: 0, End: 1.5}, {Text: "101", Start: 1.5, End: 2.25}},
			Language: "zh",
		})
	})
	e, err := New(Config{URL: srv.URL}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Ping(context.Background()))

	m, err := e.Load(context.Background(), transcription.ModelKey{Model: "small"}.Normalize())
	require.NoError(t, err)

	seq, info, err := m.Transcribe(context.Background(), audioFile(t), transcription.DecodeOptions{BeamSize: 5, Language: "zh"})
	require.NoError(t, err)
	assert.Equal(t, 2.25, info.Duration, "duration falls back to the last segment end")

	var texts []string
	for s, err := range seq {
		require.NoError(t, err)
		texts = append(texts, s.Text)
	}
	assert.Equal(t, []string{"台北", "101"}, texts)
}

func TestLoadUnknownModel(t *testing.T) {
	srv := sidecar(t, func(http.ResponseWriter, *http.Request) {})
	e, err := New(Config{URL: srv.URL}, nil)
	require.NoError(t, err)

	_, err = e.Load(context.Background(), transcription.ModelKey{Model: "missing"}.Normalize())
	require.Error(t, err)
	assert.True(t, httpclient.IsNotFound(err))
}

func TestTranscribeServerError(t *testing.T) {
	srv := sidecar(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "cuda oom", http.StatusInternalServerError)
	})
	e, err := New(Config{URL: srv.URL}, nil)
	require.NoError(t, err)
	m, err := e.Load(context.Background(), transcription.ModelKey{Model: "small"}.Normalize())
	require.NoError(t, err)

	_, _, err = m.Transcribe(context.Background(), audioFile(t), transcription.DecodeOptions{BeamSize: 1})
	require.Error(t, err)
	assert.True(t, httpclient.IsServerError(err))
}
