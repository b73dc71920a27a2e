package openai

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

	"github.com/lifemap/memorymap/transcription"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/models/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "whisper-1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "whisper-1", "object": "model"})
	})
	mux.HandleFunc("POST /v1/audio/transcriptions", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"task":     "transcribe",
			"language": "chinese",
			"duration": 3.5,
			"text":     "今天天氣很好",
			"segments": []map[string]any{
				{"id": 0, "start": 0.0, "end": 2.0, "text": "今天"},
				{"id": 1, "start": 2.0, "end": 3.5, "text": "天氣很好"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestConfigRequiresKey(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}

func TestTranscribeVerboseJSON(t *testing.T) {
	srv := fakeAPI(t)
	e, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, nil)
	require.NoError(t, err)
	require.NoError(t, e.Ping(context.Background()))

	m, err := e.Load(context.Background(), transcription.ModelKey{Model: "small"}.Normalize())
	require.NoError(t, err)

	audio := filepath.Join(t.TempDir(), "a.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFF"), 0o644))
	seq, info, err := m.Transcribe(context.Background(), audio, transcription.DecodeOptions{BeamSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 3.5, info.Duration)

	var joined string
	for s, err := range seq {
		require.NoError(t, err)
		joined += s.Text
	}
	assert.Equal(t, "今天天氣很好", joined)
}

func TestLoadUnknownHostedModel(t *testing.T) {
	srv := fakeAPI(t)
	e, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"}, nil)
	require.NoError(t, err)

	_, err = e.Load(context.Background(), transcription.ModelKey{Model: "whisper-9"}.Normalize())
	require.Error(t, err)
}
