package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifemap/memorymap/storage"
	"github.com/lifemap/memorymap/storage/local"
	"github.com/lifemap/memorymap/storage/s3"
	"github.com/lifemap/memorymap/transcription"
)

func TestLoadConfigLegacyEnv(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "postgresql")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/memorymap")
	t.Setenv("UPLOAD_DIR", "/var/lib/memorymap")
	t.Setenv("MAX_FILE_SIZE", "25MB")
	t.Setenv("ENABLE_TRANSCRIPTION", "false")
	t.Setenv("ENABLE_GEOCODING", "false")

	cfg, err := loadConfig("")
	require.NoError(t, err)
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "memorymapd", cfg.Name)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost/memorymap", cfg.Database.DSN)
	assert.Equal(t, "/var/lib/memorymap", cfg.Storage.Local.BasePath)
	assert.Equal(t, int64(25<<20), cfg.Storage.MaxFileSize)
	assert.False(t, cfg.Transcription.Enabled)
	assert.False(t, cfg.Geocode.Enabled)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, "memorymapd", cfg.Observability.ServiceName)
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, storage.ProviderLocal, cfg.Storage.Provider)
	assert.Equal(t, transcription.EngineFasterWhisper, cfg.Transcription.Engine)
	assert.IsType(t, &local.Config{}, cfg.Storage.ProviderConfig())

	cfg.Storage.Provider = storage.ProviderS3
	assert.IsType(t, &s3.Config{}, cfg.Storage.ProviderConfig())
	cfg.Storage.Enabled = true
	assert.Error(t, cfg.Validate(), "s3 without a bucket")
}

func TestNewEngine(t *testing.T) {
	cfg := TranscriptionConfig{}
	cfg.ApplyDefaults()
	cfg.DefaultThreads = 4

	engine, err := newEngine(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "faster-whisper", engine.Name())

	cfg.Engine = transcription.EngineOpenAI
	_, err = newEngine(cfg, nil)
	assert.Error(t, err, "openai requires an api key")

	cfg.Engine = "kaldi"
	_, err = newEngine(cfg, nil)
	assert.Error(t, err)
}
