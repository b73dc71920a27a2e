package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Server        struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Storage struct {
		Local struct {
			BasePath string `mapstructure:"base_path"`
		} `mapstructure:"local"`
	} `mapstructure:"storage"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	cfg := ServiceConfig{Name: "svc"}
	cfg.ApplyDefaults()
	if cfg.Environment != "development" || !cfg.Debug {
		t.Errorf("expected development with debug, got %+v", cfg)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging defaults, got %q", cfg.Logging.Level)
	}

	prod := ServiceConfig{Name: "svc", Environment: "production"}
	prod.ApplyDefaults()
	if prod.Debug {
		t.Error("expected debug=false for production")
	}
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    ServiceConfig
		errMsg string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestLoadYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yaml := "name: memorymapd\nenvironment: staging\nserver:\n  port: 9000\n"
	if err := os.WriteFile(configPath, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MMTEST_SERVER_PORT", "9100")
	t.Setenv("UPLOAD_DIR", "/var/uploads")

	var cfg testConfig
	err := Load("memorymapd", &cfg,
		WithConfigFile(configPath),
		WithEnvFile(filepath.Join(dir, "missing.env")),
		WithEnvPrefix("MMTEST"),
		WithEnvAlias("storage.local.base_path", "UPLOAD_DIR"),
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Name != "memorymapd" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected env override 9100, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Local.BasePath != "/var/uploads" {
		t.Errorf("expected alias value, got %q", cfg.Storage.Local.BasePath)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	var cfg testConfig
	err := Load("memorymapd", &cfg,
		WithFileSystem(&mockFS{files: map[string]bool{}}),
		WithConfigFile("/nonexistent/config.yml"),
		WithDefault("server.port", 8080),
	)
	if err != nil {
		t.Fatalf("expected success with missing file, got %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestResolveFilesSearchOrder(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/memorymapd/config.yml": true,
		"./config.yml":                true,
		".env":                        true,
	}}
	files := ResolveFiles(fs, "memorymapd", LoaderConfig{})
	if files.ConfigFile != "./cmd/memorymapd/config.yml" {
		t.Errorf("expected cmd config first, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }
func (m *mockFS) LoadEnv(string) error    { return nil }
