package database

import (
	"strings"
	"testing"
	"time"
)

func TestConfigApplyDefaultsSQLite(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverSQLite)
	}
	if cfg.DSN != "memorymap.db" {
		t.Errorf("DSN = %q, want memorymap.db", cfg.DSN)
	}
	if cfg.MaxOpenConns != 1 || cfg.MaxIdleConns != 1 {
		t.Errorf("pool = %d/%d, want 1/1 for sqlite", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != time.Hour || cfg.SlowQueryThreshold != 200*time.Millisecond {
		t.Errorf("unexpected durations: %+v", cfg)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
}

func TestConfigApplyDefaultsPostgres(t *testing.T) {
	cfg := Config{Driver: "PostgreSQL", DSN: "postgres://localhost/memorymap"}
	cfg.ApplyDefaults()

	if cfg.Driver != DriverPostgres {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverPostgres)
	}
	if cfg.MaxOpenConns != 25 || cfg.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d, want 25/5", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{"disabled skips validation", Config{Driver: "mysql"}, ""},
		{"valid sqlite", Config{Enabled: true}, ""},
		{"unknown driver", Config{Enabled: true, Driver: "mysql", DSN: "x"}, "database driver must be"},
		{"postgres without dsn", Config{Enabled: true, Driver: "postgres"}, "DSN is required"},
		{"idle above open", Config{Enabled: true, MaxOpenConns: 2, MaxIdleConns: 4}, "max_idle_conns"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.cfg.Enabled {
				tc.cfg.ApplyDefaults()
			}
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
