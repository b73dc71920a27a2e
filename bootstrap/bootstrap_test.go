package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lifemap/memorymap/component"
	"github.com/lifemap/memorymap/config"
	"github.com/lifemap/memorymap/logger"
)

type testConfig struct {
	config.ServiceConfig `mapstructure:",squash"`
	Port                 int
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Port == 0 {
		c.Port = 8000
	}
}

func (c *testConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.Port < 0 {
		return errors.New("port must be positive")
	}
	return nil
}

type stubComponent struct {
	name     string
	startErr error
	status   component.HealthStatus
	calls    *[]string
}

func (s *stubComponent) Name() string { return s.name }

func (s *stubComponent) Start(context.Context) error {
	*s.calls = append(*s.calls, "start:"+s.name)
	return s.startErr
}

func (s *stubComponent) Stop(context.Context) error {
	*s.calls = append(*s.calls, "stop:"+s.name)
	return nil
}

func (s *stubComponent) Health(context.Context) component.Health {
	return component.Health{Name: s.name, Status: s.status, Message: "checked"}
}

func (s *stubComponent) Routes() []component.Route {
	return []component.Route{{Method: "GET", Path: "/" + s.name, Handler: "stub"}}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "test-svc"}},
		WithLogger(logger.NewNop()), WithoutSummary(), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	return app
}

func TestNewAppAppliesDefaultsAndValidates(t *testing.T) {
	app := newTestApp(t)
	if app.Cfg.Port != 8000 {
		t.Errorf("port = %d, want default 8000", app.Cfg.Port)
	}
	if app.Name != "test-svc" || app.Cfg.Environment != "development" {
		t.Errorf("unexpected base config: %+v", app.Cfg.ServiceConfig)
	}

	if _, err := NewApp(&testConfig{}, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for missing name")
	}
	_, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "x"}, Port: -1}, WithLogger(logger.NewNop()))
	if err == nil || !strings.Contains(err.Error(), "port") {
		t.Errorf("expected port validation error, got %v", err)
	}
}

func TestStartSequenceAndShutdown(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	for _, n := range []string{"db", "http"} {
		if err := app.RegisterComponent(&stubComponent{name: n, status: component.StatusHealthy, calls: &calls}); err != nil {
			t.Fatal(err)
		}
	}
	hook := func(name string) Hook {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}
	app.OnStart(hook("onStart"))
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		calls = append(calls, "configure:"+a.Name)
		return nil
	})
	app.OnReady(hook("onReady"))
	app.OnStop(hook("onStop"))

	if err := app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := "start:db,start:http,onStart,configure:test-svc,onReady,onStop,stop:http,stop:db"
	if got := strings.Join(calls, ","); got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestStartFailureStopsStartedComponents(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	_ = app.RegisterComponent(&stubComponent{name: "db", status: component.StatusHealthy, calls: &calls})
	_ = app.RegisterComponent(&stubComponent{name: "cache", startErr: errors.New("refused"), calls: &calls})

	err := app.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected start error, got %v", err)
	}
	if got := strings.Join(calls, ","); got != "start:db,start:cache,stop:db" {
		t.Errorf("calls = %s", got)
	}
}

func TestConfigureFailureAborts(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	_ = app.RegisterComponent(&stubComponent{name: "db", status: component.StatusHealthy, calls: &calls})
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("wiring") })

	if err := app.Start(context.Background()); err == nil || !strings.Contains(err.Error(), "configure") {
		t.Fatalf("expected configure error, got %v", err)
	}
	if calls[len(calls)-1] != "stop:db" {
		t.Errorf("db not stopped: %v", calls)
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	_ = app.RegisterComponent(&stubComponent{name: "db", status: component.StatusHealthy, calls: &calls})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	_ = app.RegisterComponent(&stubComponent{name: "redis", status: component.StatusUnhealthy, calls: &calls})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "redis=unhealthy(checked)") {
		t.Errorf("got %v", err)
	}
}

func TestRunReturnsWhenContextCanceled(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	_ = app.RegisterComponent(&stubComponent{name: "db", status: component.StatusHealthy, calls: &calls})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	if got := strings.Join(calls, ","); got != "start:db,stop:db" {
		t.Errorf("calls = %s", got)
	}
}

func TestSummaryPrint(t *testing.T) {
	var calls []string
	reg := component.NewRegistry(nil)
	_ = reg.Register(&stubComponent{name: "http", status: component.StatusHealthy, calls: &calls})
	_ = reg.Register(&stubComponent{name: "redis", status: component.StatusDegraded, calls: &calls})

	var buf bytes.Buffer
	NewSummary("memorymap", "1.2.0", 1500*time.Millisecond).Print(&buf, reg)
	out := buf.String()

	for _, want := range []string{
		"memorymap 1.2.0 started in 1.50s",
		"Routes (2)",
		"GET     /http -> stub",
		"Health (degraded)",
		"redis degraded: checked",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestComponentRegisteredDuringConfigureStarts(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	_ = app.RegisterComponent(&stubComponent{name: "db", status: component.StatusHealthy, calls: &calls})
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		return a.RegisterComponent(&stubComponent{name: "http", status: component.StatusHealthy, calls: &calls})
	})

	if err := app.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(calls, ","); got != "start:db,start:http,stop:http,stop:db" {
		t.Errorf("calls = %s", got)
	}
}
