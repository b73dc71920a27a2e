package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lifemap/memorymap/component"
	apperrors "github.com/lifemap/memorymap/errors"
	"github.com/lifemap/memorymap/server"
)

func newServer(t *testing.T, cfg server.Config) *server.Server {
	t.Helper()
	srv := server.New(cfg, nil)
	srv.ApplyMiddleware(nil)
	return srv
}

func serve(srv *server.Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not an error envelope: %v (%s)", err, rr.Body.String())
	}
	return string(body.Error.Code)
}

func TestRespondWithError(t *testing.T) {
	srv := newServer(t, server.Config{})
	srv.GinEngine().GET("/app", func(c *gin.Context) {
		server.RespondWithError(c, apperrors.NotFound("memory", "42"))
	})
	srv.GinEngine().GET("/plain", func(c *gin.Context) {
		server.RespondWithError(c, errors.New("boom"))
	})
	srv.GinEngine().GET("/large", func(c *gin.Context) {
		server.RespondWithError(c, fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 10}))
	})

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/app", http.StatusNotFound, "NOT_FOUND"},
		{"/plain", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"/large", http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"/nope", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := serve(srv, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			if got := errorCode(t, rr); got != tt.code {
				t.Fatalf("code = %s, want %s", got, tt.code)
			}
		})
	}
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/plain", nil))
	if strings.Contains(rr.Body.String(), "boom") {
		t.Fatal("internal error cause leaked to the client")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newServer(t, server.Config{})
	srv.GinEngine().GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := serve(srv, httptest.NewRequest(http.MethodPost, "/only-get", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rr.Code)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	srv := newServer(t, server.Config{})
	srv.GinEngine().GET("/panic", func(*gin.Context) { panic("kaboom") })

	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if got := errorCode(t, rr); got != "INTERNAL_ERROR" {
		t.Fatalf("code = %s", got)
	}
}

func TestSystemEndpoints(t *testing.T) {
	srv := newServer(t, server.Config{})
	srv.RegisterSystemEndpoints(server.SystemEndpoints{
		ServiceName: "memorymap",
		Version:     "test",
		Checker: func(context.Context) []component.Health {
			return []component.Health{{Name: "database", Status: component.StatusHealthy}}
		},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# HELP up\n")
		}),
	})

	for _, path := range []string{"/health", "/api/health", "/alive", "/ready", "/version", "/metrics"} {
		rr := serve(srv, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rr.Code)
		}
	}
	rr := serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.HasPrefix(rr.Body.String(), "# HELP") {
		t.Fatalf("metrics body = %q", rr.Body.String())
	}
}

func TestComponentLifecycle(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	srv := newServer(t, server.Config{Host: "127.0.0.1", Port: port})
	srv.RegisterSystemEndpoints(server.SystemEndpoints{ServiceName: "memorymap"})
	comp := server.NewComponent(srv)

	if h := comp.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Fatalf("health before start = %s", h.Status)
	}
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = comp.Stop(context.Background()) })

	if h := comp.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Fatalf("health after start = %s", h.Status)
	}
	resp, err := http.Get("http://" + srv.Addr() + "/alive")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	routes := comp.Routes()
	if len(routes) == 0 {
		t.Fatal("no routes reported")
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg server.Config
	cfg.ApplyDefaults()
	if cfg.Port != 8000 || cfg.MaxBodySize != "100MB" || cfg.WriteTimeout != 600 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected port error")
	}
}
