package s3

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lifemap/memorymap/storage"
)

// fakeS3 serves path-style object requests from a map.
type fakeS3 struct {
	mu          sync.Mutex
	objects     map[string][]byte
	contentType map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.contentType[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = w.Write(data)
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFake(t *testing.T) (*Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, contentType: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStorage(context.Background(), &Config{
		Bucket:    "memories",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s, fake
}

func TestUploadDownloadDelete(t *testing.T) {
	s, fake := newFake(t)
	ctx := context.Background()

	// An unseekable reader exercises the buffering path.
	if err := s.Upload(ctx, "audio/a.webm", io.NopCloser(strings.NewReader("opus")), "audio/webm"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got := fake.contentType["/memories/audio/a.webm"]; got != "audio/webm" {
		t.Errorf("content type = %q", got)
	}

	data, err := storage.ReadAll(ctx, s, "audio/a.webm")
	if err != nil || string(data) != "opus" {
		t.Fatalf("ReadAll = %q, %v", data, err)
	}

	ok, err := s.Exists(ctx, "audio/a.webm")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := s.Delete(ctx, "audio/a.webm"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err = s.Exists(ctx, "audio/a.webm")
	if err != nil || ok {
		t.Fatalf("Exists after delete = %v, %v", ok, err)
	}
	if _, err := s.Download(ctx, "audio/a.webm"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestURL(t *testing.T) {
	s, _ := newFake(t)
	url, _ := s.URL(context.Background(), "photos/p.jpg")
	if !strings.HasSuffix(url, "/memories/photos/p.jpg") {
		t.Errorf("URL = %q", url)
	}

	s.publicURL = "https://cdn.example.com"
	url, _ = s.URL(context.Background(), "photos/p.jpg")
	if url != "https://cdn.example.com/photos/p.jpg" {
		t.Errorf("URL = %q", url)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "bucket is required") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}
