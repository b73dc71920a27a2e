package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lifemap/memorymap/storage"
)

type object struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// Memory is a storage.Storage backed by a map.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]*object

	// FailUploads makes every Upload return an error.
	FailUploads bool
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]*object)}
}

var _ storage.Storage = (*Memory)(nil)

func (m *Memory) Upload(_ context.Context, path string, r io.Reader, contentType string) error {
	if m.FailUploads {
		return errors.New("testutil: upload failed")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[path] = &object{data: data, contentType: contentType, modTime: time.Now()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Download(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	delete(m.objects, path)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Exists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[path]
	m.mu.RUnlock()
	return ok, nil
}

func (m *Memory) URL(_ context.Context, path string) (string, error) {
	return "/uploads/" + path, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := []storage.FileInfo{}
	for p, o := range m.objects {
		if strings.HasPrefix(p, prefix) {
			files = append(files, storage.FileInfo{Path: p, Size: int64(len(o.data)), LastModified: o.modTime, ContentType: o.contentType})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ContentType returns the content type recorded for path.
func (m *Memory) ContentType(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.objects[path]; ok {
		return o.contentType
	}
	return ""
}
