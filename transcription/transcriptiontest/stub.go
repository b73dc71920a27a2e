// Package transcriptiontest provides a scripted engine, WAV fixtures and a
// stand-in conversion tool for tests of code built on the transcription
// pipeline.
package transcriptiontest

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lifemap/memorymap/transcription"
)

// Engine is a scripted transcription.Engine that counts loads and closes.
type Engine struct {
	Segments []transcription.Segment
	Info     transcription.Info
	// LoadErr fails every Load.
	LoadErr error
	// SegmentErr is yielded after the scripted segments.
	SegmentErr error
	PingErr    error

	loads  atomic.Int64
	closes atomic.Int64

	mu       sync.Mutex
	lastOpts transcription.DecodeOptions
	lastKey  transcription.ModelKey
}

func (e *Engine) Name() string { return "stub" }

func (e *Engine) Ping(context.Context) error { return e.PingErr }

func (e *Engine) Load(_ context.Context, key transcription.ModelKey) (transcription.Model, error) {
	if e.LoadErr != nil {
		return nil, e.LoadErr
	}
	e.loads.Add(1)
	return &model{engine: e, key: key}, nil
}

// Loads returns the number of successful loads.
func (e *Engine) Loads() int { return int(e.loads.Load()) }

// Closes returns the number of closed models.
func (e *Engine) Closes() int { return int(e.closes.Load()) }

// LastOptions returns the decode options and key of the latest run.
func (e *Engine) LastOptions() (transcription.DecodeOptions, transcription.ModelKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastOpts, e.lastKey
}

type model struct {
	engine *Engine
	key    transcription.ModelKey
}

func (m *model) Transcribe(_ context.Context, _ string, opts transcription.DecodeOptions) (iter.Seq2[transcription.Segment, error], transcription.Info, error) {
	m.engine.mu.Lock()
	m.engine.lastOpts, m.engine.lastKey = opts, m.key
	m.engine.mu.Unlock()

	segs, segErr := m.engine.Segments, m.engine.SegmentErr
	return func(yield func(transcription.Segment, error) bool) {
		for _, s := range segs {
			if !yield(s, nil) {
				return
			}
		}
		if segErr != nil {
			yield(transcription.Segment{}, segErr)
		}
	}, m.engine.Info, nil
}

func (m *model) Close() error {
	m.engine.closes.Add(1)
	return nil
}

// SilentWAV writes a canonical WAV of the given length filled with silence.
func SilentWAV(t testing.TB, seconds float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silence.wav")
	samples := make([]int, int(seconds*transcription.CanonicalSampleRate))
	if err := transcription.WritePCM16(path, transcription.CanonicalSampleRate, samples); err != nil {
		t.Fatalf("write silent wav: %v", err)
	}
	return path
}

// fakeTool copies the -i input to the final argument, standing in for
// ffmpeg when the input is already canonical.
const fakeTool = `#!/bin/sh
prev=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  out="$a"
done
if [ -n "$FAIL_CONVERSION" ]; then echo "invalid data found when processing input" >&2; exit 1; fi
cp "$in" "$out"
`

// FakeFFmpeg installs the stand-in tool and returns its path.
func FakeFFmpeg(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(fakeTool), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}
