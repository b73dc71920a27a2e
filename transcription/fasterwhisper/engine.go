// Package fasterwhisper runs faster-whisper in a long-lived Python worker.
//
// The worker is started on first use and keeps models loaded between
// requests. It handles one request at a time, so the engine serializes
// access; a transcription holds the worker until its segment sequence has
// been consumed.
package fasterwhisper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/process"
	"github.com/lifemap/memorymap/transcription"
)

// EngineName is reported in health and result info.
const EngineName = "faster-whisper"

//go:embed assets/worker.py
var workerScript []byte

// Config configures the worker.
type Config struct {
	// Python is the interpreter with faster_whisper installed.
	Python string `yaml:"python" mapstructure:"python"`
	// Script overrides the embedded worker script.
	Script       string `yaml:"script" mapstructure:"script"`
	DownloadRoot string `yaml:"download_root" mapstructure:"download_root"`
	// Threads is the cpu_threads value models are loaded with.
	Threads     int           `yaml:"threads" mapstructure:"threads"`
	StopTimeout time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout"`
	// Env holds extra KEY=value pairs for the worker.
	Env []string `yaml:"env" mapstructure:"env"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Python == "" {
		c.Python = "python3"
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = 10 * time.Second
	}
}

// Engine is a transcription.Engine backed by the worker process.
type Engine struct {
	cfg Config
	log *logger.Logger

	// mu serializes worker access; it is held across a transcription.
	mu         sync.Mutex
	session    atomic.Pointer[process.Session]
	scriptPath string

	// models holds the load request of every model callers hold; live is
	// the subset the current worker has loaded. Both are guarded by mu.
	models map[string]request
	live   map[string]bool
}

// New creates an engine. The worker starts lazily.
func New(cfg Config, log *logger.Logger) *Engine {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		log:    log.WithComponent("fasterwhisper"),
		models: map[string]request{},
		live:   map[string]bool{},
	}
}

func (e *Engine) Name() string { return EngineName }

// Ping checks that the worker runs and can import faster_whisper. A worker
// busy with another request is reported healthy without waiting for it.
func (e *Engine) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.mu.TryLock() {
		return nil
	}
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, e.kill)
	defer stop()
	msg, err := e.call(request{Op: "ping"})
	if err != nil {
		return err
	}
	return msg.err()
}

// Load asks the worker to load key.
func (e *Engine) Load(ctx context.Context, key transcription.ModelKey) (transcription.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	stop := context.AfterFunc(ctx, e.kill)
	defer stop()

	req := request{
		Op:           "load",
		Key:          key.String(),
		Model:        key.Model,
		ComputeType:  key.ComputeType,
		Device:       key.Device,
		DownloadRoot: e.cfg.DownloadRoot,
		Threads:      e.cfg.Threads,
	}
	if err := e.load(req); err != nil {
		return nil, err
	}
	e.models[req.Key] = req
	return &model{engine: e, key: key}, nil
}

// Close stops the worker and removes the extracted script.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if s := e.session.Swap(nil); s != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StopTimeout)
		err = s.Close(ctx)
		cancel()
	}
	if e.scriptPath != "" && e.cfg.Script == "" {
		_ = os.RemoveAll(filepath.Dir(e.scriptPath))
		e.scriptPath = ""
	}
	return err
}

type model struct {
	engine *Engine
	key    transcription.ModelKey
}

// Transcribe holds the worker until the returned sequence finishes.
func (m *model) Transcribe(ctx context.Context, audioPath string, opts transcription.DecodeOptions) (iter.Seq2[transcription.Segment, error], transcription.Info, error) {
	e := m.engine
	e.mu.Lock()
	stop := context.AfterFunc(ctx, e.kill)
	var once sync.Once
	release := func() {
		once.Do(func() {
			stop()
			e.mu.Unlock()
		})
	}

	var msg *message
	err := e.reload(m.key.String())
	if err == nil {
		msg, err = e.call(request{
			Op:       "transcribe",
			Key:      m.key.String(),
			Audio:    audioPath,
			BeamSize: opts.BeamSize,
			Threads:  opts.Threads,
			Language: opts.Language,
		})
	}
	if err == nil {
		err = msg.err()
	}
	if err == nil && msg.Type != "info" {
		err = fmt.Errorf("fasterwhisper: expected info, got %q", msg.Type)
	}
	if err != nil {
		release()
		return nil, transcription.Info{}, err
	}
	info := transcription.Info{Duration: msg.Duration, Language: msg.Language, LanguageProbability: msg.LanguageProbability}

	seq := func(yield func(transcription.Segment, error) bool) {
		defer release()
		for {
			msg, err := e.read()
			if err == nil {
				err = msg.err()
			}
			if err != nil {
				yield(transcription.Segment{}, err)
				return
			}
			switch msg.Type {
			case "segment":
				if !yield(transcription.Segment{Start: msg.Start, End: msg.End, Text: msg.Text}, nil) {
					e.drain()
					return
				}
			case "end":
				return
			default:
				yield(transcription.Segment{}, fmt.Errorf("fasterwhisper: unexpected message %q", msg.Type))
				return
			}
		}
	}
	return seq, info, nil
}

// Close unloads the model from the worker.
func (m *model) Close() error {
	e := m.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	key := m.key.String()
	delete(e.models, key)
	if !e.live[key] || e.session.Load() == nil {
		delete(e.live, key)
		return nil
	}
	delete(e.live, key)
	msg, err := e.call(request{Op: "unload", Key: key})
	if err != nil {
		return err
	}
	return msg.err()
}

type request struct {
	Op           string `json:"op"`
	Key          string `json:"key,omitempty"`
	Model        string `json:"model,omitempty"`
	ComputeType  string `json:"compute_type,omitempty"`
	Device       string `json:"device,omitempty"`
	DownloadRoot string `json:"download_root,omitempty"`
	Audio        string `json:"audio,omitempty"`
	BeamSize     int    `json:"beam_size,omitempty"`
	Threads      int    `json:"threads,omitempty"`
	Language     string `json:"language,omitempty"`
}

type message struct {
	Type                string  `json:"type"`
	Error               string  `json:"error"`
	Start               float64 `json:"start"`
	End                 float64 `json:"end"`
	Text                string  `json:"text"`
	Duration            float64 `json:"duration"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
}

func (m *message) err() error {
	if m.Type == "error" {
		return errors.New(m.Error)
	}
	return nil
}

// call sends req and reads the first reply. Callers hold e.mu.
func (e *Engine) call(req request) (*message, error) {
	if err := e.ensure(); err != nil {
		return nil, err
	}
	line, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := e.session.Load().Stdin().Write(append(line, '\n')); err != nil {
		return nil, e.workerError(err)
	}
	return e.read()
}

func (e *Engine) read() (*message, error) {
	line, err := e.session.Load().Stdout().ReadBytes('\n')
	if err != nil {
		return nil, e.workerError(err)
	}
	var msg message
	if err := json.Unmarshal(bytes.TrimSpace(line), &msg); err != nil {
		return nil, fmt.Errorf("fasterwhisper: malformed reply %q: %w", strings.TrimSpace(string(line)), err)
	}
	return &msg, nil
}

// load sends a load request and marks the model live. Callers hold e.mu.
func (e *Engine) load(req request) error {
	msg, err := e.call(req)
	if err != nil {
		return err
	}
	if err := msg.err(); err != nil {
		return err
	}
	e.live[req.Key] = true
	return nil
}

// reload loads key into the current worker again if it restarted since
// the model was first loaded. Callers hold e.mu.
func (e *Engine) reload(key string) error {
	if err := e.ensure(); err != nil {
		return err
	}
	if e.live[key] {
		return nil
	}
	req, ok := e.models[key]
	if !ok {
		return fmt.Errorf("fasterwhisper: model %s is closed", key)
	}
	e.log.Info("reloading model into restarted worker", logger.Fields(logger.FieldModel, req.Model))
	return e.load(req)
}

// drain discards the rest of an abandoned transcription.
func (e *Engine) drain() {
	for {
		msg, err := e.read()
		if err != nil || msg.Type == "end" || msg.Type == "error" {
			return
		}
	}
}

// ensure starts the worker if it is not running. Callers hold e.mu.
func (e *Engine) ensure() error {
	if s := e.session.Load(); s != nil {
		if exited, _ := s.Exited(); !exited {
			return nil
		}
		e.log.Warn("worker exited, restarting", logger.Fields("stderr", tail(s.Stderr())))
		e.session.Store(nil)
	}
	script, err := e.script()
	if err != nil {
		return err
	}
	s, err := process.Start(context.Background(), process.Command{
		Binary: e.cfg.Python,
		Args:   []string{script},
		Env:    e.cfg.Env,
	})
	if err != nil {
		return fmt.Errorf("fasterwhisper: start worker: %w", err)
	}
	e.session.Store(s)
	clear(e.live)
	e.log.Info("worker started", logger.Fields("python", e.cfg.Python))
	return nil
}

func (e *Engine) script() (string, error) {
	if e.cfg.Script != "" {
		return e.cfg.Script, nil
	}
	if e.scriptPath != "" {
		return e.scriptPath, nil
	}
	dir, err := os.MkdirTemp("", "memorymap-fw-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "worker.py")
	if err := os.WriteFile(path, workerScript, 0o644); err != nil {
		return "", fmt.Errorf("fasterwhisper: write worker script: %w", err)
	}
	e.scriptPath = path
	return path, nil
}

// kill stops the worker when a caller's context ends mid-call; the blocked
// read then fails and the next call starts a fresh worker, which reloads
// models on demand.
func (e *Engine) kill() {
	s := e.session.Load()
	if s == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = s.Close(ctx)
}

// workerError retires the session after an I/O failure so the next call
// starts a fresh worker.
func (e *Engine) workerError(err error) error {
	s := e.session.Swap(nil)
	if s == nil {
		return fmt.Errorf("fasterwhisper: worker failed: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StopTimeout)
	_ = s.Close(ctx)
	cancel()
	if stderr := tail(s.Stderr()); stderr != "" {
		return fmt.Errorf("fasterwhisper: worker failed: %w: %s", err, stderr)
	}
	return fmt.Errorf("fasterwhisper: worker failed: %w", err)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	const max = 2048
	if len(s) > max {
		return s[len(s)-max:]
	}
	return s
}
