package transcription

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/observability"
)

// ModelCache owns at most one loaded model. A request for a different key
// retires the current model and loads the new one; concurrent requests for
// the same key share a single load. Models are reference counted so a key
// switch never closes a model that an in-flight inference still uses.
type ModelCache struct {
	engine  Engine
	log     *logger.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	current *entry
	group   singleflight.Group

	loads atomic.Int64
	hits  atomic.Int64
}

type entry struct {
	key     ModelKey
	model   Model
	refs    int
	retired bool
	closed  bool
}

// CacheStats is a snapshot of cache activity.
type CacheStats struct {
	Engine string    `json:"engine"`
	Loads  int64     `json:"loads"`
	Hits   int64     `json:"hits"`
	Key    *ModelKey `json:"key,omitempty"`
}

// NewModelCache creates an empty cache over engine.
func NewModelCache(engine Engine, log *logger.Logger, metrics *observability.Metrics) *ModelCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &ModelCache{engine: engine, log: log.WithComponent("model_cache"), metrics: metrics}
}

// Lease is a reference to a cached model. Release must be called once the
// model is no longer used.
type Lease struct {
	cache *ModelCache
	e     *entry
	once  sync.Once
}

// Model returns the leased model.
func (l *Lease) Model() Model { return l.e.model }

// Key returns the key the model was loaded with.
func (l *Lease) Key() ModelKey { return l.e.key }

// Release drops the reference, closing the model if it was retired.
func (l *Lease) Release() {
	l.once.Do(func() { l.cache.release(l.e) })
}

// Acquire returns a lease on the model for key, loading it if needed.
// A failed load returns *ModelLoadError and leaves the cache empty.
func (c *ModelCache) Acquire(ctx context.Context, key ModelKey) (*Lease, error) {
	key = key.Normalize()
	for {
		if l := c.tryLease(key); l != nil {
			c.hits.Add(1)
			c.metrics.RecordModelCache(ctx, "hit")
			return l, nil
		}

		v, err, _ := c.group.Do(key.String(), func() (any, error) {
			return c.load(context.WithoutCancel(ctx), key)
		})
		if err != nil {
			c.metrics.RecordModelCache(ctx, "error")
			return nil, err
		}
		e := v.(*entry)

		c.mu.Lock()
		if !e.closed {
			e.refs++
			c.mu.Unlock()
			return &Lease{cache: c, e: e}, nil
		}
		// Replaced and closed before this caller could take a reference.
		c.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// Stats reports loads, hits and the current key.
func (c *ModelCache) Stats() CacheStats {
	s := CacheStats{Engine: c.engine.Name(), Loads: c.loads.Load(), Hits: c.hits.Load()}
	c.mu.Lock()
	if c.current != nil {
		k := c.current.key
		s.Key = &k
	}
	c.mu.Unlock()
	return s
}

// Close retires the current model; it is closed once its last lease is released.
func (c *ModelCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retireLocked()
}

func (c *ModelCache) tryLease(key ModelKey) *Lease {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.key == key {
		c.current.refs++
		return &Lease{cache: c, e: c.current}
	}
	return nil
}

func (c *ModelCache) load(ctx context.Context, key ModelKey) (*entry, error) {
	c.mu.Lock()
	if c.current != nil && c.current.key == key {
		e := c.current
		c.mu.Unlock()
		return e, nil
	}
	if err := c.retireLocked(); err != nil {
		c.log.Warn("closing previous model failed", logger.Fields(logger.FieldError, err.Error()))
	}
	c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, observability.SpanModelLoad)
	c.log.Info("loading model", logger.Fields(logger.FieldModel, key.Model, "compute_type", key.ComputeType, "device", key.Device))
	m, err := c.engine.Load(ctx, key)
	if err != nil {
		loadErr := &ModelLoadError{Key: key, Err: err}
		observability.EndSpan(span, loadErr)
		c.log.Error("model load failed", logger.Fields(logger.FieldModel, key.Model, logger.FieldError, err.Error()))
		return nil, loadErr
	}
	observability.EndSpan(span, nil)
	c.loads.Add(1)
	c.metrics.RecordModelCache(ctx, "load")

	e := &entry{key: key, model: m}
	c.mu.Lock()
	if err := c.retireLocked(); err != nil {
		c.log.Warn("closing previous model failed", logger.Fields(logger.FieldError, err.Error()))
	}
	c.current = e
	c.mu.Unlock()
	return e, nil
}

// retireLocked detaches the current model, closing it now if unused.
func (c *ModelCache) retireLocked() error {
	e := c.current
	if e == nil {
		return nil
	}
	c.current = nil
	e.retired = true
	if e.refs == 0 {
		e.closed = true
		return e.model.Close()
	}
	return nil
}

func (c *ModelCache) release(e *entry) {
	c.mu.Lock()
	e.refs--
	var closeNow bool
	if e.retired && e.refs == 0 && !e.closed {
		e.closed = true
		closeNow = true
	}
	c.mu.Unlock()
	if closeNow {
		if err := e.model.Close(); err != nil {
			c.log.Warn("closing retired model failed", logger.Fields(logger.FieldModel, e.key.Model, logger.FieldError, err.Error()))
		}
	}
}
