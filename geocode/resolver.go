package geocode

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lifemap/memorymap/logger"
	"github.com/lifemap/memorymap/observability"
	"github.com/lifemap/memorymap/redis"
)

const countryCode = "tw"

// Resolver runs the tiered lookup.
type Resolver struct {
	gazetteer *Gazetteer
	overrides map[string]Place
	searcher  Searcher
	cache     *redis.TypedStore[Place]
	log       *logger.Logger
	metrics   *observability.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache memoizes remote resolutions.
func WithCache(store *redis.TypedStore[Place]) Option { return func(r *Resolver) { r.cache = store } }

func WithLogger(l *logger.Logger) Option { return func(r *Resolver) { r.log = l } }

func WithMetrics(m *observability.Metrics) Option { return func(r *Resolver) { r.metrics = m } }

// WithOverrides replaces the override table.
func WithOverrides(o map[string]Place) Option { return func(r *Resolver) { r.overrides = o } }

func WithGazetteer(g *Gazetteer) Option { return func(r *Resolver) { r.gazetteer = g } }

// NewResolver creates a resolver. A nil searcher limits resolution to the
// override table and cache.
func NewResolver(searcher Searcher, opts ...Option) *Resolver {
	r := &Resolver{
		gazetteer: DefaultGazetteer(),
		overrides: DefaultOverrides(),
		searcher:  searcher,
		log:       logger.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.WithComponent("geocode")
	return r
}

// Detect returns the first known place name in text.
func (r *Resolver) Detect(text string) (string, bool) { return r.gazetteer.Detect(text) }

// Resolve returns the place for name, or false when nothing was found or
// every lookup failed. The two cases are deliberately indistinguishable here.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Place, bool) {
	res := r.Lookup(ctx, name)
	if res.Outcome != Found {
		return nil, false
	}
	return &res.Place, true
}

// ResolveText detects a place in text and resolves it.
func (r *Resolver) ResolveText(ctx context.Context, text string) (*Place, bool) {
	name, ok := r.Detect(text)
	if !ok {
		return nil, false
	}
	return r.Resolve(ctx, name)
}

type tier struct {
	name  string
	query Query
}

func (r *Resolver) tiers(name string) []tier {
	var ts []tier
	if r.gazetteer.HintsRegion(name) {
		ts = append(ts, tier{TierRegional, Query{Text: name, ViewBox: TaiwanViewBox, Bounded: true}})
	}
	return append(ts,
		tier{TierCountry, Query{Text: name, CountryCodes: countryCode}},
		tier{TierQualified, Query{Text: name + " 台灣"}},
		tier{TierGlobal, Query{Text: name}},
	)
}

// Lookup walks the tiers and reports the explicit outcome. It returns
// TransportError only when every remote tier failed in transport.
func (r *Resolver) Lookup(ctx context.Context, name string) (res Result) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Outcome: NotFound}
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanGeocode, attribute.String("geocode.name", name))
	defer func() {
		span.SetAttributes(attribute.String("geocode.outcome", res.Outcome.String()))
		span.End()
	}()

	if p, ok := r.overrides[name]; ok {
		p.Tier = TierOverride
		r.metrics.RecordGeocode(ctx, TierOverride, Found.String())
		return found(p)
	}
	if p := r.cached(ctx, name); p != nil {
		p.Tier = TierCache
		r.metrics.RecordGeocode(ctx, TierCache, Found.String())
		return found(*p)
	}
	if r.searcher == nil {
		return Result{Outcome: NotFound}
	}

	var lastErr error
	sawNotFound := false
	for _, t := range r.tiers(name) {
		if ctx.Err() != nil {
			return transportError(ctx.Err())
		}
		out := r.search(ctx, t)
		r.metrics.RecordGeocode(ctx, t.name, out.Outcome.String())
		switch out.Outcome {
		case Found:
			out.Place.Name, out.Place.Tier = name, t.name
			r.store(ctx, name, out.Place)
			r.log.Debug("place resolved", logger.Fields("name", name, "tier", t.name, "lat", out.Place.Lat, "lng", out.Place.Lng))
			return out
		case TransportError:
			lastErr = out.Err
			r.log.Debug("geocode tier failed", logger.Fields("name", name, "tier", t.name, logger.FieldError, out.Err.Error()))
		default:
			sawNotFound = true
		}
	}
	if !sawNotFound && lastErr != nil {
		return transportError(lastErr)
	}
	return Result{Outcome: NotFound}
}

func (r *Resolver) search(ctx context.Context, t tier) Result {
	ctx, span := observability.StartSpan(ctx, observability.SpanGeocodeHit, attribute.String("geocode.tier", t.name))
	out := r.searcher.Search(ctx, t.query)
	observability.EndSpan(span, out.Err)
	return out
}

func (r *Resolver) cached(ctx context.Context, name string) *Place {
	if r.cache == nil {
		return nil
	}
	p, err := r.cache.Load(ctx, name)
	if err != nil {
		r.log.Warn("geocode cache read failed", logger.Fields("name", name, logger.FieldError, err.Error()))
		return nil
	}
	return p
}

func (r *Resolver) store(ctx context.Context, name string, p Place) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Save(ctx, name, &p); err != nil {
		r.log.Warn("geocode cache write failed", logger.Fields("name", name, logger.FieldError, err.Error()))
	}
}
