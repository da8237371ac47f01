// Package collector implements the refresh cycle: enumerate the
// gateway's routes, fan out the per-route statistic fetches across a
// bounded worker pool and write the results into the registry.
package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"apigw-exporter/internal/domain"
	"apigw-exporter/internal/gateway"
	"apigw-exporter/internal/logger"
	"apigw-exporter/internal/registry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultWorkers bounds concurrent backend fetches when no explicit
// worker count is configured.
const DefaultWorkers = 20

// rawStatistics are the five statistics fetched per route each cycle.
// error_percent is derived locally from Count/5xx/4xx, never fetched.
var rawStatistics = []statisticSpec{
	{Metric: domain.MetricCount, Stat: domain.StatisticSum, Family: domain.FamilyCount},
	{Metric: domain.MetricLatency, Stat: domain.StatisticAverage, Family: domain.FamilyLatency},
	{Metric: domain.MetricIntegrationLatency, Stat: domain.StatisticAverage, Family: domain.FamilyIntegrationLatency},
	{Metric: domain.Metric5xx, Stat: domain.StatisticSum, Family: domain.FamilyCount5xx},
	{Metric: domain.Metric4xx, Stat: domain.StatisticSum, Family: domain.FamilyCount4xx},
}

type statisticSpec struct {
	Metric domain.MetricName
	Stat   domain.Statistic
	Family domain.Family
}

// Collector executes refresh cycles. It is stateless between cycles apart
// from its side effects on the registry and the completion timestamp it
// records for health reporting.
//
// Gauges are labeled by route path only; the method is discarded. Two
// routes sharing a path with different methods overwrite each other's
// values. This mirrors the exporter's historical output and is a known
// limitation, kept so existing dashboards stay valid.
type Collector struct {
	lister  gateway.RouteLister
	source  gateway.StatSource
	reg     *registry.Registry
	workers int
	lgr     logger.Logger
	tracer  trace.Tracer

	lastCycle atomic.Int64 // unix nanos of last completed cycle
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the collector's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Collector) { c.lgr = l }
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// New builds a Collector writing into reg.
func New(lister gateway.RouteLister, source gateway.StatSource, reg *registry.Registry, opts ...Option) *Collector {
	c := &Collector{
		lister:  lister,
		source:  source,
		reg:     reg,
		workers: DefaultWorkers,
		lgr:     &logger.NopLogger{},
		tracer:  otel.Tracer("apigw-exporter/collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes exactly one refresh cycle. It returns only after every
// dispatched fetch has been attempted; nothing leaks into the next cycle.
// A route-listing failure aborts the cycle before any registry mutation
// and is returned to the caller to retry on the next interval. Individual
// fetch failures are swallowed here: the affected gauge keeps its
// previous value.
func (c *Collector) Run(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "refresh_cycle")
	defer span.End()

	routes, err := c.lister.ListRoutes(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("list routes: %w", err)
	}
	span.SetAttributes(attribute.Int("routes", len(routes)))

	jobs := make(chan job)
	var pending sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		go c.worker(ctx, jobs, &pending)
	}

	for _, route := range routes {
		tally := newRouteTally(route)
		for _, spec := range rawStatistics {
			pending.Add(1)
			jobs <- job{spec: spec, tally: tally}
		}
	}
	close(jobs)
	pending.Wait()

	c.lastCycle.Store(time.Now().UnixNano())
	c.lgr.Info("refresh cycle complete",
		logger.F("routes", len(routes)),
		logger.F("fetches", len(routes)*len(rawStatistics)))
	return nil
}

// LastRefresh reports when the last cycle completed, zero before the
// first one.
func (c *Collector) LastRefresh() time.Time {
	n := c.lastCycle.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

type job struct {
	spec  statisticSpec
	tally *routeTally
}

func (c *Collector) worker(ctx context.Context, jobs <-chan job, pending *sync.WaitGroup) {
	for j := range jobs {
		c.runJob(ctx, j)
		pending.Done()
	}
}

func (c *Collector) runJob(ctx context.Context, j job) {
	ctx, span := c.tracer.Start(ctx, "fetch_statistic", trace.WithAttributes(
		attribute.String("route", j.tally.route.String()),
		attribute.String("metric", string(j.spec.Metric)),
		attribute.String("statistic", string(j.spec.Stat)),
	))
	defer span.End()

	value, _, err := c.source.Fetch(ctx, j.tally.route, j.spec.Stat, j.spec.Metric)
	fetched := err == nil
	if err != nil {
		span.RecordError(err)
		c.lgr.Warn("statistic fetch failed, keeping previous value",
			logger.F("route", j.tally.route.String()),
			logger.F("metric", string(j.spec.Metric)),
			logger.F("err", err))
	} else {
		c.reg.Set(j.spec.Family, j.tally.route.Path, value)
	}

	if j.tally.completeOne(j.spec.Family, value, fetched) {
		c.finishRoute(j.tally)
	}
}

// finishRoute runs once per route, after the fifth raw fetch completed.
// Inputs that failed to fetch fall back to the registry's previous value
// (0 when never set), so the derived gauge tolerates partial failure.
func (c *Collector) finishRoute(t *routeTally) {
	count := c.inputValue(t, domain.FamilyCount)
	err5xx := c.inputValue(t, domain.FamilyCount5xx)
	err4xx := c.inputValue(t, domain.FamilyCount4xx)
	c.reg.Set(domain.FamilyErrorPercent, t.route.Path, ErrorPercent(count, err5xx, err4xx))
}

func (c *Collector) inputValue(t *routeTally, family domain.Family) float64 {
	if res, ok := t.result(family); ok && res.fetched {
		return res.value
	}
	if prev, ok := c.reg.Get(family, t.route.Path); ok {
		return prev
	}
	return 0
}

// ErrorPercent derives the error rate gauge. Defined as 0 when count is 0;
// that is the no-traffic case, not a sentinel.
func ErrorPercent(count, err5xx, err4xx float64) float64 {
	if count == 0 {
		return 0
	}
	return (err5xx + err4xx) * 100 / count
}

// routeTally joins the five raw fetches of one route so the derived gauge
// is computed exactly once, after all inputs completed (not necessarily
// succeeded).
type routeTally struct {
	route domain.Route

	mu        sync.Mutex
	remaining int
	results   map[domain.Family]fetchResult
}

type fetchResult struct {
	value   float64
	fetched bool
}

func newRouteTally(route domain.Route) *routeTally {
	return &routeTally{
		route:     route,
		remaining: len(rawStatistics),
		results:   make(map[domain.Family]fetchResult, len(rawStatistics)),
	}
}

// completeOne records one fetch outcome and reports whether it was the
// last one for this route.
func (t *routeTally) completeOne(family domain.Family, value float64, fetched bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results[family] = fetchResult{value: value, fetched: fetched}
	t.remaining--
	return t.remaining == 0
}

func (t *routeTally) result(family domain.Family) (fetchResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	res, ok := t.results[family]
	return res, ok
}
