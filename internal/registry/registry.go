// Package registry holds the exporter's live gauge state: one value per
// (metric family, route path), last write wins, no history.
package registry

import (
	"net/http"
	"sync"

	"apigw-exporter/internal/domain"
	"apigw-exporter/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const routeLabel = "route"

// Registry is the single mutable structure shared between the collector
// (writer) and the scrape handler (reader). Writes go to a prometheus
// GaugeVec, which exposes a label set only after its first Set, and to a
// shadow map so the collector can read back the previous value of a gauge
// when a fetch fails mid-cycle.
type Registry struct {
	gauges map[domain.Family]*prometheus.GaugeVec
	prom   *prometheus.Registry

	mu     sync.RWMutex
	values map[key]float64

	lgr logger.Logger
}

type key struct {
	family domain.Family
	route  string
}

// New builds a registry with the six gauge families the exporter
// publishes, registered on a private prometheus registry.
func New(lgr logger.Logger) *Registry {
	help := map[domain.Family]string{
		domain.FamilyCount:              "Request count",
		domain.FamilyLatency:            "Api gateway latency",
		domain.FamilyIntegrationLatency: "Api gateway integration latency",
		domain.FamilyCount5xx:           "Api gateway 5xx errors",
		domain.FamilyCount4xx:           "Api gateway 4xx errors",
		domain.FamilyErrorPercent:       "Api gateway error percent",
	}

	r := &Registry{
		gauges: make(map[domain.Family]*prometheus.GaugeVec, len(help)),
		prom:   prometheus.NewRegistry(),
		values: make(map[key]float64),
		lgr:    lgr,
	}
	for _, family := range domain.Families() {
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: string(family),
			Help: help[family],
		}, []string{routeLabel})
		r.prom.MustRegister(vec)
		r.gauges[family] = vec
	}
	return r
}

// Set records the current value of one gauge. Safe for concurrent use;
// concurrent writers on different keys do not serialize on the gauge
// itself, only briefly on the shadow map.
func (r *Registry) Set(family domain.Family, route string, value float64) {
	vec, ok := r.gauges[family]
	if !ok {
		r.lgr.Error("set on unknown gauge family", logger.F("family", string(family)))
		return
	}
	vec.WithLabelValues(route).Set(value)

	r.mu.Lock()
	r.values[key{family: family, route: route}] = value
	r.mu.Unlock()
}

// Get returns the last value written for (family, route) and whether one
// was ever written. Used for the stale-tolerant derived-value join.
func (r *Registry) Get(family domain.Family, route string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key{family: family, route: route}]
	return v, ok
}

// Len reports the number of gauge values currently held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.values)
}

// Handler serves the registry contents in the Prometheus text exposition
// format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Gatherer exposes the underlying prometheus registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}
