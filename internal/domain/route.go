package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRouteKey reports a gateway route key that does not follow
// the "<METHOD> <PATH>" form. One bad key never aborts route listing;
// callers skip the entry and continue.
var ErrMalformedRouteKey = errors.New("malformed route key")

// Route identifies one (HTTP method, path) pair exposed by the monitored
// gateway. Routes are produced fresh on every refresh cycle and are never
// persisted across cycles.
type Route struct {
	Method string
	Path   string
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// ParseRouteKey splits an API Gateway route key of the form
// "<METHOD> <PATH>" into a Route. Keys without a space separator
// (including the literal "$default" key) return ErrMalformedRouteKey.
func ParseRouteKey(key string) (Route, error) {
	method, path, ok := strings.Cut(key, " ")
	if !ok || method == "" || path == "" {
		return Route{}, fmt.Errorf("%w: %q", ErrMalformedRouteKey, key)
	}
	return Route{Method: method, Path: path}, nil
}

// Statistic selects the CloudWatch aggregation applied to a metric over
// the query window.
type Statistic string

const (
	StatisticSum     Statistic = "Sum"
	StatisticAverage Statistic = "Average"
)

// MetricName is a CloudWatch metric name in the AWS/ApiGateway namespace.
type MetricName string

const (
	MetricCount              MetricName = "Count"
	MetricLatency            MetricName = "Latency"
	MetricIntegrationLatency MetricName = "IntegrationLatency"
	Metric5xx                MetricName = "5xx"
	Metric4xx                MetricName = "4xx"
)

// Family names the exposed gauge families. The exact spellings, including
// the mixed-case latency families, are kept for compatibility with
// dashboards built against the exporter's existing output.
type Family string

const (
	FamilyCount              Family = "count"
	FamilyLatency            Family = "Latency"
	FamilyIntegrationLatency Family = "IntegrationLatency"
	FamilyCount5xx           Family = "count_5xx"
	FamilyCount4xx           Family = "count_4xx"
	FamilyErrorPercent       Family = "error_percent"
)

// Families lists every gauge family the exporter publishes.
func Families() []Family {
	return []Family{
		FamilyCount,
		FamilyLatency,
		FamilyIntegrationLatency,
		FamilyCount5xx,
		FamilyCount4xx,
		FamilyErrorPercent,
	}
}
