// Package gateway talks to the monitored API gateway's control plane and
// its monitoring backend. The exported interfaces are the seams the
// collector is tested through.
package gateway

import (
	"context"
	"errors"

	"apigw-exporter/internal/domain"
)

// ErrSourceUnavailable marks a statistics fetch that failed at the
// backend (network, auth, permission). Absence of datapoints is not an
// error; callers distinguish the two via the ok return of Fetch.
var ErrSourceUnavailable = errors.New("statistics backend unavailable")

// StatSource fetches one aggregated statistic of one route over the
// trailing 60 second window ending at call time. Implementations must be
// safe for concurrent use; each call is independent.
type StatSource interface {
	// Fetch returns the statistic value and ok=true when the backend had
	// a datapoint for the window. ok=false with a nil error means no
	// recent traffic and the value defaults to 0.
	Fetch(ctx context.Context, route domain.Route, stat domain.Statistic, metric domain.MetricName) (value float64, ok bool, err error)
}

// RouteLister enumerates the gateway's current routes.
type RouteLister interface {
	ListRoutes(ctx context.Context) ([]domain.Route, error)
}
