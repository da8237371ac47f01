// Package server exposes the scrape endpoint and a couple of JSON
// debugging endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"apigw-exporter/internal/collector"
	"apigw-exporter/internal/gateway"
	"apigw-exporter/internal/logger"
	"apigw-exporter/internal/registry"
)

// ScrapeServer serves /metrics for Prometheus plus /health and /routes.
// It reads the registry at arbitrary times, independent of cycle
// boundaries.
type ScrapeServer struct {
	reg     *registry.Registry
	coll    *collector.Collector
	lister  gateway.RouteLister
	port    int
	lgr     logger.Logger
	server  *http.Server
	started time.Time
}

// NewScrapeServer builds the HTTP server for the given port.
func NewScrapeServer(reg *registry.Registry, coll *collector.Collector, lister gateway.RouteLister, port int, lgr logger.Logger) *ScrapeServer {
	return &ScrapeServer{
		reg:    reg,
		coll:   coll,
		lister: lister,
		port:   port,
		lgr:    lgr,
	}
}

// Start launches the HTTP server and blocks until it stops. A bind
// failure (port already in use) is returned immediately; the caller
// treats it as fatal.
func (s *ScrapeServer) Start() error {
	mux := http.NewServeMux()

	// Prometheus scrape endpoint
	mux.Handle("/metrics", s.reg.Handler())

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Debug endpoint (current gateway routes)
	mux.HandleFunc("/routes", s.handleRoutes)

	addr := fmt.Sprintf(":%d", s.port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.started = time.Now()

	s.lgr.Info("scrape server starting", logger.F("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *ScrapeServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleHealth reports process liveness and the age of the gauge state.
// The exporter is healthy as soon as it serves; gauges appear after the
// first completed cycle.
func (s *ScrapeServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	last := s.coll.LastRefresh()

	status := "READY"
	if last.IsZero() {
		status = "WAITING_FIRST_CYCLE"
	}

	response := map[string]interface{}{
		"healthy":        true,
		"status":         status,
		"gauges":         s.reg.Len(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}
	if !last.IsZero() {
		response["last_refresh"] = last.UTC().Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleRoutes lists the gateway's current routes as JSON.
func (s *ScrapeServer) handleRoutes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	routes, err := s.lister.ListRoutes(ctx)
	if err != nil {
		s.lgr.Error("route listing failed", logger.F("err", err))
		http.Error(w, fmt.Sprintf("route listing failed: %v", err), http.StatusBadGateway)
		return
	}

	items := make([]map[string]string, 0, len(routes))
	for _, route := range routes {
		items = append(items, map[string]string{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count":  len(items),
		"routes": items,
	})
}
