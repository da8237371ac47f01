package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"apigw-exporter/internal/collector"
	"apigw-exporter/internal/domain"
	"apigw-exporter/internal/logger"
	"apigw-exporter/internal/registry"
)

type stubLister struct {
	routes []domain.Route
	err    error
}

func (s *stubLister) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	return s.routes, s.err
}

type stubSource struct{}

func (stubSource) Fetch(ctx context.Context, route domain.Route, stat domain.Statistic, metric domain.MetricName) (float64, bool, error) {
	return 0, false, nil
}

func newTestServer(lister *stubLister) (*ScrapeServer, *registry.Registry, *collector.Collector) {
	reg := registry.New(&logger.NopLogger{})
	coll := collector.New(lister, stubSource{}, reg)
	s := NewScrapeServer(reg, coll, lister, 0, &logger.NopLogger{})
	s.started = time.Now()
	return s, reg, coll
}

func TestMetricsEndpoint(t *testing.T) {
	s, reg, _ := newTestServer(&stubLister{})
	reg.Set(domain.FamilyCount, "/a", 100)
	reg.Set(domain.FamilyErrorPercent, "/a", 2)

	rec := httptest.NewRecorder()
	s.reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `count{route="/a"} 100`) {
		t.Errorf("exposition missing count series:\n%s", body)
	}
	if !strings.Contains(body, `error_percent{route="/a"} 2`) {
		t.Errorf("exposition missing error_percent series:\n%s", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, reg, coll := newTestServer(&stubLister{})

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var health map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("bad health JSON: %v", err)
	}
	if health["status"] != "WAITING_FIRST_CYCLE" {
		t.Errorf("status = %v before the first cycle", health["status"])
	}

	if err := coll.Run(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	reg.Set(domain.FamilyCount, "/a", 1)

	rec = httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("bad health JSON: %v", err)
	}
	if health["status"] != "READY" {
		t.Errorf("status = %v after a completed cycle", health["status"])
	}
	if _, ok := health["last_refresh"]; !ok {
		t.Error("health response missing last_refresh")
	}
}

func TestRoutesEndpoint(t *testing.T) {
	s, _, _ := newTestServer(&stubLister{routes: []domain.Route{
		{Method: "GET", Path: "/a"},
		{Method: "POST", Path: "/b"},
	}})

	rec := httptest.NewRecorder()
	s.handleRoutes(rec, httptest.NewRequest(http.MethodGet, "/routes", nil))

	var resp struct {
		Count  int                 `json:"count"`
		Routes []map[string]string `json:"routes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad routes JSON: %v", err)
	}
	if resp.Count != 2 || len(resp.Routes) != 2 {
		t.Fatalf("got %d routes, expected 2", resp.Count)
	}
	if resp.Routes[0]["method"] != "GET" || resp.Routes[0]["path"] != "/a" {
		t.Errorf("routes[0] = %v", resp.Routes[0])
	}
}

func TestRoutesEndpointListerFailure(t *testing.T) {
	s, _, _ := newTestServer(&stubLister{err: errors.New("throttled")})

	rec := httptest.NewRecorder()
	s.handleRoutes(rec, httptest.NewRequest(http.MethodGet, "/routes", nil))
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, expected 502", rec.Code)
	}
}

func TestStartFailsWhenPortTaken(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()
	port := lis.Addr().(*net.TCPAddr).Port

	s, _, _ := newTestServer(&stubLister{})
	s.port = port

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("Start returned nil on an occupied port")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not fail on an occupied port")
	}
}
