// Package main provides a mock of the two AWS APIs the exporter consumes
// (apigatewayv2 GetRoutes and CloudWatch GetMetricStatistics), allowing
// the exporter to run without AWS access. Point AWS_ENDPOINT_URL at this
// server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

func main() {
	port := flag.Int("port", 9900, "Port to listen on")
	routeKeys := flag.String("routes", "GET /a,POST /b", "Comma-separated route keys to serve")
	count := flag.Float64("count", 100, "Value for the Count metric")
	latency := flag.Float64("latency", 20, "Value for the Latency metric")
	intLatency := flag.Float64("integration-latency", 5, "Value for the IntegrationLatency metric")
	err5xx := flag.Float64("err5xx", 1, "Value for the 5xx metric")
	err4xx := flag.Float64("err4xx", 1, "Value for the 4xx metric")
	flag.Parse()

	values := map[string]float64{
		"Count":              *count,
		"Latency":            *latency,
		"IntegrationLatency": *intLatency,
		"5xx":                *err5xx,
		"4xx":                *err4xx,
	}

	mux := http.NewServeMux()

	// apigatewayv2: GET /v2/apis/{apiId}/routes
	mux.HandleFunc("/v2/apis/", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/routes") {
			http.NotFound(w, r)
			return
		}

		type routeItem struct {
			RouteID  string `json:"routeId"`
			RouteKey string `json:"routeKey"`
		}
		var items []routeItem
		for i, key := range strings.Split(*routeKeys, ",") {
			items = append(items, routeItem{
				RouteID:  fmt.Sprintf("route%d", i),
				RouteKey: strings.TrimSpace(key),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
	})

	// CloudWatch query protocol: POST / with Action=GetMetricStatistics
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.FormValue("Action") != "GetMetricStatistics" {
			http.Error(w, "unsupported action", http.StatusBadRequest)
			return
		}

		metric := r.FormValue("MetricName")
		statistic := r.FormValue("Statistics.member.1")
		value := values[metric]

		field := "Sum"
		if statistic == "Average" {
			field = "Average"
		}

		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprintf(w, `<GetMetricStatisticsResponse xmlns="http://monitoring.amazonaws.com/doc/2010-08-01/">
  <GetMetricStatisticsResult>
    <Label>%s</Label>
    <Datapoints>
      <member>
        <Timestamp>%s</Timestamp>
        <%s>%g</%s>
        <Unit>Count</Unit>
      </member>
    </Datapoints>
  </GetMetricStatisticsResult>
  <ResponseMetadata>
    <RequestId>00000000-0000-0000-0000-000000000000</RequestId>
  </ResponseMetadata>
</GetMetricStatisticsResponse>`, metric, time.Now().UTC().Format(time.RFC3339), field, value, field)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock gateway backend starting on %s (routes: %s)", addr, *routeKeys)
	log.Fatal(http.ListenAndServe(addr, mux))
}
