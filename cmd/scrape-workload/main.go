// Package main provides a scrape load generator: it hammers an exporter's
// /metrics endpoint at a fixed rate and records per-request latency, for
// sizing the scrape side under many routes.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type metrics struct {
	total   int64
	success int64
	failed  int64
	bytes   int64
	latency int64 // nanoseconds, summed
}

func main() {
	target := flag.String("target", "http://localhost:8200", "Target exporter")
	requests := flag.Int("requests", 1000, "Total scrape requests")
	rate := flag.Float64("rate", 10, "Requests per second")
	concurrency := flag.Int("concurrency", 4, "Concurrent scrapers")
	output := flag.String("output", "scrape-results.csv", "Output file")

	flag.Parse()

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Exporter Scrape Workload Generator\n")
	fmt.Printf("Target: %s\n", *target)
	fmt.Printf("Requests: %d\n", *requests)
	fmt.Printf("Rate: %.2f req/sec\n", *rate)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if *rate <= 0 {
		fmt.Printf("Error: --rate must be > 0 (got %.2f)\n", *rate)
		os.Exit(1)
	}
	if *concurrency < 1 {
		fmt.Printf("Error: --concurrency must be >= 1 (got %d)\n", *concurrency)
		os.Exit(1)
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Printf("Error: cannot create %s: %v\n", *output, err)
		os.Exit(1)
	}
	defer out.Close()
	fmt.Fprintln(out, "request,status,latency_ms,bytes")

	var (
		m       metrics
		outMu   sync.Mutex
		wg      sync.WaitGroup
		pacing  = time.Duration(float64(time.Second) / *rate)
		work    = make(chan int)
		client  = &http.Client{Timeout: 30 * time.Second}
		started = time.Now()
	)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range work {
				start := time.Now()
				resp, err := client.Get(fmt.Sprintf("%s/metrics", *target))
				latency := time.Since(start)

				atomic.AddInt64(&m.total, 1)
				atomic.AddInt64(&m.latency, int64(latency))

				status := 0
				size := 0
				if err != nil {
					atomic.AddInt64(&m.failed, 1)
				} else {
					status = resp.StatusCode
					body, _ := io.ReadAll(resp.Body)
					resp.Body.Close()
					size = len(body)
					atomic.AddInt64(&m.bytes, int64(size))
					if status == http.StatusOK {
						atomic.AddInt64(&m.success, 1)
					} else {
						atomic.AddInt64(&m.failed, 1)
					}
				}

				outMu.Lock()
				fmt.Fprintf(out, "%d,%d,%.2f,%d\n", n, status, latency.Seconds()*1000, size)
				outMu.Unlock()
			}
		}()
	}

	ticker := time.NewTicker(pacing)
	for n := 0; n < *requests; n++ {
		<-ticker.C
		work <- n
	}
	ticker.Stop()
	close(work)
	wg.Wait()

	elapsed := time.Since(started)
	avgMs := 0.0
	if m.total > 0 {
		avgMs = time.Duration(m.latency / m.total).Seconds() * 1000
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Done in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Total: %d | Success: %d | Failed: %d\n", m.total, m.success, m.failed)
	fmt.Printf("Avg latency: %.2f ms | Bytes: %d\n", avgMs, m.bytes)
	fmt.Printf("Results written to %s\n", *output)
}
