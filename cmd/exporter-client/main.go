package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/peterh/liner"
)

func main() {
	// CLI flags
	addr := flag.String("addr", "http://localhost:8200", "Address of the exporter")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout (e.g., 30s)")
	flag.Parse()

	fmt.Printf("API Gateway exporter interactive client. Connected to %s\n", *addr)
	fmt.Println("Available commands: metrics/health/routes/use/help/exit")
	fmt.Println("")

	// Setup liner shell
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	client := &http.Client{
		Timeout: *timeout,
	}
	currentAddr := *addr

	for {
		input, err := line.Prompt(fmt.Sprintf("exporter[%s]> ", currentAddr))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println("Aborted")
				continue
			}
			break
		}
		line.AppendHistory(input)

		args := strings.Fields(strings.TrimSpace(input))
		if len(args) == 0 {
			continue
		}
		cmd := args[0]

		switch cmd {

		case "metrics", "scrape":
			resp, err := client.Get(fmt.Sprintf("%s/metrics", currentAddr))
			if err != nil {
				fmt.Printf("Scrape failed: %v\n", err)
				continue
			}

			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				fmt.Printf("Failed to read response: %v\n", err)
				continue
			}

			// Optional family filter: metrics error_percent
			text := string(body)
			if len(args) > 1 {
				filter := args[1]
				var kept []string
				for _, l := range strings.Split(text, "\n") {
					if strings.Contains(l, filter) {
						kept = append(kept, l)
					}
				}
				text = strings.Join(kept, "\n")
			}
			fmt.Println(text)

		case "health":
			resp, err := client.Get(fmt.Sprintf("%s/health", currentAddr))
			if err != nil {
				fmt.Printf("Health check failed: %v\n", err)
				continue
			}

			var health map[string]interface{}
			err = json.NewDecoder(resp.Body).Decode(&health)
			resp.Body.Close()
			if err != nil {
				fmt.Printf("Failed to parse health response: %v\n", err)
				continue
			}

			status, _ := health["status"].(string)
			gauges, _ := health["gauges"].(float64)
			fmt.Printf("Status: %s | Gauges: %d\n", status, int(gauges))
			if last, ok := health["last_refresh"].(string); ok {
				fmt.Printf("Last refresh: %s\n", last)
			}

		case "routes":
			resp, err := client.Get(fmt.Sprintf("%s/routes", currentAddr))
			if err != nil {
				fmt.Printf("Routes request failed: %v\n", err)
				continue
			}

			var routes map[string]interface{}
			err = json.NewDecoder(resp.Body).Decode(&routes)
			resp.Body.Close()
			if err != nil {
				fmt.Printf("Failed to parse routes response: %v\n", err)
				continue
			}

			prettyJSON, _ := json.MarshalIndent(routes, "", "  ")
			fmt.Println(string(prettyJSON))

		case "use", "connect":
			if len(args) < 2 {
				fmt.Println("Usage: use <addr>")
				fmt.Println("Example: use http://localhost:8201")
				continue
			}
			newAddr := args[1]

			// Ensure http:// prefix
			if !strings.HasPrefix(newAddr, "http://") && !strings.HasPrefix(newAddr, "https://") {
				newAddr = "http://" + newAddr
			}

			// Test connection
			resp, err := client.Get(fmt.Sprintf("%s/health", newAddr))
			if err != nil {
				fmt.Printf("Cannot reach %s: %v\n", newAddr, err)
				continue
			}
			resp.Body.Close()

			currentAddr = newAddr
			fmt.Printf("Now using %s\n", currentAddr)

		case "help":
			fmt.Println("Commands:")
			fmt.Println("  metrics [filter]  Scrape the /metrics endpoint, optionally filtered")
			fmt.Println("  health            Show exporter health and last refresh time")
			fmt.Println("  routes            List the gateway routes the exporter sees")
			fmt.Println("  use <addr>        Switch to another exporter instance")
			fmt.Println("  exit              Quit")

		case "exit", "quit":
			fmt.Println("Bye")
			return

		default:
			fmt.Printf("Unknown command: %s (try 'help')\n", cmd)
		}
	}
}
