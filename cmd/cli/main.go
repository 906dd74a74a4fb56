package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

type statusView struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Services  []struct {
		Name         string  `json:"name"`
		Healthy      bool    `json:"healthy"`
		ResponseTime float64 `json:"response_time"`
	} `json:"services"`
}

func main() {
	def := os.Getenv("API_BASE")
	if def == "" {
		def = "http://localhost:8080"
	}
	api := flag.String("api", def, "base URL of the health API")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(strings.TrimRight(*api, "/") + "/health/status")
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(2)
	}
	defer resp.Body.Close()

	// 503 still carries a status body.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		fmt.Fprintln(os.Stderr, "API returned status:", resp.Status)
		os.Exit(2)
	}
	var v statusView
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		fmt.Fprintln(os.Stderr, "Could not decode response:", err)
		os.Exit(2)
	}

	fmt.Printf("Overall: %s (%s)\n\n", strings.ToUpper(v.Status), v.Timestamp.Local().Format(time.RFC3339))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tSTATE\tRESPONSE")
	for _, s := range v.Services {
		state := "✔ up"
		if !s.Healthy {
			state = "✖ down"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f ms\n", s.Name, state, s.ResponseTime)
	}
	tw.Flush()

	if v.Status != "healthy" {
		os.Exit(1)
	}
}
