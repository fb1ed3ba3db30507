package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"feedly-sync/handler"
)

const healthCheckTimeout = 10 * time.Second

// runHealthCheck probes the running server for container health checks
func runHealthCheck(port string, out io.Writer) int {
	if port == "" {
		port = "8080"
	}
	return probeHealth("http://"+net.JoinHostPort("127.0.0.1", port)+"/health", out)
}

// probeHealth prints the health report and returns the process exit code
func probeHealth(url string, out io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(out, `{"status": "error", "error": %q}`+"\n", err.Error())
		return 1
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(out, `{"status": "error", "error": %q}`+"\n", err.Error())
		return 1
	}
	defer resp.Body.Close()

	var report handler.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		fmt.Fprintf(out, `{"status": "error", "error": "failed to decode health report: %v"}`+"\n", err)
		return 1
	}

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return 1
	}
	fmt.Fprintln(out, string(output))

	if resp.StatusCode != http.StatusOK || report.Status != "healthy" {
		return 1
	}
	return 0
}
