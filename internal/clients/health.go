package clients

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const defaultProbeTimeout = 2 * time.Second

// HealthProbe is a cheap GET against an upstream. fakestoreapi has no health
// route, so the catalog is probed with a one item page.
type HealthProbe struct {
	Name     string
	Client   *Client
	Path     string
	RawQuery string
	Timeout  time.Duration
}

type HealthResult struct {
	Name       string `json:"name"`
	OK         bool   `json:"ok"`
	StatusCode int    `json:"statusCode,omitempty"`
	LatencyMS  int64  `json:"latencyMs"`
	Error      string `json:"error,omitempty"`
}

func CheckHealth(ctx context.Context, probe HealthProbe) HealthResult {
	timeout := probe.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res := HealthResult{Name: probe.Name}
	start := time.Now()
	resp, err := probe.Client.Do(ctx, http.MethodGet, probe.Path, probe.RawQuery, nil, http.Header{})
	res.LatencyMS = time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.Error = "timed out after " + timeout.String()
		return res
	case err != nil:
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	return res
}

// Healthy reports whether every probe passed.
func Healthy(results []HealthResult) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}
