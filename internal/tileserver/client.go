package tileserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// FetchMetrics reads the JSON metrics of a daemon listening on addr.
func FetchMetrics(ctx context.Context, addr string) (Metrics, error) {
	var m Metrics

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/api/metrics", nil)
	if err != nil {
		return m, fmt.Errorf("building metrics request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return m, fmt.Errorf("contacting daemon at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return m, fmt.Errorf("daemon at %s: status %d", addr, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return m, fmt.Errorf("decoding daemon metrics: %w", err)
	}
	return m, nil
}
