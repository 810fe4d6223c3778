package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-drift/perf/pkg/observer"
)

// inFlightResponse is the /inflight response shape.
type inFlightResponse struct {
	Entries []observer.InFlightRecord `json:"entries"`
}

// fetchJSON performs a GET against the observer and decodes the
// response into v.
func fetchJSON(addr, path string, query url.Values, v any) error {
	u := url.URL{
		Scheme:   "http",
		Host:     addr,
		Path:     path,
		RawQuery: query.Encode(),
	}

	resp, err := http.Get(u.String())
	if err != nil {
		return fmt.Errorf("observer unreachable at %s: %w", addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("observer returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode observer response: %w", err)
	}
	return nil
}

// printEntryLine prints one settled entry as a table row.
func printEntryLine(e observer.EntryRecord) {
	start := time.UnixMilli(e.StartTime).Format("15:04:05.000")
	processing := "-"
	if e.ProcessingStart != 0 && e.ProcessingEnd != 0 {
		processing = fmt.Sprintf("%.1fms", float64(e.ProcessingEnd-e.ProcessingStart))
	}
	fmt.Printf("  %-6d %-20s %-14s %10.1fms %12s\n", e.Seq, e.Name, start, e.DurationMs, processing)
}

// printEntryHeader prints the column header matching printEntryLine.
func printEntryHeader() {
	fmt.Printf("  %-6s %-20s %-14s %12s %12s\n", "SEQ", "NAME", "START", "DURATION", "PROCESSING")
}
