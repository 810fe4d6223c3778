// Package observer serves event timing state over HTTP for inspection
// tooling. A Server exposes the settled entry timeline, the in-flight
// table, and the supported event set as JSON endpoints that perftap and
// similar tools poll.
package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-drift/perf/pkg/errors"
	"github.com/go-drift/perf/pkg/eventtiming"
	"github.com/go-drift/perf/pkg/perfentry"
)

// Options configures an observer Server.
type Options struct {
	// Port is the TCP port to bind. 0 allocates an ephemeral port.
	Port int
	// Logger, when set, backs the /inflight endpoint.
	Logger *eventtiming.Logger
	// Buffer, when set, backs the /entries endpoint.
	Buffer *perfentry.BufferedReporter
}

// Server is an HTTP server exposing timing state for one pipeline.
type Server struct {
	opts     Options
	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a server for the given sources. Call Start to bind.
func New(opts Options) *Server {
	return &Server{opts: opts}
}

// EntryRecord is the JSON form of one settled entry.
// Absolute times are Unix milliseconds; durations are float ms.
type EntryRecord struct {
	Seq             uint64  `json:"seq"`
	Name            string  `json:"name"`
	StartTime       int64   `json:"startTime"`
	DurationMs      float64 `json:"durationMs"`
	ProcessingStart int64   `json:"processingStart"`
	ProcessingEnd   int64   `json:"processingEnd"`
	InteractionID   uint64  `json:"interactionId"`
}

// TimelineResponse is the /entries response shape.
type TimelineResponse struct {
	Entries     []EntryRecord `json:"entries"`
	Slow        int           `json:"slow"`
	Dropped     int           `json:"dropped"`
	Total       uint64        `json:"total"`
	ThresholdMs float64       `json:"thresholdMs"`
}

// InFlightRecord is the JSON form of one tracked, unsettled event.
// ProcessingStart/ProcessingEnd are 0 while the stage is unset.
type InFlightRecord struct {
	Tag             uint64 `json:"tag"`
	Name            string `json:"name"`
	Surface         int64  `json:"surface"`
	HasTarget       bool   `json:"hasTarget"`
	StartTime       int64  `json:"startTime"`
	ProcessingStart int64  `json:"processingStart,omitempty"`
	ProcessingEnd   int64  `json:"processingEnd,omitempty"`
	WaitingForMount bool   `json:"waitingForMount"`
}

// Start binds the listener and begins serving. It returns the actual
// port, which is useful when Options.Port is 0. Starting an already
// running server returns the current port.
func (s *Server) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		if s.listener != nil {
			return s.listener.Addr().(*net.TCPAddr).Port, nil
		}
		return s.opts.Port, nil
	}

	// Bind listener first to fail fast on port conflicts
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.opts.Port))
	if err != nil {
		return 0, fmt.Errorf("observer listen: %w", err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("/entries", s.handleEntries)
	mux.HandleFunc("/inflight", s.handleInFlight)
	mux.HandleFunc("/supported", handleSupported)
	mux.HandleFunc("/debug", s.handleDebug)
	mux.HandleFunc("/health", handleHealth)

	server := &http.Server{Handler: mux}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			// Server failed - clear state so it can be restarted
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			errors.Report(&errors.PerfError{
				Op:   "observer.serve",
				Kind: errors.KindObserver,
				Err:  err,
			})
		}
	}()

	return actualPort, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

// handleEntries returns the settled entry timeline as JSON.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	buffer := s.opts.Buffer
	if buffer == nil {
		http.Error(w, "entry buffering disabled", http.StatusServiceUnavailable)
		return
	}

	resp := timelineResponse(buffer.Snapshot())

	applyEntryFilters(r, &resp)

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleInFlight returns the tracked, unsettled events as JSON.
func (s *Server) handleInFlight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Recover from panics in target SurfaceID implementations
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	logger := s.opts.Logger
	if logger == nil {
		http.Error(w, "event timing disabled", http.StatusServiceUnavailable)
		return
	}

	resp := struct {
		Entries []InFlightRecord `json:"entries"`
	}{
		Entries: inFlightRecords(logger.InFlightSnapshot()),
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleSupported returns the tracked event names.
func handleSupported(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := struct {
		Events map[string]string `json:"events"`
	}{
		Events: eventtiming.SupportedEvents(),
	}

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handleHealth returns a simple health check response.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleDebug returns diagnostic info about the pipeline state.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	var info struct {
		HasLogger   bool    `json:"hasLogger"`
		HasBuffer   bool    `json:"hasBuffer"`
		InFlight    int     `json:"inFlight"`
		Buffered    int     `json:"buffered"`
		Slow        int     `json:"slow"`
		Dropped     int     `json:"dropped"`
		Total       uint64  `json:"total"`
		ThresholdMs float64 `json:"thresholdMs"`
		DebugMode   bool    `json:"debugMode"`
	}
	info.HasLogger = s.opts.Logger != nil
	info.HasBuffer = s.opts.Buffer != nil
	if s.opts.Logger != nil {
		info.InFlight = len(s.opts.Logger.InFlightSnapshot())
	}
	if s.opts.Buffer != nil {
		snapshot := s.opts.Buffer.Snapshot()
		info.Buffered = len(snapshot.Entries)
		info.Slow = snapshot.Slow
		info.Dropped = snapshot.Dropped
		info.Total = snapshot.Total
		info.ThresholdMs = durationToMillis(snapshot.Threshold)
	}
	info.DebugMode = errors.DebugMode

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// applyEntryFilters narrows the timeline per query parameters:
// min_ms, name, since (sequence cursor) and limit (last N).
func applyEntryFilters(r *http.Request, resp *TimelineResponse) {
	limit := 0
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	var filters []func(EntryRecord) bool

	if v := parseFloatQuery(r, "min_ms"); v > 0 {
		filters = append(filters, func(e EntryRecord) bool { return e.DurationMs >= v })
	}
	if name := r.URL.Query().Get("name"); name != "" {
		filters = append(filters, func(e EntryRecord) bool { return e.Name == name })
	}
	if value := r.URL.Query().Get("since"); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			filters = append(filters, func(e EntryRecord) bool { return e.Seq > parsed })
		}
	}

	if len(filters) > 0 {
		filtered := make([]EntryRecord, 0, len(resp.Entries))
	outer:
		for _, entry := range resp.Entries {
			for _, f := range filters {
				if !f(entry) {
					continue outer
				}
			}
			filtered = append(filtered, entry)
		}
		resp.Entries = filtered
	}

	if limit > 0 && len(resp.Entries) > limit {
		resp.Entries = resp.Entries[len(resp.Entries)-limit:]
	}
}

func parseFloatQuery(r *http.Request, key string) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0
	}
	return parsed
}

// timelineResponse converts a buffer snapshot to its wire form.
func timelineResponse(t perfentry.Timeline) TimelineResponse {
	resp := TimelineResponse{
		Entries:     make([]EntryRecord, len(t.Entries)),
		Slow:        t.Slow,
		Dropped:     t.Dropped,
		Total:       t.Total,
		ThresholdMs: durationToMillis(t.Threshold),
	}
	base := t.Total - uint64(len(t.Entries))
	for i, e := range t.Entries {
		resp.Entries[i] = EntryRecord{
			Seq:             base + uint64(i) + 1,
			Name:            e.Name,
			StartTime:       e.StartTime.UnixMilli(),
			DurationMs:      durationToMillis(e.Duration),
			ProcessingStart: timeToMillis(e.ProcessingStart),
			ProcessingEnd:   timeToMillis(e.ProcessingEnd),
			InteractionID:   uint64(e.InteractionID),
		}
	}
	return resp
}

// inFlightRecords converts in-flight snapshots to their wire form.
func inFlightRecords(entries []eventtiming.InFlightEntry) []InFlightRecord {
	records := make([]InFlightRecord, len(entries))
	for i, e := range entries {
		records[i] = InFlightRecord{
			Tag:             uint64(e.Tag),
			Name:            e.Name,
			Surface:         int64(e.Surface),
			HasTarget:       e.HasTarget,
			StartTime:       e.StartTime.UnixMilli(),
			ProcessingStart: timeToMillis(e.ProcessingStart),
			ProcessingEnd:   timeToMillis(e.ProcessingEnd),
			WaitingForMount: e.WaitingForMount,
		}
	}
	return records
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// timeToMillis converts t to Unix milliseconds, mapping the zero
// (unset) time to 0.
func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
