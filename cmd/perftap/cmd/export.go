package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-drift/perf/cmd/perftap/internal/config"
	"github.com/go-drift/perf/pkg/observer"
	"github.com/go-drift/perf/pkg/otelexport"
	"github.com/go-drift/perf/pkg/perfentry"
)

func init() {
	RegisterCommand(&Command{
		Name:  "export",
		Short: "Forward entries to an OTLP collector",
		Long: `Poll the observer and forward settled entries to an OpenTelemetry
collector over OTLP/HTTP, one span per entry.

The collector endpoint and service name come from flags, then
perf.yaml (export.endpoint, export.service), then the
OTEL_EXPORTER_OTLP_ENDPOINT environment variable.

Flags:
  --endpoint HOST:PORT   OTLP/HTTP collector endpoint
  --service NAME         Service name for exported resources
  --interval DUR         Poll interval (default: 1s)
  --once                 Export the current buffer and exit`,
		Usage: "perftap export [--endpoint HOST:PORT] [--service NAME] [--interval DUR] [--once]",
		Run:   runExport,
	})
}

type exportOptions struct {
	endpoint string
	service  string
	interval time.Duration
	once     bool
}

func parseExportArgs(args []string) (exportOptions, error) {
	opts := exportOptions{interval: time.Second}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--endpoint":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--endpoint requires a host:port value")
			}
			opts.endpoint = args[i+1]
			i++
		case "--service":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--service requires a name")
			}
			opts.service = args[i+1]
			i++
		case "--interval":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--interval requires a duration")
			}
			d, err := time.ParseDuration(args[i+1])
			if err != nil || d <= 0 {
				return opts, fmt.Errorf("invalid --interval value %q", args[i+1])
			}
			opts.interval = d
			i++
		case "--once":
			opts.once = true
		default:
			return opts, fmt.Errorf("unknown flag %q", args[i])
		}
	}
	return opts, nil
}

func runExport(args []string) error {
	opts, err := parseExportArgs(args)
	if err != nil {
		return err
	}

	// Fill unset options from perf.yaml when inside a module
	if opts.endpoint == "" || opts.service == "" {
		if root, err := config.FindProjectRoot(); err == nil {
			if cfg, err := config.Resolve(root); err == nil {
				if opts.endpoint == "" {
					opts.endpoint = cfg.ExportEndpoint
				}
				if opts.service == "" {
					opts.service = cfg.ExportService
				}
			}
		}
	}
	if opts.service == "" {
		opts.service = "perftap"
	}

	addr := resolveAddr()

	tp, err := otelexport.InitProvider(context.Background(), otelexport.Options{
		ServiceName: opts.service,
		Endpoint:    opts.endpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelexport.ShutdownProvider(ctx, tp); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}()

	exporter := otelexport.NewExporterFromProvider(tp)

	var cursor uint64
	forward := func() (int, error) {
		query := url.Values{}
		query.Set("since", strconv.FormatUint(cursor, 10))

		var timeline observer.TimelineResponse
		if err := fetchJSON(addr, "/entries", query, &timeline); err != nil {
			return 0, err
		}

		for _, e := range timeline.Entries {
			exporter.ReportEvent(wireToEvent(e))
		}
		cursor = timeline.Total
		return len(timeline.Entries), nil
	}

	exported, err := forward()
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d buffered entries as %q\n", exported, opts.service)

	if opts.once {
		return nil
	}

	fmt.Println("Forwarding new entries (Ctrl+C to stop)...")

	// Handle Ctrl+C gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println("\nExport stopped.")
			return nil
		case <-ticker.C:
			n, err := forward()
			if err != nil {
				fmt.Fprintf(os.Stderr, "poll failed: %v\n", err)
				continue
			}
			if n > 0 {
				fmt.Printf("Exported %d entries\n", n)
			}
		}
	}
}

// wireToEvent converts an observer record back to a settled entry for
// the span exporter. A zero wire timestamp means the stamp was unset.
func wireToEvent(e observer.EntryRecord) perfentry.Event {
	return perfentry.Event{
		Name:            e.Name,
		StartTime:       time.UnixMilli(e.StartTime),
		Duration:        time.Duration(e.DurationMs * float64(time.Millisecond)),
		ProcessingStart: millisToTime(e.ProcessingStart),
		ProcessingEnd:   millisToTime(e.ProcessingEnd),
		InteractionID:   perfentry.InteractionID(e.InteractionID),
	}
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
