package cmd

import (
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-drift/perf/pkg/observer"
)

func init() {
	RegisterCommand(&Command{
		Name:  "watch",
		Short: "Stream entries as they settle",
		Long: `Poll the observer and print settled entries as they arrive, using
the buffer's sequence numbers as a cursor. Entries that settled
before the watch started are skipped unless --all is given.

Flags:
  --interval DUR   Poll interval (default: 1s)
  --min-ms MS      Show only entries at least MS milliseconds long
  --name NAME      Show only entries for one event type
  --all            Include entries buffered before the watch started`,
		Usage: "perftap watch [--interval DUR] [--min-ms MS] [--name NAME] [--all]",
		Run:   runWatch,
	})
}

type watchOptions struct {
	interval time.Duration
	minMs    float64
	name     string
	all      bool
}

func parseWatchArgs(args []string) (watchOptions, error) {
	opts := watchOptions{interval: time.Second}
	for i := 0; i < len(args); i++ {
		switch args[i] {
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
		case "--min-ms":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--min-ms requires a number")
			}
			v, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil || v <= 0 {
				return opts, fmt.Errorf("invalid --min-ms value %q", args[i+1])
			}
			opts.minMs = v
			i++
		case "--name":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--name requires an event name")
			}
			opts.name = args[i+1]
			i++
		case "--all":
			opts.all = true
		default:
			return opts, fmt.Errorf("unknown flag %q", args[i])
		}
	}
	return opts, nil
}

func runWatch(args []string) error {
	opts, err := parseWatchArgs(args)
	if err != nil {
		return err
	}

	addr := resolveAddr()

	// Establish the starting cursor so only new entries print
	var cursor uint64
	if !opts.all {
		var timeline observer.TimelineResponse
		if err := fetchJSON(addr, "/entries", url.Values{"limit": {"1"}}, &timeline); err != nil {
			return err
		}
		cursor = timeline.Total
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)...\n", addr)
	fmt.Println()
	printEntryHeader()

	// Handle Ctrl+C gracefully
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println("\nWatch stopped.")
			return nil
		case <-ticker.C:
			query := url.Values{}
			query.Set("since", strconv.FormatUint(cursor, 10))
			if opts.minMs > 0 {
				query.Set("min_ms", strconv.FormatFloat(opts.minMs, 'f', -1, 64))
			}
			if opts.name != "" {
				query.Set("name", opts.name)
			}

			var timeline observer.TimelineResponse
			if err := fetchJSON(addr, "/entries", query, &timeline); err != nil {
				fmt.Fprintf(os.Stderr, "poll failed: %v\n", err)
				continue
			}

			for _, e := range timeline.Entries {
				printEntryLine(e)
			}
			// Total counts filtered entries too, so the cursor always
			// moves past everything reported so far
			cursor = timeline.Total
		}
	}
}
