package cmd

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-drift/perf/pkg/observer"
)

func init() {
	RegisterCommand(&Command{
		Name:  "entries",
		Short: "Show settled timing entries",
		Long: `Show settled interaction entries from the observer's buffer,
oldest first.

Flags:
  --limit N     Show only the last N entries
  --min-ms MS   Show only entries at least MS milliseconds long
  --name NAME   Show only entries for one event type (canonical name)
  --since SEQ   Show only entries after sequence number SEQ`,
		Usage: "perftap entries [--limit N] [--min-ms MS] [--name NAME] [--since SEQ]",
		Run:   runEntries,
	})
}

type entriesOptions struct {
	limit int
	minMs float64
	name  string
	since uint64
}

func parseEntriesArgs(args []string) (entriesOptions, error) {
	opts := entriesOptions{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--limit requires a number")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return opts, fmt.Errorf("invalid --limit value %q", args[i+1])
			}
			opts.limit = n
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
		case "--since":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--since requires a sequence number")
			}
			v, err := strconv.ParseUint(args[i+1], 10, 64)
			if err != nil {
				return opts, fmt.Errorf("invalid --since value %q", args[i+1])
			}
			opts.since = v
			i++
		default:
			return opts, fmt.Errorf("unknown flag %q", args[i])
		}
	}
	return opts, nil
}

func (o entriesOptions) query() url.Values {
	query := url.Values{}
	if o.limit > 0 {
		query.Set("limit", strconv.Itoa(o.limit))
	}
	if o.minMs > 0 {
		query.Set("min_ms", strconv.FormatFloat(o.minMs, 'f', -1, 64))
	}
	if o.name != "" {
		query.Set("name", o.name)
	}
	if o.since > 0 {
		query.Set("since", strconv.FormatUint(o.since, 10))
	}
	return query
}

func runEntries(args []string) error {
	opts, err := parseEntriesArgs(args)
	if err != nil {
		return err
	}

	var timeline observer.TimelineResponse
	if err := fetchJSON(resolveAddr(), "/entries", opts.query(), &timeline); err != nil {
		return err
	}

	if len(timeline.Entries) == 0 {
		fmt.Println("No settled entries.")
		return nil
	}

	printEntryHeader()
	for _, e := range timeline.Entries {
		printEntryLine(e)
	}
	fmt.Println()
	fmt.Printf("%d shown, %d total reported, %d slow (threshold %.0fms)\n",
		len(timeline.Entries), timeline.Total, timeline.Slow, timeline.ThresholdMs)

	return nil
}
