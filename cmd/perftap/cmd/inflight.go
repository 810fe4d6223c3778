package cmd

import (
	"fmt"
	"time"
)

func init() {
	RegisterCommand(&Command{
		Name:  "inflight",
		Short: "Show events still being tracked",
		Long: `Show events that have been delivered but have not settled yet:
events still being processed, waiting for the next frame sweep, or
waiting for their surface to mount.`,
		Usage: "perftap inflight",
		Run:   runInFlight,
	})
}

func runInFlight(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown argument %q\n\nUsage: perftap inflight", args[0])
	}

	var body inFlightResponse
	if err := fetchJSON(resolveAddr(), "/inflight", nil, &body); err != nil {
		return err
	}

	if len(body.Entries) == 0 {
		fmt.Println("No events in flight.")
		return nil
	}

	now := time.Now()
	fmt.Printf("  %-6s %-20s %-10s %-10s %s\n", "TAG", "NAME", "AGE", "SURFACE", "STATE")
	for _, e := range body.Entries {
		age := now.Sub(time.UnixMilli(e.StartTime)).Round(time.Millisecond)

		surface := "-"
		if e.HasTarget {
			surface = fmt.Sprintf("%d", e.Surface)
		}

		state := "processing"
		switch {
		case e.WaitingForMount:
			state = "waiting for mount"
		case e.ProcessingEnd != 0:
			state = "waiting for frame"
		}

		fmt.Printf("  %-6d %-20s %-10s %-10s %s\n", e.Tag, e.Name, age, surface, state)
	}

	return nil
}
