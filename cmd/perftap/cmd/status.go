package cmd

import (
	"fmt"
)

func init() {
	RegisterCommand(&Command{
		Name:  "status",
		Short: "Show observer and pipeline status",
		Long: `Show the observer's health and a summary of the timing pipeline:
how many events are in flight, how many entries are buffered, and the
slow entry threshold.`,
		Usage: "perftap status",
		Run:   runStatus,
	})
}

// debugInfo is the /debug response shape.
type debugInfo struct {
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

func runStatus(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown argument %q\n\nUsage: perftap status", args[0])
	}

	addr := resolveAddr()

	var info debugInfo
	if err := fetchJSON(addr, "/debug", nil, &info); err != nil {
		return err
	}

	fmt.Printf("Observer: %s\n", addr)
	fmt.Println()
	fmt.Println("Sources:")
	fmt.Printf("  logger:  %s\n", presence(info.HasLogger))
	fmt.Printf("  buffer:  %s\n", presence(info.HasBuffer))
	fmt.Println()
	fmt.Println("Pipeline:")
	fmt.Printf("  in flight:   %d\n", info.InFlight)
	fmt.Printf("  buffered:    %d entries (%d slow, %d dropped)\n", info.Buffered, info.Slow, info.Dropped)
	fmt.Printf("  reported:    %d total\n", info.Total)
	fmt.Printf("  threshold:   %.0fms\n", info.ThresholdMs)
	fmt.Printf("  debug mode:  %s\n", onOff(info.DebugMode))

	return nil
}

func presence(ok bool) string {
	if ok {
		return "attached"
	}
	return "absent"
}

func onOff(ok bool) string {
	if ok {
		return "on"
	}
	return "off"
}
