// Package cmd implements the perftap CLI commands.
//
// The command structure follows standard Go CLI patterns with a root
// command that dispatches to subcommands (entries, inflight, status,
// watch, export).
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-drift/perf/cmd/perftap/internal/config"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Short       string
	Long        string
	Usage       string
	Run         func(args []string) error
	SubCommands []*Command
}

var rootCmd = &Command{
	Name:  "perftap",
	Short: "perftap - inspect event timing from a running app",
	Long: `perftap reads event timing data from an application's observer
endpoint: settled interaction entries, events still in flight, and
pipeline health. It can also forward settled entries to an
OpenTelemetry collector.

Use "perftap <command> --help" for more information about a command.`,
	Usage: "perftap <command> [flags]",
}

// addrOverride holds the --addr global flag value.
var addrOverride string

// Commands registered with the CLI.
var commands = make(map[string]*Command)

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	rootCmd.SubCommands = append(rootCmd.SubCommands, cmd)
}

// Execute runs the CLI with the given arguments.
func Execute() error {
	args := os.Args[1:]

	// Handle no arguments
	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Handle global flags and extract --addr
	var filteredArgs []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-h", "--help", "help":
			if len(filteredArgs) == 0 {
				printHelp(rootCmd)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "-v", "--version", "version":
			if len(filteredArgs) == 0 {
				fmt.Printf("perftap version %s (built %s)\n", Version, BuildTime)
				return nil
			}
			filteredArgs = append(filteredArgs, arg)
		case "--addr":
			if i+1 < len(args) {
				addrOverride = args[i+1]
				i++
			} else {
				return fmt.Errorf("--addr requires a host:port value")
			}
		default:
			if strings.HasPrefix(arg, "--addr=") {
				addrOverride = strings.TrimPrefix(arg, "--addr=")
				continue
			}
			filteredArgs = append(filteredArgs, arg)
		}
	}
	args = filteredArgs

	if len(args) == 0 {
		printHelp(rootCmd)
		return nil
	}

	// Find and execute the command
	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmdName)
		printHelp(rootCmd)
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	// Check for help flag on subcommand
	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}

	return cmd.Run(cmdArgs)
}

// resolveAddr returns the observer address to poll: the --addr flag,
// then PERFTAP_ADDR, then perf.yaml in the enclosing module, then the
// built-in default. Commands work outside a Go module; config
// resolution is best effort.
func resolveAddr() string {
	if addrOverride != "" {
		return addrOverride
	}
	if env := os.Getenv("PERFTAP_ADDR"); env != "" {
		return env
	}
	if root, err := config.FindProjectRoot(); err == nil {
		if cfg, err := config.Resolve(root); err == nil {
			return cfg.ObserverAddr
		}
	}
	return config.DefaultObserverAddr
}

func printHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
	fmt.Println()
	fmt.Println("Commands:")
	for _, sub := range cmd.SubCommands {
		fmt.Printf("  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -h, --help           Show help for a command")
	fmt.Println("  -v, --version        Show version information")
	fmt.Println("  --addr HOST:PORT     Observer address (default: from perf.yaml or localhost:9999)")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  PERFTAP_ADDR         Observer address override (lower priority than --addr)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  perftap entries --limit 20    Show the last 20 settled entries")
	fmt.Println("  perftap watch --min-ms 100    Stream slow entries as they settle")
	fmt.Println("  perftap export                Forward entries to an OTLP collector")
}

func printCommandHelp(cmd *Command) {
	fmt.Println(cmd.Long)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s\n", cmd.Usage)
}
