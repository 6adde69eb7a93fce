package main

import (
	"fmt"
	"os"
	"strings"

	"finterm/internal/cli"
	"finterm/internal/config"
	"finterm/internal/logging"
)

// configDirFromArgs scans the raw arguments for the --config flag
// before cobra parses them, so the configuration can be loaded first.
// Both the "--config DIR" and "--config=DIR" forms are accepted.
func configDirFromArgs(args []string) string {
	dir := ""
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			dir = args[i+1]
		case strings.HasPrefix(arg, "--config="):
			dir = strings.TrimPrefix(arg, "--config=")
		}
	}
	return dir
}

func main() {
	logger := logging.NewLogger()

	configDir := configDirFromArgs(os.Args[1:])

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
