package main

import (
	"fmt"
	"os"

	"github.com/eventflow/efm-sync-backend/internal/cli"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/config"
)

func main() {
	flags := cli.ParseServeFlags()

	cfg := config.LoadOrEnv()
	if flags.ConfigPath != "" {
		cfg = config.LoadOrEnvWithPath(flags.ConfigPath)
	}

	if err := cli.RunServe(cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
