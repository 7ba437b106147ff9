package cli

import "flag"

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to YAML config (falls back to environment variables)")
	flag.IntVar(&flags.Port, "port", 0, "Port to listen on (overrides config)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// SyncFlags holds the CLI flags for one-shot sync runs.
type SyncFlags struct {
	ConfigPath string
	Resource   string
	Verbose    bool
}

// ParseSyncFlags parses command line flags for the sync command.
func ParseSyncFlags() *SyncFlags {
	flags := &SyncFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "", "Path to YAML config (falls back to environment variables)")
	flag.StringVar(&flags.Resource, "resource", "", "Sync a single resource instead of a full run (countries, cities, companies, venues, events)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}
