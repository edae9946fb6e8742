package config

import (
	"flag"
	"strings"
	"time"
)

// parseFlags overlays selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the API
//	-s string   path of the local credential database
//	-t int      request timeout in seconds
//	-c string   path of a YAML config file (consumed by configFilePath)
//
// Args are filtered to only the flags handled here so unknown flags owned
// by other components do not break parsing.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("lookforge", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the LookForge API")
	fs.StringVar(&cfg.StoragePath, "s", cfg.StoragePath, "path of the local credential database")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(filterArgs(args, map[string]bool{"-a": true, "-s": true, "-t": true})); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	return nil
}

// configFilePath extracts the -c/-config flag value without disturbing the
// main flag pass. Both "-c path" and "-c=path" spellings are accepted.
func configFilePath(args []string) string {
	for i, a := range args {
		switch {
		case a == "-c" || a == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(a) > 3 && a[:3] == "-c=":
			return a[3:]
		case len(a) > 8 && a[:8] == "-config=":
			return a[8:]
		}
	}
	return ""
}

// filterArgs keeps only the flags named in keep (plus their values), so a
// FlagSet can parse a shared argv without choking on foreign flags.
func filterArgs(args []string, keep map[string]bool) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		name := a
		if j := strings.IndexByte(a, '='); j >= 0 {
			name = a[:j]
		}
		if !keep[name] {
			continue
		}
		out = append(out, a)
		// "-x value" form: carry the value along.
		if name == a && i+1 < len(args) {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}
