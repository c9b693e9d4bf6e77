package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/ordersync/internal/flagx"
)

var ownFlags = []string{"-a", "-d", "-i", "-t", "-p", "-l"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string   base URL of the order server
//	-d string   path of the local SQLite cache
//	-i int      online check interval (seconds)
//	-t int      per-request timeout (seconds)
//	-p int      new-order poll interval (seconds, 0 disables)
//	-l string   log level
//
// args are filtered with flagx.FilterArgs so flags owned by other loaders do
// not break parsing.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("ordersync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the order server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local cache database")
	onlineCheck := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	poll := fs.Int("p", int(cfg.PollInterval.Seconds()), "new order poll interval (in seconds, 0 disables)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *onlineCheck <= 0 || *timeout <= 0 || *poll < 0 {
		return fmt.Errorf("parse flags: intervals must be positive")
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheck) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.PollInterval = time.Duration(*poll) * time.Second
	return nil
}
