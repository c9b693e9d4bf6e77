package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ordersync/internal/flagx"
	"github.com/dmitrijs2005/ordersync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Intervals use
// timex.Duration so "3s" and integer nanoseconds both parse. Fields left out
// of the file keep their previous value.
type JsonConfig struct {
	ServerURL           string          `json:"server_url"`
	DatabasePath        string          `json:"database_path"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	PollInterval        *timex.Duration `json:"poll_interval"`
	LogLevel            string          `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config.
// Without either flag it is a no-op.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("decode config %q: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
