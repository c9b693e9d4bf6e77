package config

import "time"

// Config holds runtime settings for the ordersync client.
//
// Units: every interval is a time.Duration. A zero PollInterval disables the
// background new-order watcher.
type Config struct {
	ServerURL           string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	PollInterval        time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "ordersync.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 5 * time.Second
	c.PollInterval = 10 * time.Second
	c.LogLevel = "info"
}

// LoadConfig applies defaults, then overlays values from the JSON file named
// by -c/-config (if any) and finally the command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
