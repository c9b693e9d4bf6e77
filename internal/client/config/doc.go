// Package config loads runtime configuration for the ordersync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the order server
//	-d string   path of the local cache database
//	-i int      online status check interval (seconds)
//	-t int      request timeout (seconds)
//	-p int      new order poll interval (seconds, 0 disables)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "ordersync.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "5s",
//	  "poll_interval": "10s",
//	  "log_level": "info"
//	}
package config
