package config

import (
	"github.com/spf13/pflag"
)

// flagKeys maps flag names onto viper keys.
var flagKeys = map[string]string{
	"addr":           "addr",
	"database-dsn":   "database_dsn",
	"storage":        "storage",
	"jwt-secret":     "jwt_secret",
	"token-validity": "token_validity",
	"env":            "env",
	"log-level":      "log_level",
	"scope-filter":   "scope_filter",
}

// RegisterFlags declares the server flags on fs. Values left unset on the
// command line fall through to the environment, the config file and the
// defaults.
//
//	-a, --addr            listen address
//	-d, --database-dsn    PostgreSQL DSN
//	    --storage         postgres or memory
//	-s, --jwt-secret      HMAC secret for bearer tokens (empty disables auth)
//	    --token-validity  lifetime of tokens minted by "token"
//	    --env             development or production
//	-l, --log-level       debug, info, warn, error
//	    --scope-filter    serve GET /orders?scope=
//	-c, --config          config file (yaml, json, toml)
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("addr", "a", d.Addr, "listen address")
	fs.StringP("database-dsn", "d", d.DatabaseDSN, "PostgreSQL DSN")
	fs.String("storage", d.Storage, "storage backend: postgres or memory")
	fs.StringP("jwt-secret", "s", d.JWTSecret, "HMAC secret for bearer tokens (empty disables auth)")
	fs.Duration("token-validity", d.TokenValidity, "lifetime of tokens minted by the token command")
	fs.String("env", d.Env, "development or production")
	fs.StringP("log-level", "l", d.LogLevel, "log level")
	fs.Bool("scope-filter", d.ScopeFilter, "serve scoped order listings")
	fs.StringP("config", "c", "", "config file")
}
