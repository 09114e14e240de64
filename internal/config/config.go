// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"strings"
)

// Database drivers accepted in DB_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Config holds the settings every command needs.
type Config struct {
	Env        string // APP_ENV: dev, test or prod
	Port       string // APP_PORT
	LogLevel   string // LOG_LEVEL: debug, info, warn or error
	DBDriver   string // DB_DRIVER: mysql or sqlite3
	DBUser     string
	DBPass     string // may be empty
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string // SQLITE_PATH, used with the sqlite3 driver
	JWTSecret  string // secret shared with the token issuer
}

// Load reads Config from the environment. Every missing required
// variable is reported in the returned error. The MySQL connection
// variables are only required when DB_DRIVER is mysql.
func Load() (Config, error) {
	var r required
	cfg := Config{
		Env:        envStr("APP_ENV", "dev"),
		Port:       envStr("APP_PORT", "8080"),
		LogLevel:   envStr("LOG_LEVEL", "info"),
		DBDriver:   strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		SQLitePath: envStr("SQLITE_PATH", "data/hotel.db"),
		JWTSecret:  r.must("JWT_SECRET"),
	}
	switch cfg.DBDriver {
	case DriverMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = envStr("DB_PASS", "")
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case DriverSQLite:
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if err := r.err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
