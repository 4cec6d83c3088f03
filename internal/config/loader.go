// Package config loads service configuration from the process environment,
// with optional .env support for local development, and the weekly booking
// policy from a JSON file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Driver names accepted by BOOKING_DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures environment driven configuration values for the booking
// service.
type Config struct {
	HTTPPort    int
	DBDriver    string
	SQLiteDSN   string
	PostgresDSN string
	SessionTTL  time.Duration
	PolicyPath  string
	LogLevel    string

	// AdminEmail and AdminPassword seed a privileged bootstrap account on
	// startup when set, so a fresh database has someone able to log in.
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// Load parses configuration from the current process environment. A .env
// file in the working directory is read first when present, without
// overriding variables already set.
//
// Optional fields fall back to defaults; required and malformed values are
// aggregated into a single localized error.
func Load() (Config, error) {
	// Ignore a missing .env; it only exists in local development.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:   8080,
		DBDriver:   DriverSQLite,
		SQLiteDSN:  "booking.db",
		SessionTTL: 24 * time.Hour,
		LogLevel:   "info",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.TrimSpace(os.Getenv("BOOKING_DB_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverPostgres:
			cfg.DBDriver = driver
		default:
			invalid = append(invalid, "BOOKING_DB_DRIVER")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	cfg.PostgresDSN = strings.TrimSpace(os.Getenv("BOOKING_POSTGRES_DSN"))
	if cfg.DBDriver == DriverPostgres && cfg.PostgresDSN == "" {
		missing = append(missing, "BOOKING_POSTGRES_DSN")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("BOOKING_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "BOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	cfg.PolicyPath = strings.TrimSpace(os.Getenv("BOOKING_POLICY_PATH"))

	if level := strings.TrimSpace(os.Getenv("BOOKING_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	cfg.AdminEmail = strings.TrimSpace(os.Getenv("BOOKING_ADMIN_EMAIL"))
	cfg.AdminName = strings.TrimSpace(os.Getenv("BOOKING_ADMIN_NAME"))
	cfg.AdminPassword = os.Getenv("BOOKING_ADMIN_PASSWORD")
	if cfg.AdminEmail != "" && cfg.AdminPassword == "" {
		missing = append(missing, "BOOKING_ADMIN_PASSWORD")
	}
	if cfg.AdminEmail == "" && cfg.AdminPassword != "" {
		missing = append(missing, "BOOKING_ADMIN_EMAIL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias ausentes: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente com valor inválido: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
