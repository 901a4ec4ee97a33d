// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/famcoin-bot/internal/telemetry"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	// DatabaseURL selects PostgreSQL storage. Empty keeps state in memory.
	DatabaseURL string
	LogLevel    string
	LogJSON     bool

	ParentUserIDs   []int64
	ParentUsernames []string

	CoinDisplayRate decimal.Decimal
	DisplayCurrency string
	LocalCurrency   string

	ExchangeRateBaseURL  string
	ExchangeRateTimeout  time.Duration
	ExchangeRateCacheTTL time.Duration

	InterestEnabled  bool
	InterestHour     int
	InterestTimezone string

	OTelExporter    string
	OTelServiceName string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []string

	cfg := &Config{
		TelegramBotToken:    strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		LogJSON:             strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		DisplayCurrency:     strings.ToUpper(envOr("DISPLAY_CURRENCY", "USD")),
		LocalCurrency:       strings.ToUpper(strings.TrimSpace(os.Getenv("LOCAL_CURRENCY"))),
		ExchangeRateBaseURL: envOr("EXCHANGE_RATE_BASE_URL", "https://api.frankfurter.app"),
		InterestEnabled:     os.Getenv("INTEREST_ENABLED") == "true",
		InterestHour:        8,
		InterestTimezone:    envOr("INTEREST_TIMEZONE", "UTC"),
		OTelExporter:        strings.ToLower(envOr("OTEL_EXPORTER", telemetry.ExporterNone)),
		OTelServiceName:     envOr("OTEL_SERVICE_NAME", "famcoin-bot"),
	}

	cfg.ParentUserIDs, errs = parseUserIDs(os.Getenv("PARENT_USER_IDS"), errs)
	cfg.ParentUsernames = parseUsernames(os.Getenv("PARENT_USERNAMES"))

	cfg.CoinDisplayRate = decimal.RequireFromString("0.01")
	if raw := strings.TrimSpace(os.Getenv("COIN_DISPLAY_RATE")); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || !rate.IsPositive() {
			errs = append(errs, fmt.Sprintf("COIN_DISPLAY_RATE must be a positive decimal, got %q", raw))
		} else {
			cfg.CoinDisplayRate = rate
		}
	}

	cfg.ExchangeRateTimeout, errs = parseDuration("EXCHANGE_RATE_TIMEOUT", 5*time.Second, errs)
	cfg.ExchangeRateCacheTTL, errs = parseDuration("EXCHANGE_RATE_CACHE_TTL", 12*time.Hour, errs)

	if raw := strings.TrimSpace(os.Getenv("INTEREST_HOUR")); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 0 || h > 23 {
			errs = append(errs, fmt.Sprintf("INTEREST_HOUR must be 0-23, got %q", raw))
		} else {
			cfg.InterestHour = h
		}
	}
	if _, err := time.LoadLocation(cfg.InterestTimezone); err != nil {
		errs = append(errs, fmt.Sprintf("INTEREST_TIMEZONE %q is not a known location", cfg.InterestTimezone))
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() []string {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if len(c.ParentUserIDs) == 0 && len(c.ParentUsernames) == 0 {
		errs = append(errs, "at least one parent (PARENT_USER_IDS or PARENT_USERNAMES) is required")
	}

	switch c.OTelExporter {
	case telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterOTLPHTTP, telemetry.ExporterOTLPGRPC:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be one of none, stdout, otlphttp, otlpgrpc, got %q", c.OTelExporter))
	}

	return errs
}

// UsesDatabase reports whether PostgreSQL storage is configured.
func (c *Config) UsesDatabase() bool {
	return c.DatabaseURL != ""
}

// Location returns the interest timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.InterestTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsParent checks if a Telegram user ID or username belongs to a parent.
func (c *Config) IsParent(userID int64, username string) bool {
	if slices.Contains(c.ParentUserIDs, userID) {
		return true
	}

	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, parent := range c.ParentUsernames {
			if strings.EqualFold(parent, username) {
				return true
			}
		}
	}

	return false
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseUserIDs(raw string, errs []string) ([]int64, []string) {
	var ids []int64
	for idStr := range strings.SplitSeq(raw, ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("PARENT_USER_IDS contains invalid id %q", idStr))
			continue
		}
		ids = append(ids, id)
	}
	return ids, errs
}

func parseUsernames(raw string) []string {
	var names []string
	for username := range strings.SplitSeq(raw, ",") {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		names = append(names, username)
	}
	return names
}

func parseDuration(key string, def time.Duration, errs []string) (time.Duration, []string) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, errs
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def, append(errs, fmt.Sprintf("%s must be a positive duration, got %q", key, raw))
	}
	return d, errs
}
