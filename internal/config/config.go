package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port             string
	Env              string
	LogLevel         string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	SettingsCacheTTL time.Duration
	AdminJWTSecret   string

	CORSAllowedOrigins []string
	// ManualRunPerMinute caps how often one operator may trigger a cycle by hand.
	ManualRunPerMinute int

	// ClinicTimezone is either a fixed offset ("+02:00") or an IANA zone name.
	ClinicTimezone string

	RemindersEnabled     bool
	ReminderScanInterval time.Duration
	ReminderSendDelay    time.Duration
	ReminderDateFormat   string

	SMSGatewayBaseURL string
	SMSGatewayTimeout time.Duration

	PhoneCountryCode    string
	PhoneTrunkPrefix    string
	PhoneNationalLength int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		SettingsCacheTTL:     getEnvAsDuration("SETTINGS_CACHE_TTL", time.Minute),
		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS"),
		ManualRunPerMinute:   getEnvAsInt("MANUAL_RUN_PER_MINUTE", 6),
		ClinicTimezone:       getEnv("CLINIC_TIMEZONE", "+02:00"),
		RemindersEnabled:     getEnvAsBool("REMINDERS_ENABLED", true),
		ReminderScanInterval: getEnvAsDuration("REMINDER_SCAN_INTERVAL", 5*time.Minute),
		ReminderSendDelay:    getEnvAsDuration("REMINDER_SEND_DELAY", 2*time.Second),
		ReminderDateFormat:   getEnv("REMINDER_DATE_FORMAT", "02.01.2006"),
		SMSGatewayBaseURL:    getEnv("SMS_GATEWAY_BASE_URL", "https://api.textbee.dev/api/v1"),
		SMSGatewayTimeout:    getEnvAsDuration("SMS_GATEWAY_TIMEOUT", 10*time.Second),
		PhoneCountryCode:     strings.TrimPrefix(getEnv("PHONE_COUNTRY_CODE", "40"), "+"),
		PhoneTrunkPrefix:     getEnv("PHONE_TRUNK_PREFIX", "0"),
		PhoneNationalLength:  getEnvAsInt("PHONE_NATIONAL_LENGTH", 9),
	}
}

// ClinicLocation resolves ClinicTimezone. Offsets like "+02:00", "-0530" or
// "UTC+2" become fixed zones; anything else is looked up as an IANA name.
func (c *Config) ClinicLocation() (*time.Location, error) {
	return ParseLocation(c.ClinicTimezone)
}

// ParseLocation turns a fixed offset or zone name into a *time.Location.
func ParseLocation(value string) (*time.Location, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "UTC") || value == "Z" {
		return time.UTC, nil
	}
	if offset, ok := parseOffset(value); ok {
		return time.FixedZone(value, offset), nil
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil, fmt.Errorf("config: invalid clinic timezone %q: %w", value, err)
	}
	return loc, nil
}

// parseOffset returns the offset in seconds east of UTC.
func parseOffset(value string) (int, bool) {
	upper := strings.ToUpper(value)
	upper = strings.TrimPrefix(upper, "UTC")
	upper = strings.TrimPrefix(upper, "GMT")
	if upper == "" || (upper[0] != '+' && upper[0] != '-') {
		return 0, false
	}
	sign := 1
	if upper[0] == '-' {
		sign = -1
	}
	rest := strings.ReplaceAll(upper[1:], ":", "")
	var hours, minutes int
	var err error
	switch len(rest) {
	case 1, 2:
		hours, err = strconv.Atoi(rest)
	case 3, 4:
		hours, err = strconv.Atoi(rest[:len(rest)-2])
		if err == nil {
			minutes, err = strconv.Atoi(rest[len(rest)-2:])
		}
	default:
		return 0, false
	}
	if err != nil || hours > 14 || minutes > 59 {
		return 0, false
	}
	return sign * (hours*3600 + minutes*60), true
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
