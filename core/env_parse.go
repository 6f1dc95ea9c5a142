package core

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvOrDefault returns the value of an environment variable, or defaultValue
// when it is unset or empty.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// ParseIntEnv parses an environment variable as an integer.
// Returns the default value if the variable is not set or cannot be parsed.
func ParseIntEnv(key string, defaultValue int) int {
	if value := GetEnvOrDefault(key, ""); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ParseInt64Env parses an environment variable as an int64.
// SD_SEED uses this so negative seeds (-1 = random) round-trip.
func ParseInt64Env(key string, defaultValue int64) int64 {
	if value := GetEnvOrDefault(key, ""); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ParseFloat64Env parses an environment variable as a float64.
func ParseFloat64Env(key string, defaultValue float64) float64 {
	if value := GetEnvOrDefault(key, ""); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// ParseBoolEnv parses an environment variable as a boolean.
// Accepts "true", "1", "yes", "on" and "false", "0", "no", "off" in any case.
// Anything else yields the default.
func ParseBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(GetEnvOrDefault(key, "")) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ParseDurationEnv parses an environment variable holding whole seconds.
func ParseDurationEnv(key string, defaultSeconds int) time.Duration {
	return time.Duration(ParseIntEnv(key, defaultSeconds)) * time.Second
}
