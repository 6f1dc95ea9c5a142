package core

import (
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	const key = "SDWEB_TEST_STRING"

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"returns env value when set", "custom", "custom"},
		{"returns default when empty", "", "default"},
		{"returns default when blank", "   ", "default"},
		{"trims surrounding space", "  padded ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := GetEnvOrDefault(key, "default"); got != tt.want {
				t.Errorf("GetEnvOrDefault() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseIntEnv(t *testing.T) {
	const key = "SDWEB_TEST_INT"

	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"parses valid integer", "5000", 5000},
		{"parses negative integer", "-10", -10},
		{"returns default for invalid", "not_a_number", 99},
		{"returns default when empty", "", 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := ParseIntEnv(key, 99); got != tt.want {
				t.Errorf("ParseIntEnv() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseInt64Env(t *testing.T) {
	const key = "SDWEB_TEST_INT64"

	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"parses random seed marker", "-1", -1},
		{"parses large seed", "9223372036854775807", 9223372036854775807},
		{"returns default for invalid", "seed", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := ParseInt64Env(key, 42); got != tt.want {
				t.Errorf("ParseInt64Env() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseFloat64Env(t *testing.T) {
	const key = "SDWEB_TEST_FLOAT"

	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"parses float", "7.5", 7.5},
		{"parses integer as float", "12", 12.0},
		{"returns default for invalid", "high", 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := ParseFloat64Env(key, 2.5); got != tt.want {
				t.Errorf("ParseFloat64Env() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestParseBoolEnv(t *testing.T) {
	const key = "SDWEB_TEST_BOOL"

	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{name: "true lowercase", value: "true", want: true},
		{name: "TRUE uppercase", value: "TRUE", want: true},
		{name: "1", value: "1", want: true},
		{name: "yes", value: "yes", want: true},
		{name: "on", value: "ON", want: true},
		{name: "false", value: "false", defaultValue: true, want: false},
		{name: "0", value: "0", defaultValue: true, want: false},
		{name: "no", value: "no", defaultValue: true, want: false},
		{name: "off", value: "off", defaultValue: true, want: false},
		{name: "empty returns default", value: "", defaultValue: true, want: true},
		{name: "invalid returns default", value: "maybe", defaultValue: true, want: true},
		{name: "whitespace handled", value: "  true  ", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := ParseBoolEnv(key, tt.defaultValue); got != tt.want {
				t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseDurationEnv(t *testing.T) {
	const key = "SDWEB_TEST_DURATION"

	t.Setenv(key, "45")
	if got := ParseDurationEnv(key, 30); got != 45*time.Second {
		t.Errorf("ParseDurationEnv() = %v, want 45s", got)
	}

	t.Setenv(key, "")
	if got := ParseDurationEnv(key, 30); got != 30*time.Second {
		t.Errorf("ParseDurationEnv() = %v, want 30s", got)
	}
}
