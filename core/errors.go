package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeConfigFileMissing = "CONFIG_FILE_MISSING"
	ErrCodeInvalidConfigFile = "INVALID_CONFIG_FILE"
	ErrCodeMissingConfig     = "MISSING_CONFIG"
	ErrCodeInvalidValue      = "INVALID_VALUE"
	ErrCodeUnknownBackend    = "UNKNOWN_BACKEND"
	ErrCodeModelMissing      = "MODEL_MISSING"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeMissingAuth       = "MISSING_AUTH"
)

// ErrConfigFileMissing returns an error for a SDWEB_CONFIG_FILE that does not exist
func ErrConfigFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfigFileMissing,
		Message: fmt.Sprintf("Configuration file not found: %s", path),
		Action:  "Fix SDWEB_CONFIG_FILE or unset it to use environment variables only",
	}
}

// ErrInvalidConfigFile returns an error for a YAML file that cannot be parsed
func ErrInvalidConfigFile(path, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidConfigFile,
		Message: fmt.Sprintf("Configuration file %s is not valid YAML: %s", path, reason),
		Action:  "Check the file against the documented server/output/log/pipeline sections",
	}
}

// ErrMissingConfig returns an error for missing required configuration
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// ErrInvalidValue returns an error for a configuration value out of range
func ErrInvalidValue(varName, value, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s '%s': %s", varName, value, reason),
		Action:  fmt.Sprintf("Correct %s in your .env file", varName),
	}
}

// ErrUnknownBackend returns an error for an unsupported SD_BACKEND
func ErrUnknownBackend(kind string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownBackend,
		Message: fmt.Sprintf("Unknown image backend '%s'", kind),
		Action:  fmt.Sprintf("Set SD_BACKEND to one of: %s, %s, %s", BackendLocal, BackendOpenAI, BackendA1111),
	}
}

// ErrModelMissing returns an error when the local model file is absent
func ErrModelMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeModelMissing,
		Message: fmt.Sprintf("Model file not found: %s", path),
		Action:  "Download the model and point SD_MODEL_PATH at it, or choose a remote SD_BACKEND",
	}
}

// ErrInvalidURL returns an error for an invalid backend URL
func ErrInvalidURL(url, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidURL,
		Message: fmt.Sprintf("Invalid SD_API_URL '%s': %s", url, reason),
		Action:  "Set SD_API_URL to a valid http(s) URL (e.g., http://127.0.0.1:7860)",
	}
}

// ErrMissingAuth returns an error for missing authentication credentials
func ErrMissingAuth(service string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingAuth,
		Message: fmt.Sprintf("Missing authentication credentials for %s", service),
		Action:  "Set SD_API_KEY in your .env file",
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error if it's a ConfigError
func GetErrorCode(err error) string {
	if configErr, ok := IsConfigError(err); ok {
		return configErr.Code
	}
	return ""
}
