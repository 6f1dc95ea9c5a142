package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder is the string used to replace sensitive data
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns detect credentials inside free-form values such as error
// strings returned by remote backends. Bare hex runs are not matched so
// SHA-256 model digests stay readable in checksum errors.
var sensitivePatterns = []*regexp.Regexp{
	// OpenAI keys: sk-... (legacy) or sk-proj-... (project-scoped)
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),
	regexp.MustCompile(`(?i)(hf_[a-zA-Z0-9]{30,})`),          // Hugging Face tokens
	regexp.MustCompile(`(?i)(r8_[a-zA-Z0-9]{30,})`),          // Replicate tokens
	regexp.MustCompile(`(?i)(ghp_[a-zA-Z0-9]{36})`),          // GitHub tokens
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`), // Bearer tokens

	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(apikey\s*[:=]\s*[^\s,;]{8,})`),
}

// sensitiveFieldNames are substrings of field or env var names whose values
// are always redacted.
var sensitiveFieldNames = []string{
	"SD_API_KEY",
	"OPENAI_API_KEY",
	"AUTHORIZATION",
	"PASSWORD",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
}

// RedactSensitiveData replaces every credential-looking substring in value.
//
// Example:
//
//	RedactSensitiveData("openai: invalid key sk-abc123def456...")
//	// "openai: invalid key [REDACTED]"
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// RedactField redacts a value outright when its field name is sensitive, and
// scans it for credential patterns otherwise.
func RedactField(fieldName, fieldValue string) string {
	if IsSensitiveField(fieldName) {
		return RedactedPlaceholder
	}
	return RedactSensitiveData(fieldValue)
}

// IsSensitiveField returns true if the field name indicates sensitive data.
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)
	for _, name := range sensitiveFieldNames {
		if strings.Contains(upperName, name) {
			return true
		}
	}
	return false
}

// ContainsSensitiveData returns true if the value matches any credential pattern.
func ContainsSensitiveData(value string) bool {
	if value == "" {
		return false
	}

	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}
