package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateBackendURL validates that a URL has a valid format with http or https scheme.
//
// Returns nil if the URL is valid, or an error describing the validation failure.
func ValidateBackendURL(backendURL string) error {
	backendURL = strings.TrimSpace(backendURL)

	if backendURL == "" {
		return fmt.Errorf("backend URL cannot be empty")
	}

	parsedURL, err := url.Parse(backendURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme, got: %q", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}
