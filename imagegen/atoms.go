// Package imagegen provides remote text-to-image backends for sdruntime and
// the factory that picks a backend from configuration.
//
// atoms.go contains pure helpers with no I/O.
package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"sdweb/sdruntime"
)

// IsOpenAIEndpoint reports whether endpoint is the hosted OpenAI API.
// Matching is case-insensitive on the host.
//
// Example:
//
//	IsOpenAIEndpoint("https://api.openai.com/v1")  // true
//	IsOpenAIEndpoint("http://localhost:8080/v1")   // false (LocalAI)
func IsOpenAIEndpoint(endpoint string) bool {
	return strings.EqualFold(endpointHost(endpoint), "api.openai.com")
}

// IsLocalEndpoint reports whether endpoint points at this machine or a
// private network address.
//
// Example:
//
//	IsLocalEndpoint("http://127.0.0.1:7860")     // true
//	IsLocalEndpoint("http://192.168.1.20:7860")  // true
//	IsLocalEndpoint("https://api.openai.com/v1") // false
func IsLocalEndpoint(endpoint string) bool {
	host := strings.ToLower(endpointHost(endpoint))
	if host == "" {
		return false
	}
	return host == "localhost" ||
		host == "0.0.0.0" ||
		host == "::1" ||
		strings.HasPrefix(host, "127.") ||
		strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "192.168.")
}

// RequiresAPIKey reports whether requests to endpoint need a bearer key.
// The hosted OpenAI API does; self-hosted OpenAI-compatible servers usually
// do not.
func RequiresAPIKey(endpoint string) bool {
	return IsOpenAIEndpoint(endpoint)
}

// JoinEndpoint appends path to base with exactly one slash between them.
//
//	JoinEndpoint("http://127.0.0.1:7860/", "/sdapi/v1/txt2img")
//	// "http://127.0.0.1:7860/sdapi/v1/txt2img"
func JoinEndpoint(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// ImageSize formats a size the way the OpenAI images API expects.
func ImageSize(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// CombinePrompt joins prompt and negative prompt with '|', the convention
// OpenAI-compatible diffusion servers use to carry a negative prompt.
// The prompt is returned unchanged when negative is blank.
func CombinePrompt(prompt, negative string) string {
	if strings.TrimSpace(negative) == "" {
		return prompt
	}
	return prompt + "|" + negative
}

// DecodeBase64Image decodes a base64 image payload. A leading data URL
// header ("data:image/png;base64,") is accepted and stripped.
func DecodeBase64Image(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	if s == "" {
		return nil, fmt.Errorf("imagegen: empty base64 image")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("imagegen: invalid base64 image: %w", err)
	}
	return data, nil
}

// RequestError wraps a failed backend round trip. Deadlines and client
// timeouts become sdruntime.ErrGenerationTimeout, everything else
// sdruntime.ErrGenerationFailed.
func RequestError(what string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", sdruntime.ErrGenerationTimeout, what, err)
	}
	return fmt.Errorf("%w: %s: %v", sdruntime.ErrGenerationFailed, what, err)
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
