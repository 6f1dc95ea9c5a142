package webui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Request defaults applied when a field is absent.
const (
	DefaultPrompt = "a beautiful landscape"
	DefaultSteps  = 20
	DefaultHeight = 512
	DefaultWidth  = 512
)

// maxRequestBody bounds the generate request body.
const maxRequestBody = 1 << 20

// GenerateRequest is the decoded body of POST /api/generate.
type GenerateRequest struct {
	Prompt string
	Steps  int
	Height int
	Width  int
}

// rawGenerateRequest mirrors the JSON body. Raw values keep an absent field
// (nil) apart from an explicit null, which is an error.
type rawGenerateRequest struct {
	Prompt json.RawMessage `json:"prompt"`
	Steps  json.RawMessage `json:"steps"`
	Height json.RawMessage `json:"height"`
	Width  json.RawMessage `json:"width"`
}

// DecodeGenerateRequest reads a generate request from r and fills in
// defaults for absent fields. The body must be a JSON object. Numeric fields
// accept JSON numbers (truncated toward zero), numeric strings and booleans
// (1 or 0); null or any other type is an error.
func DecodeGenerateRequest(r io.Reader) (GenerateRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxRequestBody+1))
	if err != nil {
		return GenerateRequest{}, fmt.Errorf("read request body: %w", err)
	}
	if len(body) > maxRequestBody {
		return GenerateRequest{}, fmt.Errorf("request body exceeds %d bytes", maxRequestBody)
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return GenerateRequest{}, fmt.Errorf("request body must be a JSON object")
	}

	var raw rawGenerateRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return GenerateRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	req := GenerateRequest{
		Prompt: DefaultPrompt,
		Steps:  DefaultSteps,
		Height: DefaultHeight,
		Width:  DefaultWidth,
	}
	if raw.Prompt != nil {
		if req.Prompt, err = parsePrompt(raw.Prompt); err != nil {
			return GenerateRequest{}, err
		}
	}
	for _, f := range []struct {
		name string
		raw  json.RawMessage
		dst  *int
	}{
		{"steps", raw.Steps, &req.Steps},
		{"height", raw.Height, &req.Height},
		{"width", raw.Width, &req.Width},
	} {
		if f.raw == nil {
			continue
		}
		n, err := parseFlexInt(f.raw)
		if err != nil {
			return GenerateRequest{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = n
	}
	return req, nil
}

func parsePrompt(data json.RawMessage) (string, error) {
	if isNull(data) {
		return "", fmt.Errorf("prompt: expected a string, got null")
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("prompt: expected a string, got %s", bytes.TrimSpace(data))
	}
	return s, nil
}

// parseFlexInt decodes a JSON number, numeric string or boolean into an
// integer. Values beyond the int32 range saturate; clamping brings them into
// range afterwards.
func parseFlexInt(data json.RawMessage) (int, error) {
	s := string(bytes.TrimSpace(data))
	switch {
	case s == "null":
		return 0, fmt.Errorf("expected a number, got null")
	case s == "true":
		return 1, nil
	case s == "false":
		return 0, nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return 0, err
		}
		str = strings.TrimSpace(str)
		n, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid literal for integer: %q", str)
		}
		return saturate(float64(n)), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %s", s)
	}
	return saturate(math.Trunc(v)), nil
}

func isNull(data json.RawMessage) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

func saturate(v float64) int {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}
