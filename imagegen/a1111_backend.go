// a1111_backend.go implements the A1111Backend molecule: txt2img against an
// AUTOMATIC1111-style web API (POST /sdapi/v1/txt2img).
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sdweb/core"
	"sdweb/logging"
	"sdweb/sdruntime"
)

const (
	a1111Txt2ImgPath = "/sdapi/v1/txt2img"

	// maxErrorBody bounds how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

// txt2ImgRequest is the subset of the A1111 request body we set.
type txt2ImgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CFGScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	SamplerName    string  `json:"sampler_name,omitempty"`
	BatchSize      int     `json:"batch_size"`
	NIter          int     `json:"n_iter"`
}

// txt2ImgResponse carries base64 images and a JSON-encoded info string.
type txt2ImgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

type txt2ImgInfo struct {
	Seed *int64 `json:"seed"`
}

// A1111Backend implements sdruntime.Backend over HTTP.
//
// Thread Safety: safe for concurrent use.
type A1111Backend struct {
	client   *http.Client
	baseURL  string
	endpoint string
	model    string
	sampler  string
	logger   *logging.Logger
}

// NewA1111Backend creates a backend for cfg.ResolvedAPIURL().
func NewA1111Backend(cfg *core.Config, logger *logging.Logger) (*A1111Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	baseURL := cfg.ResolvedAPIURL()
	if baseURL == "" {
		baseURL = core.DefaultA1111URL
	}

	return &A1111Backend{
		client:   core.GetHTTPClient(cfg, cfg.Timeout),
		baseURL:  baseURL,
		endpoint: JoinEndpoint(baseURL, a1111Txt2ImgPath),
		model:    cfg.ResolvedModelID(),
		sampler:  cfg.Sampler,
		logger:   logger.Named("a1111"),
	}, nil
}

// Txt2Img posts one txt2img request and returns the first image.
func (b *A1111Backend) Txt2Img(ctx context.Context, params sdruntime.GenerateParams) (*sdruntime.BackendImage, error) {
	if err := sdruntime.ValidateParams(params); err != nil {
		return nil, err
	}

	body, err := json.Marshal(txt2ImgRequest{
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Steps:          params.Steps,
		Width:          params.Width,
		Height:         params.Height,
		CFGScale:       params.CFGScale,
		Seed:           params.Seed,
		SamplerName:    b.sampler,
		BatchSize:      1,
		NIter:          1,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", sdruntime.ErrGenerationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sdruntime.ErrGenerationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	b.logger.Debug("posting txt2img",
		zap.String("endpoint", b.endpoint),
		zap.Int("steps", params.Steps),
		zap.Int64("seed", params.Seed))

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, RequestError("txt2img request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: txt2img returned %d: %s",
			sdruntime.ErrGenerationFailed, resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	var out txt2ImgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode txt2img response: %v", sdruntime.ErrGenerationFailed, err)
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("%w: txt2img returned no images", sdruntime.ErrGenerationFailed)
	}

	data, err := DecodeBase64Image(out.Images[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sdruntime.ErrGenerationFailed, err)
	}

	return &sdruntime.BackendImage{Data: data, Seed: infoSeed(out.Info, params.Seed)}, nil
}

// infoSeed extracts the seed A1111 reports in its info string, falling back
// to the requested one.
func infoSeed(info string, requested int64) int64 {
	if info == "" {
		return requested
	}
	var parsed txt2ImgInfo
	if err := json.Unmarshal([]byte(info), &parsed); err != nil || parsed.Seed == nil || *parsed.Seed < 0 {
		return requested
	}
	return *parsed.Seed
}

// Info describes the endpoint and model.
func (b *A1111Backend) Info() sdruntime.BackendInfo {
	return sdruntime.BackendInfo{
		Kind:   core.BackendA1111,
		Model:  b.model,
		Detail: b.baseURL,
	}
}

// Close releases idle connections.
func (b *A1111Backend) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

var _ sdruntime.Backend = (*A1111Backend)(nil)
