// openai_backend.go implements the OpenAIBackend molecule: txt2img over any
// OpenAI-compatible /v1/images/generations endpoint (OpenAI, LocalAI).
package imagegen

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"sdweb/core"
	"sdweb/logging"
	"sdweb/sdruntime"
)

// OpenAIBackend implements sdruntime.Backend with the go-openai client.
//
// The images API has no notion of steps or guidance, so both are ignored.
// Images are requested as b64_json so no second download is needed.
//
// Thread Safety: safe for concurrent use.
type OpenAIBackend struct {
	client  *openai.Client
	baseURL string
	model   string
	logger  *logging.Logger
}

// NewOpenAIBackend creates a backend from configuration. The hosted OpenAI
// API requires SD_API_KEY; self-hosted endpoints accept an empty key.
func NewOpenAIBackend(cfg *core.Config, logger *logging.Logger) (*OpenAIBackend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	endpoint := cfg.ResolvedAPIURL()
	if endpoint == "" {
		endpoint = core.DefaultOpenAIURL
	}
	if cfg.APIKey == "" && RequiresAPIKey(endpoint) {
		return nil, core.ErrMissingAuth(endpoint)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = endpoint
	clientConfig.HTTPClient = core.GetHTTPClient(cfg, cfg.Timeout)

	model := cfg.ResolvedModelID()
	if model == "" {
		model = core.DefaultOpenAIImageModel
	}

	return &OpenAIBackend{
		client:  openai.NewClientWithConfig(clientConfig),
		baseURL: endpoint,
		model:   model,
		logger:  logger.Named("openai"),
	}, nil
}

// Txt2Img requests one image of the exact size in params.
func (b *OpenAIBackend) Txt2Img(ctx context.Context, params sdruntime.GenerateParams) (*sdruntime.BackendImage, error) {
	if err := sdruntime.ValidateParams(params); err != nil {
		return nil, err
	}

	req := openai.ImageRequest{
		Prompt:         CombinePrompt(params.Prompt, params.NegativePrompt),
		Model:          b.model,
		Size:           ImageSize(params.Width, params.Height),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		N:              1,
	}

	b.logger.Debug("requesting image",
		zap.String("endpoint", b.baseURL),
		zap.String("model", b.model),
		zap.String("size", req.Size))

	response, err := b.client.CreateImage(ctx, req)
	if err != nil {
		return nil, RequestError("openai images request", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("%w: openai returned empty Data array", sdruntime.ErrGenerationFailed)
	}
	if response.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("%w: openai returned no b64_json image", sdruntime.ErrGenerationFailed)
	}

	data, err := DecodeBase64Image(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sdruntime.ErrGenerationFailed, err)
	}
	return &sdruntime.BackendImage{Data: data, Seed: params.Seed}, nil
}

// Info describes the endpoint and model.
func (b *OpenAIBackend) Info() sdruntime.BackendInfo {
	return sdruntime.BackendInfo{
		Kind:   core.BackendOpenAI,
		Model:  b.model,
		Detail: b.baseURL,
	}
}

// Close is a no-op; the HTTP client holds no per-backend resources.
func (b *OpenAIBackend) Close() error {
	return nil
}

var _ sdruntime.Backend = (*OpenAIBackend)(nil)
