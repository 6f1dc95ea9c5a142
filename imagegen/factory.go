package imagegen

import (
	"context"

	"sdweb/core"
	"sdweb/logging"
	"sdweb/sdruntime"
)

// NewBackendFactory returns the sdruntime.BackendFactory for cfg.Backend.
// Nothing is loaded or contacted until the factory is called.
func NewBackendFactory(cfg *core.Config, logger *logging.Logger) (sdruntime.BackendFactory, error) {
	if cfg == nil {
		return nil, core.ErrMissingConfig("SD_BACKEND")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	switch cfg.Backend {
	case core.BackendLocal:
		load := sdruntime.LocalBackendFactory(cfg.ModelPath)
		if !cfg.VerifyChecksum {
			return load, nil
		}
		return func(ctx context.Context) (sdruntime.Backend, error) {
			if err := sdruntime.VerifyModelChecksum(cfg.ModelPath); err != nil {
				return nil, err
			}
			return load(ctx)
		}, nil
	case core.BackendOpenAI:
		return func(ctx context.Context) (sdruntime.Backend, error) {
			return NewOpenAIBackend(cfg, logger)
		}, nil
	case core.BackendA1111:
		return func(ctx context.Context) (sdruntime.Backend, error) {
			return NewA1111Backend(cfg, logger)
		}, nil
	default:
		return nil, core.ErrUnknownBackend(cfg.Backend)
	}
}

// PipelineConfig maps the pipeline section of cfg onto sdruntime.
func PipelineConfig(cfg *core.Config) sdruntime.PipelineConfig {
	pc := sdruntime.DefaultPipelineConfig()
	if cfg == nil {
		return pc
	}
	pc.GuidanceScale = cfg.GuidanceScale
	// Warmup is a throwaway generation; against a hosted API it is a billed call.
	pc.Warmup = cfg.Warmup && !cfg.IsRemoteBackend()
	pc.NegativePrompt = cfg.NegativePrompt
	pc.Seed = cfg.Seed
	if model := cfg.ResolvedModelID(); model != "" {
		pc.ModelID = model
	}
	return pc
}

// NewPipeline is a convenience wrapper building an unbuilt sdruntime.Pipeline
// from cfg.
func NewPipeline(cfg *core.Config, logger *logging.Logger) (*sdruntime.Pipeline, error) {
	factory, err := NewBackendFactory(cfg, logger)
	if err != nil {
		return nil, err
	}
	return sdruntime.NewPipeline(factory, PipelineConfig(cfg), logger)
}
