package sdruntime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sdweb/logging"
)

// Pipeline is the model wrapper: it holds a lazily built Backend and runs
// generations with the fixed PipelineConfig.
//
// Build must be called before Generate. Generations are serialized.
type Pipeline struct {
	factory BackendFactory
	cfg     PipelineConfig
	logger  *logging.Logger

	// lifecycle guards backend; Generate holds it shared, Build and Close exclusively
	lifecycle sync.RWMutex
	backend   Backend
	genMu     sync.Mutex

	ready atomic.Bool
	info  atomic.Pointer[BackendInfo]
}

// NewPipeline creates an unbuilt pipeline. A nil logger discards output.
func NewPipeline(factory BackendFactory, cfg PipelineConfig, logger *logging.Logger) (*Pipeline, error) {
	if factory == nil {
		return nil, errors.New("sdruntime: backend factory is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		factory: factory,
		cfg:     cfg,
		logger:  logger.Named("pipeline"),
	}, nil
}

// Build constructs the backend once. Calling it on a built pipeline is a
// no-op. A failed build leaves the pipeline unbuilt.
func (p *Pipeline) Build(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.backend != nil {
		return nil
	}

	start := time.Now()
	backend, err := p.factory(ctx)
	if err != nil {
		if !isSentinel(err) {
			err = fmt.Errorf("%w: %v", ErrModelLoadFailed, err)
		}
		p.logger.Error("pipeline build failed", zap.Error(err))
		return err
	}

	info := backend.Info()
	p.backend = backend
	p.info.Store(&info)
	p.ready.Store(true)

	p.logger.Info("pipeline built",
		zap.String("backend", info.String()),
		zap.String("model_id", p.cfg.ModelID),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Generate renders prompt at width x height with the given step count and
// writes the PNG to outputPath, replacing any previous file.
//
// When warmup is enabled a 1-step pass at the same size runs first and its
// error, if any, is ignored. Backend failures are returned as is.
func (p *Pipeline) Generate(ctx context.Context, prompt string, steps, height, width int, outputPath string) (*GenerateResult, error) {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	if p.backend == nil {
		return nil, ErrNotInitialized
	}
	if outputPath == "" {
		return nil, fmt.Errorf("%w: output path is empty", ErrOutputWrite)
	}

	params := GenerateParams{
		Prompt:         prompt,
		NegativePrompt: p.cfg.NegativePrompt,
		Width:          width,
		Height:         height,
		Steps:          steps,
		CFGScale:       p.cfg.GuidanceScale,
		Seed:           ResolveSeed(p.cfg.Seed),
	}
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	p.genMu.Lock()
	defer p.genMu.Unlock()

	if p.cfg.Warmup {
		p.warmup(ctx, params)
	}

	p.logger.Debug("generating image",
		zap.String("prompt", prompt),
		zap.Int("steps", steps),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int64("seed", params.Seed))

	start := time.Now()
	img, err := p.backend.Txt2Img(ctx, params)
	duration := time.Since(start)
	if err != nil {
		return nil, err
	}
	if img == nil || len(img.Data) == 0 {
		return nil, fmt.Errorf("%w: backend returned no image", ErrGenerationFailed)
	}

	data, err := NormalizeImage(img.Data, width, height)
	if err != nil {
		return nil, err
	}
	if err := ValidateImageData(data); err != nil {
		return nil, err
	}
	if err := WriteImageFile(outputPath, data); err != nil {
		return nil, err
	}

	seed := params.Seed
	if img.Seed >= 0 {
		seed = img.Seed
	}

	p.logger.Info("image generated", logging.GenerationFields(logging.GenerationMetrics{
		Backend:      p.backend.Info().Kind,
		PromptLength: len(prompt),
		Steps:        steps,
		Width:        width,
		Height:       height,
		Seed:         seed,
		Warmup:       p.cfg.Warmup,
		Duration:     duration,
		OutputPath:   outputPath,
		OutputBytes:  len(data),
	}))

	return &GenerateResult{
		ImageData: data,
		Width:     width,
		Height:    height,
		Seed:      seed,
		Path:      outputPath,
		Duration:  duration,
	}, nil
}

func (p *Pipeline) warmup(ctx context.Context, params GenerateParams) {
	params.Prompt = "warmup"
	params.NegativePrompt = ""
	params.Steps = WarmupSteps

	start := time.Now()
	if _, err := p.backend.Txt2Img(ctx, params); err != nil {
		p.logger.Debug("warmup pass failed, continuing", zap.Error(err))
		return
	}
	p.logger.Debug("warmup pass complete", zap.Duration("duration", time.Since(start)))
}

// Close releases the backend. The pipeline can be built again afterwards.
func (p *Pipeline) Close() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.backend == nil {
		return nil
	}
	err := p.backend.Close()
	p.backend = nil
	p.ready.Store(false)
	p.info.Store(nil)
	if err != nil {
		return fmt.Errorf("sdruntime: close backend: %w", err)
	}
	return nil
}

// IsBuilt reports whether Build has succeeded and Close has not been called.
// It never blocks on a running generation.
func (p *Pipeline) IsBuilt() bool {
	return p.ready.Load()
}

// BackendInfo describes the built backend. The zero value is returned when
// the pipeline is not built.
func (p *Pipeline) BackendInfo() BackendInfo {
	if info := p.info.Load(); info != nil {
		return *info
	}
	return BackendInfo{}
}

// Config returns the fixed configuration.
func (p *Pipeline) Config() PipelineConfig {
	return p.cfg
}
