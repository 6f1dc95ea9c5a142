package sdruntime

import "fmt"

// Pipeline defaults, taken from the reference diffusers setup.
const (
	DefaultGuidanceScale = 7.5
	DefaultModelID       = "runwayml/stable-diffusion-v1-5"
)

// PipelineConfig is the fixed configuration applied to every generation.
// The HTTP layer only controls prompt, steps and size.
type PipelineConfig struct {
	GuidanceScale  float64 // classifier-free guidance (1.0-30.0)
	Warmup         bool    // run a 1-step pass before the real one
	NegativePrompt string
	Seed           int64  // -1 picks a random seed per call
	ModelID        string // informational, used as model name by remote backends
}

// DefaultPipelineConfig returns the configuration used when nothing is set.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		GuidanceScale: DefaultGuidanceScale,
		Warmup:        true,
		Seed:          -1,
		ModelID:       DefaultModelID,
	}
}

// Validate checks the fixed values against backend limits.
func (c PipelineConfig) Validate() error {
	if c.GuidanceScale < MinCFGScale || c.GuidanceScale > MaxCFGScale {
		return fmt.Errorf("%w: guidance scale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, c.GuidanceScale, MinCFGScale, MaxCFGScale)
	}
	if len(c.NegativePrompt) > MaxPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(c.NegativePrompt), MaxPromptLength)
	}
	if c.Seed < -1 || c.Seed > maxSeed {
		return fmt.Errorf("%w: seed %d must be -1 or between 0 and %d",
			ErrInvalidParams, c.Seed, int64(maxSeed))
	}
	return nil
}
