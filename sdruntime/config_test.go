package sdruntime

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()

	if cfg.GuidanceScale != 7.5 {
		t.Errorf("GuidanceScale = %v, want 7.5", cfg.GuidanceScale)
	}
	if !cfg.Warmup {
		t.Error("Warmup should default to true")
	}
	if cfg.Seed != -1 {
		t.Errorf("Seed = %d, want -1", cfg.Seed)
	}
	if cfg.NegativePrompt != "" {
		t.Errorf("NegativePrompt = %q, want empty", cfg.NegativePrompt)
	}
	if cfg.ModelID != "runwayml/stable-diffusion-v1-5" {
		t.Errorf("ModelID = %q", cfg.ModelID)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestPipelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*PipelineConfig)
		wantErr bool
	}{
		{"defaults", func(c *PipelineConfig) {}, false},
		{"guidance at minimum", func(c *PipelineConfig) { c.GuidanceScale = 1.0 }, false},
		{"guidance at maximum", func(c *PipelineConfig) { c.GuidanceScale = 30.0 }, false},
		{"guidance too low", func(c *PipelineConfig) { c.GuidanceScale = 0.5 }, true},
		{"guidance too high", func(c *PipelineConfig) { c.GuidanceScale = 31 }, true},
		{"fixed seed", func(c *PipelineConfig) { c.Seed = 42 }, false},
		{"seed below -1", func(c *PipelineConfig) { c.Seed = -2 }, true},
		{"seed above 32 bits", func(c *PipelineConfig) { c.Seed = 1 << 33 }, true},
		{"long negative prompt", func(c *PipelineConfig) { c.NegativePrompt = strings.Repeat("a", MaxPromptLength+1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Errorf("expected ErrInvalidParams, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
