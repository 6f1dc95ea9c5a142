package imagegen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sdweb/core"
	"sdweb/sdruntime"
)

func TestNewBackendFactory(t *testing.T) {
	tests := []struct {
		name     string
		backend  string
		apiURL   string
		wantKind string
	}{
		{"openai compatible", core.BackendOpenAI, "http://localhost:8080/v1", core.BackendOpenAI},
		{"a1111", core.BackendA1111, "http://127.0.0.1:7860", core.BackendA1111},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := core.DefaultConfig()
			cfg.Backend = tt.backend
			cfg.APIURL = tt.apiURL

			factory, err := NewBackendFactory(cfg, nil)
			if err != nil {
				t.Fatalf("NewBackendFactory: %v", err)
			}
			backend, err := factory(context.Background())
			if err != nil {
				t.Fatalf("factory: %v", err)
			}
			defer backend.Close()

			if got := backend.Info().Kind; got != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got, tt.wantKind)
			}
		})
	}
}

func TestNewBackendFactory_Local(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ModelPath = filepath.Join(t.TempDir(), "missing.safetensors")

	factory, err := NewBackendFactory(cfg, nil)
	if err != nil {
		t.Fatalf("NewBackendFactory: %v", err)
	}
	if _, err := factory(context.Background()); !errors.Is(err, sdruntime.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestNewBackendFactory_LocalChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "registered.safetensors")
	if err := os.WriteFile(modelPath, []byte("not the real weights"), 0644); err != nil {
		t.Fatal(err)
	}
	sdruntime.RegisterModelChecksum("registered.safetensors", "0000000000000000000000000000000000000000000000000000000000000000")

	cfg := core.DefaultConfig()
	cfg.ModelPath = modelPath
	cfg.VerifyChecksum = true

	factory, err := NewBackendFactory(cfg, nil)
	if err != nil {
		t.Fatalf("NewBackendFactory: %v", err)
	}
	if _, err := factory(context.Background()); !errors.Is(err, sdruntime.ErrModelCorrupted) {
		t.Errorf("expected ErrModelCorrupted, got %v", err)
	}
}

func TestNewBackendFactory_Errors(t *testing.T) {
	if _, err := NewBackendFactory(nil, nil); err == nil {
		t.Error("expected error for nil config")
	}

	cfg := core.DefaultConfig()
	cfg.Backend = "comfyui"
	_, err := NewBackendFactory(cfg, nil)
	if code := core.GetErrorCode(err); code != core.ErrCodeUnknownBackend {
		t.Errorf("error code = %q, want %q", code, core.ErrCodeUnknownBackend)
	}
}

func TestPipelineConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.GuidanceScale = 9
	cfg.Warmup = false
	cfg.NegativePrompt = "blurry"
	cfg.Seed = 5
	cfg.ModelID = "sdxl"

	pc := PipelineConfig(cfg)
	want := sdruntime.PipelineConfig{
		GuidanceScale:  9,
		Warmup:         false,
		NegativePrompt: "blurry",
		Seed:           5,
		ModelID:        "sdxl",
	}
	if pc != want {
		t.Errorf("PipelineConfig = %+v, want %+v", pc, want)
	}

	if PipelineConfig(nil) != sdruntime.DefaultPipelineConfig() {
		t.Error("nil config should map to defaults")
	}
	if PipelineConfig(core.DefaultConfig()) != sdruntime.DefaultPipelineConfig() {
		t.Error("default core config should map to default pipeline config")
	}
}

func TestPipelineConfig_WarmupLocalOnly(t *testing.T) {
	tests := []struct {
		backend string
		want    bool
	}{
		{core.BackendLocal, true},
		{core.BackendOpenAI, false},
		{core.BackendA1111, false},
	}
	for _, tt := range tests {
		cfg := core.DefaultConfig()
		cfg.Backend = tt.backend
		if got := PipelineConfig(cfg).Warmup; got != tt.want {
			t.Errorf("%s: Warmup = %v, want %v", tt.backend, got, tt.want)
		}
	}
}

func TestPipelineConfig_OpenAIModel(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Backend = core.BackendOpenAI
	if got := PipelineConfig(cfg).ModelID; got != core.DefaultOpenAIImageModel {
		t.Errorf("ModelID = %q, want %q", got, core.DefaultOpenAIImageModel)
	}
}

func TestNewPipeline(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Backend = core.BackendA1111

	p, err := NewPipeline(cfg, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if p.IsBuilt() {
		t.Error("pipeline must not be built before Build")
	}
	if err := p.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer p.Close()
	if got := p.BackendInfo().Kind; got != core.BackendA1111 {
		t.Errorf("Kind = %q", got)
	}
}
