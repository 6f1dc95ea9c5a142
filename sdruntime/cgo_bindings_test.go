package sdruntime

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// createTempModelFile writes a placeholder model file. The stub only checks
// that the file exists.
func createTempModelFile(t *testing.T) string {
	t.Helper()
	modelPath := filepath.Join(t.TempDir(), "sd-test.safetensors")
	if err := os.WriteFile(modelPath, []byte("fake model data"), 0644); err != nil {
		t.Fatalf("failed to create temp model file: %v", err)
	}
	return modelPath
}

func isStubMode() bool {
	return GetBackendInfo() == StubBackendInfo
}

func TestLoadModel_FileNotFound(t *testing.T) {
	_, err := LoadModel("/nonexistent/path/to/model.safetensors")
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected error to wrap ErrModelNotFound, got: %v", err)
	}
}

func TestLoadModel_StubLifecycle(t *testing.T) {
	if !isStubMode() {
		t.Skip("requires stub build")
	}
	modelPath := createTempModelFile(t)

	ctx, err := LoadModel(modelPath)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if !ctx.IsValid() {
		t.Error("expected context to be valid")
	}
	if ctx.ModelPath() != modelPath {
		t.Errorf("expected model path %s, got %s", modelPath, ctx.ModelPath())
	}

	_, err = GenerateImage(ctx, validParams())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("stub generation: expected ErrGenerationFailed, got: %v", err)
	}

	FreeContext(ctx)
	if ctx.IsValid() {
		t.Error("expected context to be invalid after FreeContext")
	}
	FreeContext(ctx) // second free is a no-op
}

func TestGenerateImage_InvalidContext(t *testing.T) {
	_, err := GenerateImage(nil, validParams())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got: %v", err)
	}
}

func TestGenerateImage_ValidatesParams(t *testing.T) {
	p := validParams()
	p.Steps = 0
	if _, err := GenerateImage(&SDContext{valid: true}, p); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got: %v", err)
	}
}

func TestSDContext_NilSafe(t *testing.T) {
	var ctx *SDContext
	if ctx.IsValid() {
		t.Error("nil context should not be valid")
	}
	if ctx.ModelPath() != "" {
		t.Error("nil context should have empty model path")
	}
	FreeContext(nil)
}
