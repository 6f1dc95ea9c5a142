package sdruntime

import (
	"context"
	"fmt"
	"sync"
)

// BackendLocal is the Kind reported by the in-process backend.
const BackendLocal = "local"

// LocalBackend runs generation in-process through stable-diffusion.cpp.
type LocalBackend struct {
	mu        sync.Mutex
	sdCtx     *SDContext
	modelPath string
}

// NewLocalBackend loads the model at modelPath. It returns ErrModelNotFound
// when the file does not exist.
func NewLocalBackend(modelPath string) (*LocalBackend, error) {
	sdCtx, err := LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	return &LocalBackend{sdCtx: sdCtx, modelPath: modelPath}, nil
}

// LocalBackendFactory returns a BackendFactory that loads modelPath.
func LocalBackendFactory(modelPath string) BackendFactory {
	return func(ctx context.Context) (Backend, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewLocalBackend(modelPath)
	}
}

// Txt2Img runs one generation. The native call cannot be interrupted, so ctx
// is only checked before it starts.
func (b *LocalBackend) Txt2Img(ctx context.Context, params GenerateParams) (*BackendImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.sdCtx.IsValid() {
		return nil, ErrPipelineClosed
	}
	return GenerateImage(b.sdCtx, params)
}

// Info describes the loaded model and compute backend.
func (b *LocalBackend) Info() BackendInfo {
	return BackendInfo{
		Kind:   BackendLocal,
		Model:  b.modelPath,
		Detail: GetBackendInfo(),
	}
}

// Close frees the native context. Calling it twice is safe.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	FreeContext(b.sdCtx)
	b.sdCtx = nil
	return nil
}
