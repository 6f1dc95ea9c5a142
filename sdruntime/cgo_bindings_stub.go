//go:build !sd || !cgo || stub

package sdruntime

import (
	"fmt"
	"os"
	"sync/atomic"
)

// StubBackendInfo is reported by GetBackendInfo when no native library is linked.
const StubBackendInfo = "stub (no stable-diffusion.cpp library linked)"

// NativeLibraryLinked reports whether stable-diffusion.cpp is linked in.
const NativeLibraryLinked = false

var stubContextCounter uint64

func loadModelImpl(modelPath string) (*SDContext, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
	} else if err != nil {
		return nil, fmt.Errorf("%w: unable to access %s: %v", ErrModelLoadFailed, modelPath, err)
	}

	return &SDContext{
		id:        atomic.AddUint64(&stubContextCounter, 1),
		modelPath: modelPath,
		valid:     true,
	}, nil
}

func generateImageImpl(ctx *SDContext, params GenerateParams) (*BackendImage, error) {
	if !ctx.IsValid() {
		return nil, fmt.Errorf("%w: context is nil or invalid", ErrGenerationFailed)
	}

	return nil, fmt.Errorf("%w: stable-diffusion.cpp library not available (stub mode). "+
		"Build with CGO and the 'sd' tag, or set SD_BACKEND=a1111 or SD_BACKEND=openai", ErrGenerationFailed)
}

func freeContextImpl(ctx *SDContext) {
	if ctx == nil {
		return
	}
	ctx.valid = false
}

func getBackendInfoImpl() string {
	return StubBackendInfo
}
