// Bindings for stable-diffusion.cpp.
//
// The default build links no native library and uses the stub in
// cgo_bindings_stub.go: models can be "loaded" (the file must exist) but
// generation always fails with ErrGenerationFailed, so SD_BACKEND=local only
// produces images in an sd build. The sd build binds the parameter-struct API
// of stable-diffusion.h (sd_ctx_params_t, new_sd_ctx, sd_img_gen_params_t,
// generate_image), available in stable-diffusion.cpp releases from
// master-2025-08 on. To link it:
//
//	CGO_CFLAGS="-I/path/to/stable-diffusion.cpp/include" \
//	CGO_LDFLAGS="-L/path/to/stable-diffusion.cpp/build/bin" \
//	go build -tags sd

package sdruntime

// SDContext is an opaque handle to a loaded model.
type SDContext struct {
	id        uint64
	modelPath string
	valid     bool
}

// IsValid returns whether this context is valid and usable.
func (c *SDContext) IsValid() bool {
	if c == nil {
		return false
	}
	return c.valid
}

// ModelPath returns the model path used to create this context.
func (c *SDContext) ModelPath() string {
	if c == nil {
		return ""
	}
	return c.modelPath
}

// LoadModel loads a .safetensors or .ckpt model and returns a context for
// generation. Returns ErrModelNotFound when the file is missing and
// ErrModelLoadFailed when the library rejects it. Free the context with
// FreeContext.
func LoadModel(modelPath string) (*SDContext, error) {
	return loadModelImpl(modelPath)
}

// GenerateImage runs one txt2img call on a loaded context. Params are
// validated first; Seed must already be resolved (non-negative).
func GenerateImage(ctx *SDContext, params GenerateParams) (*BackendImage, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}
	return generateImageImpl(ctx, params)
}

// FreeContext releases a context. Nil and already-freed contexts are a no-op.
func FreeContext(ctx *SDContext) {
	freeContextImpl(ctx)
}

// GetBackendInfo returns a human-readable description of the compute backend.
func GetBackendInfo() string {
	return getBackendInfoImpl()
}
