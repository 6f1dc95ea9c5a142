// Package sdruntime wraps a pretrained text-to-image diffusion pipeline.
//
// The diffusion model itself is reached through a Backend. The in-process
// LocalBackend binds stable-diffusion.cpp through CGo when built with the
// 'sd' tag. The default build uses a stub that can load (stat) a model file
// but cannot generate: in that build SD_BACKEND=local is not functional and
// only the remote backends in package imagegen produce images.
// NativeLibraryLinked tells the two builds apart.
//
// # Usage
//
//	pipeline, err := sdruntime.NewPipeline(
//		sdruntime.LocalBackendFactory("models/sd-v1-5.safetensors"),
//		sdruntime.DefaultPipelineConfig(),
//		logger,
//	)
//	if err != nil {
//		return err
//	}
//	defer pipeline.Close()
//
//	if err := pipeline.Build(ctx); err != nil {
//		return err
//	}
//	result, err := pipeline.Generate(ctx, "a red circle", 20, 512, 512, "outputs/generated.png")
//
// Generate returns ErrNotInitialized until Build succeeds. Every call uses
// guidance scale 7.5 by default and, with warmup enabled, runs a throwaway
// 1-step pass first.
//
// # Building with stable-diffusion.cpp
//
//	CGO_ENABLED=1 go build -tags sd
//
// # Errors
//
// All errors wrap one of the package sentinels (ErrNotInitialized,
// ErrModelNotFound, ErrModelLoadFailed, ErrGenerationFailed, ErrInvalidParams,
// ErrOutputWrite, ...) and can be checked with errors.Is.
package sdruntime
