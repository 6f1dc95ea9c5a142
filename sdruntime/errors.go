package sdruntime

import "errors"

// Sentinel errors for SD runtime operations.
var (
	// Pipeline lifecycle errors
	ErrNotInitialized = errors.New("sdruntime: pipeline not initialized")
	ErrPipelineClosed = errors.New("sdruntime: pipeline is closed")

	// Model-related errors
	ErrModelNotFound   = errors.New("sdruntime: model file not found")
	ErrModelLoadFailed = errors.New("sdruntime: failed to load model")
	ErrModelCorrupted  = errors.New("sdruntime: model file is corrupted or invalid")

	// Generation errors
	ErrGenerationFailed  = errors.New("sdruntime: image generation failed")
	ErrGenerationTimeout = errors.New("sdruntime: image generation timed out")

	// Input validation errors
	ErrInvalidPrompt = errors.New("sdruntime: invalid prompt")
	ErrInvalidParams = errors.New("sdruntime: invalid generation parameters")

	// Output errors
	ErrOutputWrite = errors.New("sdruntime: failed to write output image")
)

// isSentinel reports whether err already carries one of the package sentinels,
// so callers can avoid double-wrapping.
func isSentinel(err error) bool {
	for _, s := range []error{
		ErrNotInitialized, ErrPipelineClosed,
		ErrModelNotFound, ErrModelLoadFailed, ErrModelCorrupted,
		ErrGenerationFailed, ErrGenerationTimeout,
		ErrInvalidPrompt, ErrInvalidParams, ErrOutputWrite,
	} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
