package sdruntime

import (
	"fmt"
	"time"
)

// GenerateParams holds the parameters handed to a Backend for one txt2img call.
type GenerateParams struct {
	Prompt         string  // Required: text description of the image to generate
	NegativePrompt string  // Optional: what to avoid in the image
	Width          int     // Image width in pixels (64-2048, must be divisible by 8)
	Height         int     // Image height in pixels (64-2048, must be divisible by 8)
	Steps          int     // Number of inference steps (1-100)
	CFGScale       float64 // Classifier-free guidance scale (1.0-30.0)
	Seed           int64   // Random seed for reproducibility (-1 for random)
}

// Parameter validation constants
const (
	MinImageSize      = 64
	MaxImageSize      = 2048
	ImageSizeMultiple = 8 // Image dimensions must be divisible by this

	MinSteps = 1
	MaxSteps = 100

	MinCFGScale = 1.0
	MaxCFGScale = 30.0

	// MaxPromptLength bounds the configured negative prompt.
	MaxPromptLength = 1000
)

// WarmupSteps is the step count of the throwaway pass run before each
// generation when warmup is enabled.
const WarmupSteps = 1

// ValidateParams validates generation parameters and returns an error if invalid.
// This is a pure function with no side effects.
func ValidateParams(p GenerateParams) error {
	if err := ValidatePrompt(p.Prompt); err != nil {
		return err
	}

	if err := validateDimension("width", p.Width); err != nil {
		return err
	}
	if err := validateDimension("height", p.Height); err != nil {
		return err
	}

	if p.Steps < MinSteps || p.Steps > MaxSteps {
		return fmt.Errorf("%w: steps %d must be between %d and %d",
			ErrInvalidParams, p.Steps, MinSteps, MaxSteps)
	}

	if p.CFGScale < MinCFGScale || p.CFGScale > MaxCFGScale {
		return fmt.Errorf("%w: CFGScale %.2f must be between %.1f and %.1f",
			ErrInvalidParams, p.CFGScale, MinCFGScale, MaxCFGScale)
	}

	if len(p.NegativePrompt) > MaxPromptLength {
		return fmt.Errorf("%w: negative prompt length %d exceeds maximum %d",
			ErrInvalidParams, len(p.NegativePrompt), MaxPromptLength)
	}

	return nil
}

func validateDimension(name string, v int) error {
	if v < MinImageSize || v > MaxImageSize {
		return fmt.Errorf("%w: %s %d must be between %d and %d",
			ErrInvalidParams, name, v, MinImageSize, MaxImageSize)
	}
	if v%ImageSizeMultiple != 0 {
		return fmt.Errorf("%w: %s %d must be divisible by %d",
			ErrInvalidParams, name, v, ImageSizeMultiple)
	}
	return nil
}

// BackendImage is the raw result of a Backend call. Data may be PNG or JPEG
// and its size may differ from the requested one; the Pipeline normalizes it.
type BackendImage struct {
	Data []byte
	Seed int64 // seed the backend reports, or the one that was requested
}

// BackendInfo describes a Backend for logs and the health endpoint.
type BackendInfo struct {
	Kind   string // local, openai, a1111
	Model  string // model file or model id
	Detail string // compute backend or base URL
}

func (i BackendInfo) String() string {
	switch {
	case i.Model == "" && i.Detail == "":
		return i.Kind
	case i.Model == "":
		return fmt.Sprintf("%s (%s)", i.Kind, i.Detail)
	case i.Detail == "":
		return fmt.Sprintf("%s (%s)", i.Kind, i.Model)
	}
	return fmt.Sprintf("%s (%s, %s)", i.Kind, i.Model, i.Detail)
}

// GenerateResult holds the result of a Pipeline.Generate call.
type GenerateResult struct {
	ImageData []byte        // PNG bytes as written to Path
	Width     int           // final image width
	Height    int           // final image height
	Seed      int64         // seed actually used (never -1)
	Path      string        // file the image was written to
	Duration  time.Duration // backend time for the real pass, warmup excluded
}
