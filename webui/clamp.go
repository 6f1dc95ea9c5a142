package webui

import "github.com/samber/lo"

// Parameter bounds enforced on every generate request.
const (
	MinSteps = 10
	MaxSteps = 50

	MinDimension = 256
	MaxDimension = 768

	// DimensionMultiple is the latent grid every size is rounded down to.
	DimensionMultiple = 64
)

// ClampRequest forces steps into [MinSteps, MaxSteps] and each dimension into
// [MinDimension, MaxDimension], rounded down to a multiple of
// DimensionMultiple. The prompt is returned unchanged.
func ClampRequest(req GenerateRequest) GenerateRequest {
	req.Steps = lo.Clamp(req.Steps, MinSteps, MaxSteps)
	req.Height = clampDimension(req.Height)
	req.Width = clampDimension(req.Width)
	return req
}

func clampDimension(v int) int {
	return lo.Clamp(v, MinDimension, MaxDimension) &^ (DimensionMultiple - 1)
}
