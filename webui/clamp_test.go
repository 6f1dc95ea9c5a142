package webui

import "testing"

func TestClampRequest(t *testing.T) {
	tests := []struct {
		name string
		in   GenerateRequest
		want GenerateRequest
	}{
		{
			name: "in range and aligned",
			in:   GenerateRequest{Prompt: "p", Steps: 20, Height: 512, Width: 512},
			want: GenerateRequest{Prompt: "p", Steps: 20, Height: 512, Width: 512},
		},
		{
			name: "low values raised to minimum",
			in:   GenerateRequest{Steps: 1, Height: 100, Width: -5},
			want: GenerateRequest{Steps: 10, Height: 256, Width: 256},
		},
		{
			name: "high values lowered to maximum",
			in:   GenerateRequest{Steps: 500, Height: 4096, Width: 769},
			want: GenerateRequest{Steps: 50, Height: 768, Width: 768},
		},
		{
			name: "unaligned sizes round down",
			in:   GenerateRequest{Steps: 30, Height: 300, Width: 767},
			want: GenerateRequest{Steps: 30, Height: 256, Width: 704},
		},
		{
			name: "boundaries kept",
			in:   GenerateRequest{Steps: 10, Height: 256, Width: 768},
			want: GenerateRequest{Steps: 10, Height: 256, Width: 768},
		},
		{
			name: "one below next multiple",
			in:   GenerateRequest{Steps: 50, Height: 575, Width: 576},
			want: GenerateRequest{Steps: 50, Height: 512, Width: 576},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampRequest(tt.in); got != tt.want {
				t.Errorf("ClampRequest(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampRequest_AlwaysValid(t *testing.T) {
	for v := -1000; v <= 2000; v += 7 {
		got := ClampRequest(GenerateRequest{Steps: v, Height: v, Width: v})
		if got.Steps < MinSteps || got.Steps > MaxSteps {
			t.Fatalf("steps %d clamped to %d", v, got.Steps)
		}
		for _, d := range []int{got.Height, got.Width} {
			if d < MinDimension || d > MaxDimension || d%DimensionMultiple != 0 {
				t.Fatalf("dimension %d clamped to %d", v, d)
			}
		}
	}
}
