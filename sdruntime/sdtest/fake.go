// Package sdtest provides an in-memory sdruntime.Backend for tests.
package sdtest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"sdweb/sdruntime"
)

// FakeBackend renders a solid-color PNG for every call and records the
// parameters it was given.
type FakeBackend struct {
	Color color.Color // defaults to opaque red

	// Scale divides the rendered size, to exercise resizing. Zero means 1.
	Scale int

	// Err, when set, is returned by every call. WarmupErr only by 1-step calls.
	Err       error
	WarmupErr error

	// Block, when set, makes Txt2Img wait until it is closed or ctx ends.
	// Started receives one value per call once the call is running.
	Block   chan struct{}
	Started chan struct{}

	mu     sync.Mutex
	calls  []sdruntime.GenerateParams
	closed bool
}

// Factory returns a BackendFactory that always yields b.
func (b *FakeBackend) Factory() sdruntime.BackendFactory {
	return func(ctx context.Context) (sdruntime.Backend, error) {
		b.mu.Lock()
		b.closed = false
		b.mu.Unlock()
		return b, nil
	}
}

// Txt2Img implements sdruntime.Backend.
func (b *FakeBackend) Txt2Img(ctx context.Context, params sdruntime.GenerateParams) (*sdruntime.BackendImage, error) {
	b.mu.Lock()
	b.calls = append(b.calls, params)
	b.mu.Unlock()

	if b.Started != nil {
		b.Started <- struct{}{}
	}
	if b.Block != nil {
		select {
		case <-b.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if params.Steps == sdruntime.WarmupSteps && b.WarmupErr != nil {
		return nil, b.WarmupErr
	}
	if b.Err != nil {
		return nil, b.Err
	}

	scale := b.Scale
	if scale <= 0 {
		scale = 1
	}
	data, err := SolidPNG(params.Width/scale, params.Height/scale, b.color())
	if err != nil {
		return nil, err
	}
	return &sdruntime.BackendImage{Data: data, Seed: params.Seed}, nil
}

// Info implements sdruntime.Backend.
func (b *FakeBackend) Info() sdruntime.BackendInfo {
	return sdruntime.BackendInfo{Kind: "fake", Model: "solid-color"}
}

// Close implements sdruntime.Backend.
func (b *FakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Calls returns a copy of the recorded parameters, warmup passes included.
func (b *FakeBackend) Calls() []sdruntime.GenerateParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]sdruntime.GenerateParams(nil), b.calls...)
}

// Closed reports whether Close was called since the last Factory call.
func (b *FakeBackend) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *FakeBackend) color() color.Color {
	if b.Color == nil {
		return color.RGBA{R: 255, A: 255}
	}
	return b.Color
}

// SolidPNG encodes a w x h image filled with c.
func SolidPNG(w, h int, c color.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
