package sdruntime

import "context"

// Backend is one way of reaching a text-to-image model. Implementations run
// a single txt2img call per Txt2Img and are not required to be safe for
// concurrent use; the Pipeline serializes calls.
type Backend interface {
	Txt2Img(ctx context.Context, params GenerateParams) (*BackendImage, error)
	Info() BackendInfo
	Close() error
}

// BackendFactory constructs a Backend. It is called by Pipeline.Build and
// is where model loading happens.
type BackendFactory func(ctx context.Context) (Backend, error)
