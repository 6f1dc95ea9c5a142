package core

import (
	"context"
)

// ShutdownFunc releases one resource during graceful shutdown. The context
// carries the shutdown deadline. Implementations must be safe to call twice.
//
//	var pipelineShutdown ShutdownFunc = func(ctx context.Context) error {
//	    return pipeline.Close()
//	}
type ShutdownFunc func(ctx context.Context) error
