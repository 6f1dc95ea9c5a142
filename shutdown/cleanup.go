package shutdown

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"sdweb/core"
)

// HTTPServer returns a cleanup that gracefully stops srv within the
// shutdown context.
func HTTPServer(srv *http.Server) core.ShutdownFunc {
	return func(ctx context.Context) error {
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Closer adapts anything with a Close method, such as the model pipeline.
func Closer(c interface{ Close() error }) core.ShutdownFunc {
	return func(ctx context.Context) error {
		return c.Close()
	}
}

// SyncLogger flushes logger. Errors from syncing a terminal are ignored.
func SyncLogger(logger *zap.Logger) core.ShutdownFunc {
	return func(ctx context.Context) error {
		err := logger.Sync()
		if err == nil || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) {
			return nil
		}
		return err
	}
}

// CleanupTempImages removes temp files left in outputDir by an image write
// that was interrupted before its rename. The output image itself is kept.
// Failures are logged, never returned, so they cannot block shutdown.
func CleanupTempImages(logger *zap.Logger, outputDir string) core.ShutdownFunc {
	return func(ctx context.Context) error {
		matches, err := filepath.Glob(filepath.Join(outputDir, ".*.tmp"))
		if err != nil || len(matches) == 0 {
			return nil
		}

		var removed int
		for _, match := range matches {
			if ctx.Err() != nil {
				logger.Warn("Shutdown context ended during temp image cleanup",
					zap.Int("removed", removed),
					zap.Int("remaining", len(matches)-removed),
				)
				return nil
			}
			if err := os.Remove(match); err != nil {
				logger.Warn("Failed to remove temp image",
					zap.String("file", filepath.Base(match)),
					zap.Error(err),
				)
				continue
			}
			removed++
		}

		logger.Info("Removed interrupted image writes",
			zap.String("directory", outputDir),
			zap.Int("removed", removed),
		)
		return nil
	}
}
