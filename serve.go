package main

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"sdweb/core"
	"sdweb/core/validation"
	"sdweb/metrics"
	"sdweb/shutdown"
	"sdweb/webui"
)

type serveOptions struct {
	skipValidation bool

	// listener replaces listening on the configured address.
	listener net.Listener

	// ready, when set, is closed once the server accepts requests.
	ready chan<- struct{}
}

// serve builds the pipeline, starts the web server and blocks until parent
// is cancelled or a shutdown signal arrives.
func serve(parent context.Context, g *Globals, opts serveOptions) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	zlog := logger.Zap()

	logger.Info("Starting sdweb",
		zap.String("version", core.Version),
		zap.String("addr", cfg.Addr()),
		zap.String("backend", cfg.Backend),
		zap.String("output", cfg.OutputPath()),
	)

	if !opts.skipValidation {
		result := validation.NewValidationSuite(cfg).Validate()
		for _, step := range result.Steps {
			if step.Status == validation.StepWarning {
				logger.Warn("Startup check warning", zap.String("step", step.Name), zap.String("message", step.Message))
			}
		}
		if !result.Success {
			err := result.GetFirstError()
			logger.Error("Startup validation failed", zap.Error(err))
			_ = logger.Sync()
			return &exitError{code: core.ExitCodeFor(err), err: err}
		}
	}

	mgr := shutdown.NewManager(zlog, shutdown.WithTimeout(cfg.ShutdownTimeout))
	mgr.Start()
	go func() {
		select {
		case <-parent.Done():
			mgr.Trigger()
		case <-mgr.Context().Done():
		}
	}()

	collector := metrics.NewCollector()

	logger.Info("Initializing image generator...")
	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		_ = mgr.Shutdown()
		return err
	}
	if err := pipeline.Build(mgr.Context()); err != nil {
		logger.Error("Failed to build pipeline", zap.Error(err))
		_ = pipeline.Close()
		_ = mgr.Shutdown()
		return err
	}
	collector.SetPipelineReady(true)
	logger.Info("Generator ready!", zap.String("backend", pipeline.BackendInfo().String()))

	serverCfg := webui.DefaultServerConfig()
	serverCfg.Addr = cfg.Addr()
	serverCfg.ShutdownTimeout = cfg.ShutdownTimeout
	serverCfg.API = webui.GenerateAPIConfig{
		OutputPath: cfg.OutputPath(),
		Recorder:   collector,
		Operations: mgr,
	}
	serverCfg.MetricsHandler = collector.Handler()

	server, err := webui.NewServer(serverCfg, pipeline, zlog)
	if err != nil {
		_ = pipeline.Close()
		_ = mgr.Shutdown()
		return err
	}

	mgr.Register("http-server", shutdown.PriorityHTTPServer, shutdown.HTTPServer(server.HTTPServer()))
	mgr.Register("pipeline", shutdown.PriorityPipeline, func(ctx context.Context) error {
		collector.SetPipelineReady(false)
		return pipeline.Close()
	})
	mgr.Register("temp-images", shutdown.PriorityTempFiles, shutdown.CleanupTempImages(zlog, cfg.OutputDir))
	mgr.Register("logger", shutdown.PriorityLogger, shutdown.SyncLogger(zlog))

	ln := opts.listener
	if ln == nil {
		ln, err = net.Listen("tcp", server.Addr())
		if err != nil {
			_ = mgr.Shutdown()
			return fmt.Errorf("listen on %s: %w", server.Addr(), err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()
	if opts.ready != nil {
		close(opts.ready)
	}
	logger.Info("Open the web UI", zap.String("url", "http://"+ln.Addr().String()))

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server stopped unexpectedly", zap.Error(err))
			if shutdownErr := mgr.Shutdown(); shutdownErr != nil {
				logger.Error("Shutdown failed", zap.Error(shutdownErr))
			}
			return err
		}
	case <-mgr.Context().Done():
	}

	return mgr.Shutdown()
}
