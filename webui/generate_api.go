package webui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"sdweb/logging"
	"sdweb/metrics"
	"sdweb/sdruntime"
)

// ErrBusy is the message returned while another generation is running.
const ErrBusy = "Generation already in progress"

// Generator is the model wrapper as seen by the HTTP layer.
type Generator interface {
	Generate(ctx context.Context, prompt string, steps, height, width int, outputPath string) (*sdruntime.GenerateResult, error)
	IsBuilt() bool
	BackendInfo() sdruntime.BackendInfo
}

// OperationRunner tracks in-flight work so shutdown can wait for it.
// *shutdown.Manager satisfies it; once shutdown starts it returns
// shutdown.ErrShuttingDown instead of running fn.
type OperationRunner interface {
	WrapOperation(ctx context.Context, name string, fn func(context.Context) error) error
}

// GenerateAPIConfig configures a GenerateAPI.
type GenerateAPIConfig struct {
	// OutputPath is the single file every generation overwrites.
	OutputPath string

	// Guard admits one generation at a time (default: a new BusyGuard).
	Guard *BusyGuard

	// Recorder receives generation metrics (default: metrics.Nop).
	Recorder metrics.Recorder

	// Operations tracks generations for graceful shutdown (default: none).
	Operations OperationRunner
}

// GenerateAPI serves the generate, status and health endpoints.
type GenerateAPI struct {
	gen        Generator
	outputPath string
	guard      *BusyGuard
	recorder   metrics.Recorder
	ops        OperationRunner
	logger     *zap.Logger
}

type generateResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
	Path    string `json:"path"`
}

type statusResponse struct {
	InProgress bool `json:"in_progress"`
}

type healthResponse struct {
	Status        string `json:"status"`
	PipelineReady bool   `json:"pipeline_ready"`
	Backend       string `json:"backend,omitempty"`
}

// NewGenerateAPI creates the API handlers around gen.
func NewGenerateAPI(gen Generator, cfg GenerateAPIConfig, logger *zap.Logger) (*GenerateAPI, error) {
	if gen == nil {
		return nil, errors.New("webui: generator is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("webui: output path is required")
	}
	if cfg.Guard == nil {
		cfg.Guard = NewBusyGuard()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateAPI{
		gen:        gen,
		outputPath: cfg.OutputPath,
		guard:      cfg.Guard,
		recorder:   cfg.Recorder,
		ops:        cfg.Operations,
		logger:     logger,
	}, nil
}

// HandleGenerate runs one generation synchronously and responds with the
// image as a PNG data URL. A request arriving while another generation runs
// gets 400; every other failure is a 500 carrying the error text.
func (a *GenerateAPI) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := a.logger.With(zap.String(logging.FieldRequestID, RequestIDFromContext(r.Context())))

	if !a.guard.TryAcquire() {
		a.recorder.GenerationRejected()
		logger.Info("generate rejected, busy")
		writeError(w, http.StatusBadRequest, ErrBusy)
		return
	}
	defer a.guard.Release()

	req, err := DecodeGenerateRequest(r.Body)
	if err != nil {
		logger.Warn("invalid generate request", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	req = ClampRequest(req)

	// The client going away does not stop a running generation.
	ctx := context.WithoutCancel(r.Context())
	if err := a.run(ctx, req); err != nil {
		logger.Error("generation failed",
			zap.Int("steps", req.Steps),
			zap.Int("width", req.Width),
			zap.Int("height", req.Height),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := os.ReadFile(a.outputPath)
	if err != nil {
		logger.Error("read generated image", zap.String("path", a.outputPath), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Success: true,
		Image:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(data),
		Path:    filepath.ToSlash(a.outputPath),
	})
}

// run calls the generator, tracked for shutdown when an OperationRunner is set.
func (a *GenerateAPI) run(ctx context.Context, req GenerateRequest) error {
	fn := func(ctx context.Context) error {
		a.recorder.GenerationStarted()
		start := time.Now()
		_, err := a.gen.Generate(ctx, req.Prompt, req.Steps, req.Height, req.Width, a.outputPath)
		a.recorder.GenerationFinished(metrics.GenerationRecord{
			Backend:  a.gen.BackendInfo().Kind,
			Duration: time.Since(start),
			Err:      err,
		})
		return err
	}
	if a.ops == nil {
		return fn(ctx)
	}
	return a.ops.WrapOperation(ctx, "generate", fn)
}

// HandleStatus reports whether a generation is running.
func (a *GenerateAPI) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{InProgress: a.guard.Busy()})
}

// HandleHealth reports liveness and whether the pipeline is built.
func (a *GenerateAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", PipelineReady: a.gen.IsBuilt()}
	if resp.PipelineReady {
		resp.Backend = a.gen.BackendInfo().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
