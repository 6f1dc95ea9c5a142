package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"sdweb/core"
	"sdweb/core/validation"
	"sdweb/imagegen"
	"sdweb/logging"
	"sdweb/webui"
)

// DefaultCLIPrompt is the prompt of a bare "sdweb generate".
const DefaultCLIPrompt = "a serene mountain landscape with snow, pine trees, and a clear blue sky"

// Globals are flags shared by every command.
type Globals struct {
	Config  string           `short:"c" type:"path" env:"SDWEB_CONFIG_FILE" help:"Optional YAML configuration file."`
	Version kong.VersionFlag `help:"Print version information and quit."`
}

// CLI is the command tree.
type CLI struct {
	Globals `embed:""`

	Serve    ServeCmd    `cmd:"" default:"withargs" help:"Run the web server (default command)."`
	Generate GenerateCmd `cmd:"" help:"Generate a single image from the command line."`
	Validate ValidateCmd `cmd:"" help:"Check the configuration and exit."`
	Service  ServiceCmd  `cmd:"" help:"Manage the system service."`
}

// exitError carries the process exit code for an error. reported is set
// when the command already printed the error.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return core.ExitCodeSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return core.ExitCodeFor(err)
}

// reported reports whether err was already printed by its command.
func reported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

// loadConfig resolves the configuration, honoring --config.
func loadConfig(g *Globals) (*core.Config, error) {
	if g != nil && g.Config != "" {
		if err := os.Setenv("SDWEB_CONFIG_FILE", g.Config); err != nil {
			return nil, fmt.Errorf("set SDWEB_CONFIG_FILE: %w", err)
		}
	}
	return core.LoadConfig()
}

func newLogger(cfg *core.Config) (*logging.Logger, error) {
	return logging.NewLoggerWithOptions(logging.Options{
		Development: cfg.DevMode,
		Level:       cfg.LogLevel,
		FilePath:    cfg.LogFile,
		File:        logging.DefaultFileWriterConfig(),
	})
}

// ServeCmd runs the HTTP server until a shutdown signal.
type ServeCmd struct {
	SkipValidation bool `help:"Start without running the configuration checks."`
}

func (c *ServeCmd) Run(g *Globals) error {
	return serve(context.Background(), g, serveOptions{skipValidation: c.SkipValidation})
}

// GenerateCmd renders one image through the same pipeline and clamping as
// the web server.
type GenerateCmd struct {
	Prompt string `short:"p" default:"${default_prompt}" help:"Text prompt."`
	Steps  int    `default:"20" help:"Inference steps (clamped to 10..50)."`
	Height int    `default:"512" help:"Image height (clamped to 256..768, multiple of 64)."`
	Width  int    `default:"512" help:"Image width (clamped to 256..768, multiple of 64)."`
	Output string `short:"o" type:"path" default:"output.png" help:"Output PNG path."`
}

func (c *GenerateCmd) Run(g *Globals) error {
	return c.run(context.Background(), g, os.Stdout, os.Stderr)
}

// newPipeline is replaced in tests.
var newPipeline = imagegen.NewPipeline

func (c *GenerateCmd) run(ctx context.Context, g *Globals, stdout, stderr io.Writer) error {
	err := c.generate(ctx, g, stdout)
	if err == nil {
		return nil
	}

	fmt.Fprintf(stderr, "Error: %v\n\n", err)
	fmt.Fprintln(stderr, "Troubleshooting:")
	fmt.Fprintln(stderr, "  1. Check that SD_MODEL_PATH points at a model file, or set SD_BACKEND=openai|a1111")
	fmt.Fprintln(stderr, "  2. The local backend needs a build with -tags sd and stable-diffusion.cpp installed")
	fmt.Fprintln(stderr, "  3. Lower --steps, --height or --width if the backend runs out of memory")
	fmt.Fprintln(stderr, "  4. Run 'sdweb validate' to check the configuration")
	return &exitError{code: core.ExitCodeError, err: err, reported: true}
}

func (c *GenerateCmd) generate(ctx context.Context, g *Globals, stdout io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	req := webui.ClampRequest(webui.GenerateRequest{
		Prompt: c.Prompt,
		Steps:  c.Steps,
		Height: c.Height,
		Width:  c.Width,
	})

	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	fmt.Fprintln(stdout, "Loading model...")
	if err := pipeline.Build(ctx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Generating %dx%d image with %d steps...\n", req.Width, req.Height, req.Steps)
	result, err := pipeline.Generate(ctx, req.Prompt, req.Steps, req.Height, req.Width, c.Output)
	if err != nil {
		return err
	}

	logger.Info("CLI generation complete",
		zap.String("output", result.Path),
		zap.Int64("seed", result.Seed),
		zap.Duration("duration", result.Duration))
	fmt.Fprintf(stdout, "Image saved to %s\n", result.Path)
	return nil
}

// ValidateCmd runs the configuration checks.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(g *Globals) error {
	return runValidate(g, os.Stdout)
}

func runValidate(g *Globals, out io.Writer) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return &exitError{code: core.ExitCodeError, err: err}
	}
	result := validation.NewValidationSuite(cfg).WithOutput(out).Validate()
	if !result.Success {
		return &exitError{code: core.ExitCodeError, err: errors.New(result.Summary()), reported: true}
	}
	return nil
}
