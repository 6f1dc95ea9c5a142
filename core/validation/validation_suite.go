// Package validation checks the configuration before the server starts and
// prints colored progress for each check.
package validation

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"sdweb/core"
	"sdweb/imagegen"
	"sdweb/sdruntime"
)

// ValidationStep represents a single validation step with its status.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepRunning:
		return "running"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Step names, in execution order.
const (
	StepOutputDirectory = "Output Directory"
	StepListenAddress   = "Listen Address"
	StepBackendConfig   = "Backend Configuration"
	StepModelChecksum   = "Model Checksum"
)

// SuiteResult represents the complete result of validation suite execution.
type SuiteResult struct {
	Steps        []ValidationStep
	TotalSteps   int
	PassedSteps  int
	FailedSteps  int
	SkippedSteps int
	Warnings     int
	Duration     time.Duration
	Success      bool
}

// ValidationSuite runs the startup checks against a Config.
type ValidationSuite struct {
	cfg          *core.Config
	output       io.Writer
	showProgress bool
	failFast     bool
}

// NewValidationSuite creates a suite for cfg that prints to stdout.
func NewValidationSuite(cfg *core.Config) *ValidationSuite {
	return &ValidationSuite{
		cfg:          cfg,
		output:       os.Stdout,
		showProgress: true,
	}
}

// WithOutput sets the output writer for progress messages.
func (s *ValidationSuite) WithOutput(w io.Writer) *ValidationSuite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// WithFailFast stops validation on first failure if enabled.
func (s *ValidationSuite) WithFailFast(failFast bool) *ValidationSuite {
	s.failFast = failFast
	return s
}

type check struct {
	name string
	fn   func() (StepStatus, string, error)
}

// Validate runs every check in order and returns the combined result.
func (s *ValidationSuite) Validate() SuiteResult {
	startTime := time.Now()

	if s.showProgress {
		s.printHeader("sdweb Configuration Validation")
	}

	if s.cfg == nil {
		step := s.runStep("Configuration", func() (StepStatus, string, error) {
			return StepFailed, "", core.ErrMissingConfig("configuration")
		})
		return s.finish([]ValidationStep{step}, startTime)
	}

	checks := []check{
		{StepOutputDirectory, s.checkOutputDir},
		{StepListenAddress, s.checkListenAddress},
		{StepBackendConfig, s.checkBackend},
	}

	steps := make([]ValidationStep, 0, len(checks)+1)
	for _, c := range checks {
		step := s.runStep(c.name, c.fn)
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			return s.finish(steps, startTime)
		}
	}

	// checksum only makes sense once the model file is known to exist
	switch {
	case s.cfg.Backend != core.BackendLocal:
		steps = append(steps, s.skipStep(StepModelChecksum, "not a local backend"))
	case !s.cfg.VerifyChecksum:
		steps = append(steps, s.skipStep(StepModelChecksum, "disabled (SD_VERIFY_CHECKSUM=false)"))
	case !hasAllPassed(steps):
		steps = append(steps, s.skipStep(StepModelChecksum, "skipped due to configuration errors"))
	default:
		steps = append(steps, s.runStep(StepModelChecksum, s.checkChecksum))
	}

	return s.finish(steps, startTime)
}

func (s *ValidationSuite) checkOutputDir() (StepStatus, string, error) {
	if err := CheckDirWritable(s.cfg.OutputDir); err != nil {
		return StepFailed, "", err
	}

	msg := fmt.Sprintf("%s is writable", s.cfg.OutputDir)
	err := CheckDiskSpace(s.cfg.OutputDir, MinOutputFreeBytes)
	var dsErr *DiskSpaceError
	if errors.As(err, &dsErr) {
		return StepWarning, fmt.Sprintf("%s, but only %s free", msg, core.FormatBytes(dsErr.Available)), nil
	}
	// a failed measurement is not fatal
	return StepPassed, msg, nil
}

func (s *ValidationSuite) checkListenAddress() (StepStatus, string, error) {
	if s.cfg.Port < 1 || s.cfg.Port > 65535 {
		return StepFailed, "", core.ErrInvalidValue("SDWEB_PORT", strconv.Itoa(s.cfg.Port), "must be between 1 and 65535")
	}
	if strings.TrimSpace(s.cfg.Host) == "" {
		return StepWarning, fmt.Sprintf("listening on all interfaces, port %d", s.cfg.Port), nil
	}
	return StepPassed, s.cfg.Addr(), nil
}

func (s *ValidationSuite) checkBackend() (StepStatus, string, error) {
	switch s.cfg.Backend {
	case core.BackendLocal:
		if err := CheckFileExists(s.cfg.ModelPath); err != nil {
			return StepFailed, "", fmt.Errorf("%w: %v", core.ErrModelMissing(s.cfg.ModelPath), err)
		}
		if !sdruntime.NativeLibraryLinked {
			return StepWarning, fmt.Sprintf("local model %s found, but this binary has no stable-diffusion.cpp "+
				"library and cannot generate; rebuild with -tags sd or set SD_BACKEND=a1111|openai", s.cfg.ModelPath), nil
		}
		return StepPassed, fmt.Sprintf("local model %s", s.cfg.ModelPath), nil

	case core.BackendOpenAI, core.BackendA1111:
		apiURL := s.cfg.ResolvedAPIURL()
		if err := ValidateBackendURL(apiURL); err != nil {
			return StepFailed, "", core.ErrInvalidURL(apiURL, err.Error())
		}
		if s.cfg.Backend == core.BackendOpenAI && s.cfg.APIKey == "" && imagegen.RequiresAPIKey(apiURL) {
			return StepFailed, "", core.ErrMissingAuth(apiURL)
		}
		return StepPassed, fmt.Sprintf("%s at %s", s.cfg.Backend, apiURL), nil
	}
	return StepFailed, "", core.ErrUnknownBackend(s.cfg.Backend)
}

func (s *ValidationSuite) checkChecksum() (StepStatus, string, error) {
	if err := sdruntime.VerifyModelChecksum(s.cfg.ModelPath); err != nil {
		return StepFailed, "", err
	}
	return StepPassed, "checksum verified or model not in registry", nil
}

// runStep executes a validation step with timing and progress output.
func (s *ValidationSuite) runStep(name string, fn func() (StepStatus, string, error)) ValidationStep {
	step := ValidationStep{Name: name, Status: StepRunning}

	if s.showProgress {
		s.printStepStart(name)
	}

	startTime := time.Now()
	status, message, err := fn()
	step.Latency = time.Since(startTime)
	step.Status = status
	step.Message = message
	step.Error = err

	if s.showProgress {
		s.printStep(step)
	}

	return step
}

func (s *ValidationSuite) skipStep(name, reason string) ValidationStep {
	step := ValidationStep{Name: name, Status: StepSkipped, Message: reason}
	if s.showProgress {
		s.printStep(step)
	}
	return step
}

func (s *ValidationSuite) finish(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := buildResult(steps, startTime)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

// hasAllPassed checks if no step has failed.
func hasAllPassed(steps []ValidationStep) bool {
	for _, step := range steps {
		if step.Status == StepFailed {
			return false
		}
	}
	return true
}

// buildResult creates a SuiteResult from completed steps.
func buildResult(steps []ValidationStep, startTime time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(startTime),
		Success:    true,
	}

	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		case StepSkipped:
			result.SkippedSteps++
		}
	}

	return result
}

// printHeader prints a validation header.
func (s *ValidationSuite) printHeader(title string) {
	fmt.Fprintln(s.output)
	headerColor := color.New(color.FgCyan, color.Bold)
	headerColor.Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

// printStepStart prints the step name before execution (for real-time feedback).
func (s *ValidationSuite) printStepStart(name string) {
	fmt.Fprintf(s.output, "  ◌ %s...", name)
}

// printStep prints a completed validation step with status indicator.
func (s *ValidationSuite) printStep(step ValidationStep) {
	var icon string
	var clr *color.Color

	switch step.Status {
	case StepPassed:
		icon = "✓"
		clr = color.New(color.FgGreen)
	case StepFailed:
		icon = "✗"
		clr = color.New(color.FgRed)
	case StepWarning:
		icon = "!"
		clr = color.New(color.FgYellow)
	case StepSkipped:
		icon = "○"
		clr = color.New(color.FgHiBlack)
	default:
		icon = "?"
		clr = color.New(color.FgWhite)
	}

	// Clear the "running" line and print result
	fmt.Fprintf(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)

	if step.Message != "" {
		dim := color.New(color.FgHiBlack)
		dim.Fprintf(s.output, " - %s", step.Message)
	}

	fmt.Fprintln(s.output)

	if step.Status == StepFailed && step.Error != nil {
		errColor := color.New(color.FgRed)
		errColor.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

// printSummary prints the validation summary.
func (s *ValidationSuite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)

	if result.Success {
		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Fprintf(s.output, "━━━ Validation Passed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		successColor.Fprintln(s.output, " ━━━")
	} else {
		failColor := color.New(color.FgRed, color.Bold)
		failColor.Fprintf(s.output, "━━━ Validation Failed ")
		color.New(color.FgHiBlack).Fprintf(s.output, "(%d passed, %d failed)",
			result.PassedSteps, result.FailedSteps)
		failColor.Fprintln(s.output, " ━━━")
	}

	fmt.Fprintln(s.output)
}

// GetErrors returns all errors from failed steps.
func (r SuiteResult) GetErrors() []error {
	errs := make([]error, 0)
	for _, step := range r.Steps {
		if step.Error != nil {
			errs = append(errs, step.Error)
		}
	}
	return errs
}

// GetFirstError returns the first error from failed steps, or nil if all passed.
func (r SuiteResult) GetFirstError() error {
	for _, step := range r.Steps {
		if step.Error != nil {
			return step.Error
		}
	}
	return nil
}

// Summary returns a human-readable summary string.
func (r SuiteResult) Summary() string {
	var sb strings.Builder
	if r.Success {
		sb.WriteString("Validation Passed: ")
	} else {
		sb.WriteString("Validation Failed: ")
	}
	fmt.Fprintf(&sb, "%d/%d checks passed", r.PassedSteps, r.TotalSteps)
	if r.FailedSteps > 0 {
		fmt.Fprintf(&sb, ", %d failed", r.FailedSteps)
	}
	if r.SkippedSteps > 0 {
		fmt.Fprintf(&sb, ", %d skipped", r.SkippedSteps)
	}
	if r.Warnings > 0 {
		fmt.Fprintf(&sb, ", %d warnings", r.Warnings)
	}
	fmt.Fprintf(&sb, " (took %v)", r.Duration.Round(time.Millisecond))
	return sb.String()
}
