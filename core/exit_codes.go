package core

// Process exit codes. Signal exits follow the 128 + signal number convention.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1

	// ExitCodeConfig is returned when configuration or startup validation fails
	// (sysexits EX_CONFIG).
	ExitCodeConfig = 78

	ExitCodeSIGINT  = 130 // 128 + 2
	ExitCodeSIGTERM = 143 // 128 + 15
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeConfig:
		return "configuration error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// IsSignalExit reports whether the exit code came from a termination signal.
func IsSignalExit(code int) bool {
	return code == ExitCodeSIGINT || code == ExitCodeSIGTERM
}

// ExitCodeFor maps a startup error to an exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	if _, ok := IsConfigError(err); ok {
		return ExitCodeConfig
	}
	return ExitCodeError
}
