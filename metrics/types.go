// Package metrics exports generation metrics in the Prometheus format.
package metrics

import "time"

// Result labels for sdweb_generations_total.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GenerationRecord describes one finished generation.
type GenerationRecord struct {
	Backend  string        // backend kind, for logs only
	Duration time.Duration // wall time of the pipeline call
	Err      error         // nil on success
}

// Result returns the result label for the record.
func (r GenerationRecord) Result() string {
	if r.Err != nil {
		return ResultError
	}
	return ResultSuccess
}
