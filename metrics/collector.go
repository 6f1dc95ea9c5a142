package metrics

// Recorder is what the HTTP layer reports generation activity to.
//
// Implementations must be safe for concurrent use.
type Recorder interface {
	// GenerationStarted marks a generation as running.
	GenerationStarted()

	// GenerationFinished records the outcome and clears the running mark.
	GenerationFinished(rec GenerationRecord)

	// GenerationRejected counts a request turned away because another
	// generation was running.
	GenerationRejected()

	// SetPipelineReady reports whether the model pipeline is built.
	SetPipelineReady(ready bool)
}

// Nop is a Recorder that discards everything.
type Nop struct{}

func (Nop) GenerationStarted() {}
func (Nop) GenerationFinished(GenerationRecord) {}
func (Nop) GenerationRejected() {}
func (Nop) SetPipelineReady(bool) {}

var _ Recorder = Nop{}
