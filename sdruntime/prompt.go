package sdruntime

import (
	"fmt"
	"strings"
)

// ValidatePrompt rejects prompts that cannot be handed to a backend.
// Empty and long prompts are allowed: the text encoder truncates to its
// token window and an empty prompt is an unconditional generation.
func ValidatePrompt(prompt string) error {
	// NUL cannot cross the C boundary of the local backend.
	if strings.ContainsRune(prompt, '\x00') {
		return fmt.Errorf("%w: prompt contains null bytes", ErrInvalidPrompt)
	}
	return nil
}
