package sdruntime

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePrompt_Valid(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"simple prompt", "a red circle"},
		{"punctuation", "beautiful sunset, orange sky, peaceful scene"},
		{"empty", ""},
		{"whitespace only", " \t\n "},
		{"textarea newlines", "a red circle,\non white"},
		{"longer than the token window", strings.Repeat("a red circle ", 400)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePrompt(tt.prompt); err != nil {
				t.Errorf("ValidatePrompt() error = %v, want nil", err)
			}
		})
	}
}

func TestValidatePrompt_NullBytes(t *testing.T) {
	err := ValidatePrompt("hello\x00world")
	if !errors.Is(err, ErrInvalidPrompt) {
		t.Errorf("ValidatePrompt() error = %v, want ErrInvalidPrompt", err)
	}
}
