package sdruntime

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// modelChecksums maps model file names to their expected SHA-256 digests.
var (
	checksumMu     sync.RWMutex
	modelChecksums = map[string]string{
		// https://huggingface.co/runwayml/stable-diffusion-v1-5
		"sd-v1-5.safetensors":             "6ce0161689b3853acaa03779ec93eafe75a02f4ced659bee03f50797806fa2fa",
		"v1-5-pruned-emaonly.safetensors": "6ce0161689b3853acaa03779ec93eafe75a02f4ced659bee03f50797806fa2fa",
	}
)

// VerifyModelChecksum checks a model file's SHA-256 against the registry.
// Files with no registered checksum pass.
//
// Returns:
//   - nil if checksum matches or the model is unregistered
//   - ErrModelNotFound if file doesn't exist
//   - ErrModelCorrupted if checksum mismatch
func VerifyModelChecksum(modelPath string) error {
	if _, err := os.Stat(modelPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return fmt.Errorf("failed to access model file: %w", err)
	}

	expected, ok := GetExpectedChecksum(filepath.Base(modelPath))
	if !ok {
		return nil
	}

	actual, err := CalculateChecksum(modelPath)
	if err != nil {
		return fmt.Errorf("failed to calculate checksum: %w", err)
	}

	if actual != expected {
		return fmt.Errorf("%w: expected %s, got %s", ErrModelCorrupted, expected, actual)
	}
	return nil
}

// CalculateChecksum streams a file through SHA-256 and returns the lowercase
// hex digest. Model files are several GB, so nothing is buffered in memory.
func CalculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrModelNotFound, filePath)
		}
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// GetExpectedChecksum returns the registered checksum for a model file name
// (e.g. "sd-v1-5.safetensors").
func GetExpectedChecksum(modelName string) (string, bool) {
	checksumMu.RLock()
	defer checksumMu.RUnlock()
	checksum, ok := modelChecksums[modelName]
	return checksum, ok
}

// RegisterModelChecksum adds or updates a model checksum in the registry.
func RegisterModelChecksum(modelName, checksum string) {
	checksumMu.Lock()
	defer checksumMu.Unlock()
	modelChecksums[modelName] = strings.ToLower(checksum)
}

// IsModelCorrupted reports whether err indicates a checksum mismatch.
func IsModelCorrupted(err error) bool {
	return errors.Is(err, ErrModelCorrupted)
}

// IsModelNotFound reports whether err indicates a missing model file.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}
