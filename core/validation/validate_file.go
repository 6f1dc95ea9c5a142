package validation

import (
	"fmt"
	"os"
)

// FileExistsError indicates a file does not exist with a descriptive message
type FileExistsError struct {
	Path    string
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// CheckFileExists checks if a regular file exists at the given path.
//
// Returns nil if the file exists, or a *FileExistsError describing the failure.
func CheckFileExists(path string) error {
	if path == "" {
		return &FileExistsError{
			Path:    path,
			Message: "file path cannot be empty",
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileExistsError{
				Path:    path,
				Message: fmt.Sprintf("file not found: %s", path),
			}
		}
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("error checking file %s: %v", path, err),
		}
	}

	if info.IsDir() {
		return &FileExistsError{
			Path:    path,
			Message: fmt.Sprintf("path is a directory, not a file: %s", path),
		}
	}

	return nil
}

// CheckDirWritable creates dir if needed and proves it writable by creating
// and removing a probe file.
func CheckDirWritable(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory path cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("directory %s is not writable: %w", dir, err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("cannot remove probe file in %s: %w", dir, err)
	}
	return nil
}
