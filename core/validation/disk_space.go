package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"sdweb/core"
)

// MinOutputFreeBytes is the free space below which the output directory
// check warns. One 768x768 PNG is a few hundred kilobytes; the margin covers
// the temp file written before each replace.
const MinOutputFreeBytes = 64 * core.BytesPerMB

// DiskSpaceInfo contains information about disk space.
type DiskSpaceInfo struct {
	Path  string // directory that was measured
	Total int64
	Free  int64 // bytes available to unprivileged users
}

// DiskSpaceError indicates a disk space problem.
type DiskSpaceError struct {
	Path      string
	Required  int64
	Available int64
}

func (e *DiskSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space at %s: need %s, have %s free",
		e.Path, core.FormatBytes(e.Required), core.FormatBytes(e.Available))
}

// GetDiskSpace returns disk space for the filesystem containing path. A path
// that does not exist yet is measured at its nearest existing ancestor.
func GetDiskSpace(path string) (*DiskSpaceInfo, error) {
	path = filepath.Clean(path)
	for {
		info, err := os.Stat(path)
		if err == nil {
			if !info.IsDir() {
				path = filepath.Dir(path)
			}
			break
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot access path %s: %w", path, err)
		}
		parent := filepath.Dir(path)
		if parent == path {
			return nil, fmt.Errorf("cannot access path %s: %w", path, err)
		}
		path = parent
	}

	total, free, err := getDiskSpace(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk space for %s: %w", path, err)
	}
	return &DiskSpaceInfo{Path: path, Total: total, Free: free}, nil
}

// CheckDiskSpace returns a *DiskSpaceError when fewer than requiredBytes are
// free at path.
func CheckDiskSpace(path string, requiredBytes int64) error {
	info, err := GetDiskSpace(path)
	if err != nil {
		return err
	}
	if info.Free < requiredBytes {
		return &DiskSpaceError{Path: info.Path, Required: requiredBytes, Available: info.Free}
	}
	return nil
}
