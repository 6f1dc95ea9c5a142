//go:build !windows

package validation

import (
	"syscall"
)

// getDiskSpace returns total and free bytes for the filesystem containing path.
func getDiskSpace(path string) (total int64, free int64, err error) {
	var stat syscall.Statfs_t
	err = syscall.Statfs(path, &stat)
	if err != nil {
		return 0, 0, err
	}

	// Bavail, not Bfree: blocks reserved for root are not usable by the server
	total = int64(stat.Blocks) * int64(stat.Bsize)
	free = int64(stat.Bavail) * int64(stat.Bsize)

	return total, free, nil
}
