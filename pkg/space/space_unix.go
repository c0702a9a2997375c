//go:build linux || darwin || freebsd || dragonfly

package space

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func freeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t

	err := unix.Statfs(path, &stat)
	if err != nil {
		return 0, fmt.Errorf("failed to statfs %s: %w", path, err)
	}

	//nolint:gosec,unconvert // Field types differ per platform
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
