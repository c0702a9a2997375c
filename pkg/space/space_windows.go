//go:build windows

package space

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func freeSpace(path string) (uint64, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("invalid path %s: %w", path, err)
	}

	var available, total, free uint64

	err = windows.GetDiskFreeSpaceEx(pathPtr, &available, &total, &free)
	if err != nil {
		return 0, fmt.Errorf("failed to query free space for %s: %w", path, err)
	}

	return available, nil
}
