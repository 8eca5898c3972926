//go:build !linux && !darwin && !freebsd && !windows

package history

import (
	"errors"
	"runtime"
)

// FreeSpace is not implemented on this platform; the quota gate then rejects
// every add.
func FreeSpace(string) (uint64, error) {
	return 0, errors.New("free space probe unsupported on " + runtime.GOOS)
}
