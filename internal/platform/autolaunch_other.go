//go:build !linux && !darwin && !windows

package platform

import (
	"context"
	"fmt"
)

// NewAutoLauncher returns an AutoLauncher that reports disabled and refuses
// to enable.
func NewAutoLauncher(string, Runner) AutoLauncher { return unsupported{} }

type unsupported struct{}

func (unsupported) Enabled(context.Context) (bool, error) { return false, nil }

func (unsupported) Enable(context.Context) error {
	return fmt.Errorf("enable login item: %w", ErrUnsupported)
}
