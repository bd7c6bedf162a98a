//go:build linux
// +build linux

package probe

import "go.uber.org/zap"

// NewProductionSource returns the real eBPF-backed Source.
func NewProductionSource(logger *zap.Logger, channelSize int) (Source, error) {
	return NewLinuxSource(logger, channelSize), nil
}
