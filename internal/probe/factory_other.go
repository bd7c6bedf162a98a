//go:build !linux
// +build !linux

package probe

import "go.uber.org/zap"

// NewProductionSource has no eBPF backend outside Linux; callers should
// fall back to NewSimulateSource, which this error signals.
func NewProductionSource(logger *zap.Logger, channelSize int) (Source, error) {
	return nil, ErrUnsupportedPlatform
}
