//go:build !debug_trace
// +build !debug_trace

package logger

import (
	"context"
)

// Tracef is a no-op unless built with the debug_trace tag: tracing is
// emitted from the per-cycle hot path.
func Tracef(ctx context.Context, format string, args ...any) {}
