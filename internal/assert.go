// Package internal holds helpers shared by mediagraph packages that are not
// part of the public API.
package internal

import (
	"context"

	"github.com/xaionaro-go/mediagraph/logger"
)

// Assert panics (through the logger, so the message reaches the log sink
// first) if mustBeTrue is false.
func Assert(
	ctx context.Context,
	mustBeTrue bool,
	extraArgs ...any,
) {
	if mustBeTrue {
		return
	}
	logger.Panic(ctx, "assertion failed", extraArgs)
}
