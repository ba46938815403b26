package logger

import (
	"context"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
)

func FromCtx(ctx context.Context) Logger {
	return logger.FromCtx(ctx)
}

func CtxWithLogger(ctx context.Context, l Logger) context.Context {
	return logger.CtxWithLogger(ctx, l)
}

// NewDefault builds a logrus-backed logger of the given level, installs it
// as the process-wide default and returns a context carrying it.
func NewDefault(ctx context.Context, level Level) (context.Context, Logger) {
	l := logrus.Default().WithLevel(level)
	SetDefault(func() Logger { return l })
	return CtxWithLogger(ctx, l), l
}

// Flush makes sure everything logged so far within ctx reached the output.
func Flush(ctx context.Context) {
	belt.Flush(ctx)
}
