// Package logging provides the logr-over-zap logging stack shared by the
// CLI, the planner and the test suites.
package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logger.V(). INFO is the zero level and always
// emitted; DEBUG and TRACE are enabled by verbose configurations.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// NewLogger builds a production logr.Logger backed by zap. With verbose set,
// DEBUG and TRACE V-levels are enabled.
func NewLogger(verbose bool) logr.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	}
	return zapr.NewLogger(zap.Must(cfg.Build()))
}

// NewTestLogger builds a development-mode logger with all V-levels enabled,
// for use in test suite bootstrap.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-TRACE))
	return zapr.NewLogger(zap.Must(cfg.Build()))
}

// IntoContext stores the logger in ctx for retrieval by FromContext.
func IntoContext(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// FromContext retrieves the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
