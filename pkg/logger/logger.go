// Package logger builds the zap.SugaredLogger instances that the public
// facade passes to internal/engine.Open for structured logging.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-profile SugaredLogger (JSON encoding, info
// level) named after service. It never returns an error: zap's production
// config only fails to build on an invalid level or encoder, neither of
// which is possible with the fixed inputs here.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// Falls back to a no-op logger rather than panicking; callers
		// shouldn't have database construction fail over a logging detail.
		log = zap.NewNop()
	}
	return log.Named(service).Sugar()
}

// NewDevelopment builds a console-encoded, debug-level SugaredLogger
// intended for local runs and tests.
func NewDevelopment(service string) *zap.SugaredLogger {
	log, err := zap.NewDevelopment()
	if err != nil {
		log = zap.NewNop()
	}
	return log.Named(service).Sugar()
}

// Nop returns a logger that discards everything, for tests that don't
// care about log output.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
