// Package logging builds the structured logger used by the command line.
package logging

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var allowedLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// New returns a JSON logger writing to stderr at the named level.
func New(name, level string) (*zap.Logger, error) {
	return newWithSink(name, level, zapcore.AddSync(os.Stderr))
}

func newWithSink(name, level string, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, ok := allowedLevels[level]
	if !ok {
		return nil, errors.Newf("log level %q is not one of debug, info, warn, error", level)
	}
	atom := zap.NewAtomicLevelAt(lvl)
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		sink,
		atom,
	))
	return logger.Named(name), nil
}
