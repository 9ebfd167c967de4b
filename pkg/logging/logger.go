package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger = zap.NewNop()
	sugar  = logger.Sugar()
)

// InitLogging initializes logging. mode is the gin mode; "debug" gets a
// human readable development logger, anything else JSON output.
func InitLogging(mode, level string) error {
	var cfg zap.Config
	if mode == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(strings.ToLower(level))
		if err != nil {
			return err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	SetLogger(l)
	return nil
}

// SetLogger replaces the process logger. Tests use it with zaptest or zap.NewNop.
func SetLogger(l *zap.Logger) {
	logger = l
	sugar = l.Sugar()
}

// L returns the structured logger
func L() *zap.Logger {
	return logger
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

// Sync flushes buffered entries
func Sync() {
	_ = logger.Sync()
}
