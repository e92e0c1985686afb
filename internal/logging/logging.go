// Package logging builds the process logger: a console core on stderr
// and, when a log file is configured, a JSON core on a rotating file sink.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New constructs the logger. verbose lowers the level to debug; logFile,
// when non-empty, adds a rotating JSON file sink alongside the console.
func New(verbose bool, logFile string) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	if logFile != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		})
		fileCfg := zap.NewProductionEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), sink, level))
	}

	return zap.New(zapcore.NewTee(cores...))
}
