// Package logging builds the client logger: JSON lines to a rotated
// file under the state directory, with an optional human-readable
// console tee for verbose runs.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a logger writing to logFile. When verbose is true, log
// output is also mirrored to stderr with the development encoder.
func New(logFile string, verbose bool) *zap.Logger {
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(rotator),
		zap.InfoLevel,
	)

	core := fileCore
	if verbose {
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stderr),
			zap.DebugLevel,
		)
		core = zapcore.NewTee(fileCore, consoleCore)
	}

	return zap.New(core, zap.AddCaller())
}

// Nop returns a logger that discards everything. Library constructors
// default to it so packages stay usable without log wiring.
func Nop() *zap.Logger {
	return zap.NewNop()
}
