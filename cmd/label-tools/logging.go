package main

import (
	"github.com/edaniels/golog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the console logger and, when logFile is set, tees every
// entry as JSON into a size-rotated file
func newLogger(debug, quiet bool, logFile string) (golog.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	cfg := golog.NewDevelopmentLoggerConfig()
	cfg.Level = level
	console, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if quiet {
		console = zap.NewNop()
	}
	if logFile == "" {
		return console.Sugar().Named("label-tools"), nil
	}

	file := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			Compress:   true,
		}),
		level,
	)
	core := zapcore.NewTee(console.Core(), file)
	return zap.New(core, zap.AddCaller()).Sugar().Named("label-tools"), nil
}
