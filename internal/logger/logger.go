package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	// "dev" selects the console encoder and debug level
	Environment string
	Level       string
	// optional rotated file sink next to stdout
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func New() *zap.SugaredLogger {
	logger, err := Build(Options{Environment: os.Getenv("QUANTDASH_ENV")})
	if err != nil {
		panic(fmt.Errorf("failed to initialize logger: %w", err))
	}
	return logger
}

func Build(o Options) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	opts := []zap.Option{
		zap.AddStacktrace(zap.ErrorLevel),
	}

	env := o.Environment
	if strings.EqualFold(env, "dev") {
		logger, err = zap.NewDevelopment(opts...)
	} else {
		opts = append(opts, zap.Fields(zap.String("environment", env)))
		logger, err = zap.NewProduction(opts...)
	}
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if strings.EqualFold(env, "dev") {
		level.SetLevel(zap.DebugLevel)
	}
	if o.Level != "" {
		if err := level.UnmarshalText([]byte(o.Level)); err != nil {
			return nil, fmt.Errorf("failed to parse log level %q: %w", o.Level, err)
		}
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		),
	}
	if strings.EqualFold(env, "dev") {
		cores[0] = zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(os.Stdout),
			level,
		)
	}
	if o.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    valueOr(o.MaxSizeMB, 25),
			MaxBackups: valueOr(o.MaxBackups, 10),
			MaxAge:     valueOr(o.MaxAgeDays, 14),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	logger = logger.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return zapcore.NewTee(cores...)
	}))

	return logger.Sugar(), nil
}

func valueOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

type contextKey string

const ContextKey contextKey = "LOGGER"

func WithContext(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ContextKey, logger)
}

func FromContext(ctx context.Context) *zap.SugaredLogger {
	logger, ok := ctx.Value(ContextKey).(*zap.SugaredLogger)
	if !ok {
		logger = zap.S()
	}
	return logger
}

func init() {
	logger := New()
	zap.ReplaceGlobals(logger.Desugar())
}
