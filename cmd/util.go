package cmd

import (
	"context"
	"fmt"
	"quantdash/api"
	"quantdash/internal/logger"
	"quantdash/internal/tickers"
	"quantdash/internal/util"
	"quantdash/pkg/analytics"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func CloseDependencies(handler *api.ApiHandler) {
	handler.Sessions.CloseAll()
	_ = handler.Logger.Sync()
}

func InitializeLogger(config util.Config) (*zap.SugaredLogger, error) {
	log, err := logger.Build(logger.Options{
		Environment: config.Environment,
		Level:       config.Log.Level,
		File:        config.Log.File,
		MaxSizeMB:   config.Log.MaxSizeMB,
		MaxBackups:  config.Log.MaxBackups,
		MaxAgeDays:  config.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(log.Desugar())
	return log, nil
}

func InitializeDependencies(config util.Config, log *zap.SugaredLogger) (*api.ApiHandler, error) {
	if config.Analytics.BaseURL == "" {
		return nil, fmt.Errorf("analytics base url is not configured")
	}

	client := analytics.NewClient(
		config.Analytics.BaseURL,
		analytics.WithTimeout(config.Analytics.Timeout.Duration),
		analytics.WithRateLimit(config.Analytics.RateLimit),
	)

	clock := clockwork.NewRealClock()
	sessions := api.NewSessionRegistry(clock, config.Sessions.IdleTTL.Duration)
	sessions.StartReaper(logger.WithContext(context.Background(), log))

	return &api.ApiHandler{
		AnalyticsClient: client,
		Sessions:        sessions,
		Catalog:         tickers.Popular,
		Clock:           clock,
		RefreshPeriod:   config.Refresh.Period.Duration,
		BannerPeriod:    config.Refresh.BannerPeriod.Duration,
		AllowedOrigins:  config.Server.AllowedOrigins,
		Logger:          log,
	}, nil
}
