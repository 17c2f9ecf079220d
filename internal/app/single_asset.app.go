package app

import (
	"context"
	"fmt"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/service"
	"quantdash/internal/tickers"
)

const (
	DefaultSymbol    = "AAPL"
	DefaultStrategy  = domain.Strategy_BuyHold
	DefaultParameter = 20
)

type singleAssetCoordinator = service.Coordinator[domain.BacktestRequest, *domain.SingleAssetResult]

// SingleAssetView backtests one symbol. After the first successful fetch,
// every configuration change re-runs the analysis on its own.
type SingleAssetView struct {
	deps ViewDependencies

	symbol          string
	strategy        domain.Strategy
	parameter       int
	initialLoadDone bool

	field       *tickers.Field
	coordinator *singleAssetCoordinator
	scheduler   *service.RefreshScheduler
}

type SingleAssetUpdate struct {
	Symbol    *string
	Strategy  *string
	Parameter *int
}

func NewSingleAssetView(deps ViewDependencies) *SingleAssetView {
	v := &SingleAssetView{
		deps:      deps,
		symbol:    DefaultSymbol,
		strategy:  DefaultStrategy,
		parameter: DefaultParameter,
	}
	v.coordinator = service.NewCoordinator(
		deps.Ctx,
		"single-asset",
		deps.Loop,
		func(ctx context.Context, req domain.BacktestRequest) (*domain.SingleAssetResult, error) {
			return fetchSingleAsset(ctx, deps, req)
		},
		service.CoordinatorHooks[*domain.SingleAssetResult]{
			OnResult: func(*domain.SingleAssetResult) {
				v.initialLoadDone = true
				v.scheduler.Start()
			},
			OnFailure: func(err error) {
				deps.notify(fmt.Errorf("single asset analysis failed: %w", err))
			},
			OnSettled: deps.changed,
		},
	)
	v.scheduler = service.NewRefreshScheduler(deps.Ctx, "single-asset", deps.Clock, deps.RefreshPeriod, deps.Loop, v.refresh)
	v.field = tickers.NewField(deps.Catalog, deps.Clock, deps.Loop, v.symbol, v.commitSymbol)
	return v
}

func fetchSingleAsset(ctx context.Context, deps ViewDependencies, req domain.BacktestRequest) (*domain.SingleAssetResult, error) {
	profile, endProfile := domain.NewProfile()
	defer logProfile(ctx, "single asset fetch", profile, endProfile)

	_, endSpan := profile.StartSpan("get asset")
	quote, err := deps.Client.GetAsset(ctx, req.Symbol)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", req.Symbol, err)
	}
	_, endSpan = profile.StartSpan("backtest")
	backtest, err := deps.Client.Backtest(ctx, req)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to backtest %s: %w", req.Symbol, err)
	}
	return &domain.SingleAssetResult{
		Quote:    quote,
		Backtest: backtest,
	}, nil
}

func (v *SingleAssetView) Tab() domain.Tab {
	return domain.Tab_SingleAsset
}

func (v *SingleAssetView) Mount() {}

func (v *SingleAssetView) Close() {
	v.scheduler.Stop()
	v.coordinator.Close()
	v.field.Close()
}

func (v *SingleAssetView) Request() domain.BacktestRequest {
	return domain.BacktestRequest{
		Symbol:    v.symbol,
		Strategy:  v.strategy,
		Parameter: v.parameter,
	}
}

func (v *SingleAssetView) Result() (*domain.SingleAssetResult, bool) {
	return v.coordinator.Result()
}

func (v *SingleAssetView) Scheduler() *service.RefreshScheduler {
	return v.scheduler
}

func (v *SingleAssetView) Field() *tickers.Field {
	return v.field
}

// Fetch loads the quote and the backtest for the current configuration.
func (v *SingleAssetView) Fetch() error {
	if _, err := v.coordinator.Submit(v.Request()); err != nil {
		return err
	}
	v.deps.changed()
	return nil
}

// Configure applies every field of u or none of them.
func (v *SingleAssetView) Configure(u SingleAssetUpdate) error {
	symbol, strategy, parameter := v.symbol, v.strategy, v.parameter
	if u.Symbol != nil {
		symbol = domain.NormalizeSymbol(*u.Symbol)
		if symbol == "" {
			return fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, domain.ErrEmptySymbol)
		}
	}
	if u.Strategy != nil {
		s, err := domain.NewStrategy(*u.Strategy)
		if err != nil {
			return err
		}
		strategy = s
	}
	if u.Parameter != nil {
		if *u.Parameter <= 0 {
			return fmt.Errorf("%w: parameter must be positive, got %d", domain.ErrInvalidConfiguration, *u.Parameter)
		}
		parameter = *u.Parameter
	}

	v.symbol, v.strategy, v.parameter = symbol, strategy, parameter
	v.field.SetValue(v.symbol)
	v.configurationChanged()
	return nil
}

func (v *SingleAssetView) Snapshot() interface{} {
	out := SingleAssetSnapshot{
		Tab:             domain.Tab_SingleAsset,
		Symbol:          v.symbol,
		Field:           newFieldSnapshot(v.field),
		Strategy:        v.strategy,
		Parameter:       v.parameter,
		Strategies:      domain.Strategies,
		InitialLoadDone: v.initialLoadDone,
		Loading:         v.coordinator.Loading(),
		Refresh:         newRefreshSnapshot(v.scheduler),
	}
	if result, ok := v.coordinator.Result(); ok {
		out.Result = result
	}
	return out
}

func (v *SingleAssetView) commitSymbol(symbol string) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" || symbol == v.symbol {
		v.field.SetValue(v.symbol)
		v.deps.changed()
		return
	}
	v.symbol = symbol
	v.field.SetValue(symbol)
	v.configurationChanged()
}

func (v *SingleAssetView) configurationChanged() {
	if v.initialLoadDone {
		if err := v.Fetch(); err != nil {
			v.deps.notify(err)
		}
	}
	v.deps.changed()
}

func (v *SingleAssetView) refresh() {
	if err := v.Fetch(); err != nil {
		logger.FromContext(v.deps.Ctx).Infow("stopping single asset refresh", "error", err)
		v.scheduler.Stop()
		v.deps.changed()
	}
}
