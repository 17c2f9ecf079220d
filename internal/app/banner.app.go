package app

import (
	"context"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/service"
	"sync"
	"time"
)

const DefaultBannerPeriod = 60 * time.Second

type bannerCoordinator = service.Coordinator[domain.BannerRequest, []domain.BannerQuote]

// BannerView is the market ticker strip. It lives as long as the session,
// independent of which page is mounted.
type BannerView struct {
	deps        ViewDependencies
	tickers     []domain.BannerTicker
	coordinator *bannerCoordinator
	scheduler   *service.RefreshScheduler
}

func NewBannerView(deps ViewDependencies, period time.Duration) *BannerView {
	if period <= 0 {
		period = DefaultBannerPeriod
	}
	v := &BannerView{
		deps:    deps,
		tickers: domain.BannerTickers,
	}
	v.coordinator = service.NewCoordinator(
		deps.Ctx,
		"banner",
		deps.Loop,
		func(ctx context.Context, req domain.BannerRequest) ([]domain.BannerQuote, error) {
			return fetchBanner(ctx, deps, req), nil
		},
		service.CoordinatorHooks[[]domain.BannerQuote]{
			OnSettled: deps.changed,
		},
	)
	v.scheduler = service.NewRefreshScheduler(deps.Ctx, "banner", deps.Clock, period, deps.Loop, v.refresh)
	return v
}

// fetchBanner asks for every symbol at once. A failing symbol only marks
// its own cell.
func fetchBanner(ctx context.Context, deps ViewDependencies, req domain.BannerRequest) []domain.BannerQuote {
	profile, endProfile := domain.NewProfile()
	defer logProfile(ctx, "banner fetch", profile, endProfile)

	out := make([]domain.BannerQuote, len(req.Tickers))
	wg := sync.WaitGroup{}
	for i, ticker := range req.Tickers {
		wg.Add(1)
		go func(i int, ticker domain.BannerTicker) {
			defer wg.Done()
			out[i] = domain.BannerQuote{
				Symbol: ticker.Symbol,
				Name:   ticker.Name,
			}
			_, endSpan := profile.StartSpan(ticker.Symbol)
			quote, err := deps.Client.GetAsset(ctx, ticker.Symbol)
			endSpan()
			if err != nil {
				logger.FromContext(ctx).Debugw("banner quote failed", "symbol", ticker.Symbol, "error", err)
				out[i].Error = err.Error()
				return
			}
			out[i].Price = quote.CurrentPrice
			out[i].Change = quote.PriceChange
		}(i, ticker)
	}
	wg.Wait()
	return out
}

func (v *BannerView) Mount() {
	v.refresh()
	v.scheduler.Start()
}

func (v *BannerView) Close() {
	v.scheduler.Stop()
	v.coordinator.Close()
}

func (v *BannerView) Scheduler() *service.RefreshScheduler {
	return v.scheduler
}

func (v *BannerView) Quotes() []domain.BannerQuote {
	quotes, _ := v.coordinator.Result()
	return quotes
}

func (v *BannerView) Snapshot() BannerSnapshot {
	quotes, ok := v.coordinator.Result()
	if !ok {
		quotes = []domain.BannerQuote{}
	}
	return BannerSnapshot{
		Quotes:  quotes,
		Loading: v.coordinator.Loading(),
		Refresh: newRefreshSnapshot(v.scheduler),
	}
}

func (v *BannerView) refresh() {
	if _, err := v.coordinator.Submit(domain.BannerRequest{Tickers: v.tickers}); err != nil {
		logger.FromContext(v.deps.Ctx).Warnw("failed to refresh banner", "error", err)
	}
}
