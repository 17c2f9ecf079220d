package app

import (
	"context"
	"errors"
	"quantdash/internal/domain"
	"quantdash/internal/service"
	"quantdash/internal/tickers"
	"quantdash/pkg/analytics"
	mock_analytics "quantdash/pkg/analytics/mocks"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const refreshPeriod = 5 * time.Minute

func newTestSession(t *testing.T, client analytics.Client) (*Session, clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	s, err := NewSession(context.Background(), SessionOptions{
		Client:        client,
		Clock:         clock,
		Catalog:       tickers.Popular,
		RefreshPeriod: refreshPeriod,
		BannerPeriod:  time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, clock
}

func expectBanner(client *mock_analytics.MockClient) {
	client.EXPECT().
		GetAsset(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, symbol string) (*domain.AssetQuote, error) {
			if symbol == "GC=F" {
				return nil, &analytics.RemoteError{StatusCode: 404, Message: "no data for GC=F"}
			}
			return &domain.AssetQuote{Ticker: symbol, CurrentPrice: 100, PriceChange: 1.5}, nil
		}).
		AnyTimes()
}

func portfolioSnapshot(t *testing.T, s *Session) PortfolioSnapshot {
	t.Helper()
	snapshot, err := s.Snapshot()
	require.NoError(t, err)
	out, ok := snapshot.View.(PortfolioSnapshot)
	require.True(t, ok, "portfolio page not mounted")
	return out
}

func TestSession_Banner(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	s, _ := newTestSession(t, client)

	require.Eventually(t, func() bool {
		snapshot, err := s.Snapshot()
		return err == nil && len(snapshot.Banner.Quotes) == len(domain.BannerTickers)
	}, time.Second, 5*time.Millisecond)

	snapshot, err := s.Snapshot()
	require.NoError(t, err)
	require.Equal(t, domain.Tab_Overview, snapshot.ActiveTab)
	require.Equal(t, service.SchedulerState_Scheduled, snapshot.Banner.Refresh.State)
	require.Nil(t, snapshot.Notice)

	for _, quote := range snapshot.Banner.Quotes {
		if quote.Symbol == "GC=F" {
			require.Contains(t, quote.Error, "no data")
		} else {
			require.Empty(t, quote.Error)
			require.Equal(t, 100.0, quote.Price)
		}
	}
}

func TestSession_Navigation(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	s, _ := newTestSession(t, client)

	t.Run("portfolio actions need the portfolio page", func(t *testing.T) {
		err := s.WithPortfolio(func(v *PortfolioView) error { return nil })
		require.ErrorIs(t, err, ErrViewNotMounted)
	})

	t.Run("overview card opens its module", func(t *testing.T) {
		require.ErrorIs(t, s.OpenModule(domain.Tab_Overview), domain.ErrUnknownTab)
		require.NoError(t, s.OpenModule(domain.Tab_SingleAsset))

		snapshot, err := s.Snapshot()
		require.NoError(t, err)
		require.Equal(t, domain.Tab_SingleAsset, snapshot.ActiveTab)
		view, ok := snapshot.View.(SingleAssetSnapshot)
		require.True(t, ok)
		require.Equal(t, "AAPL", view.Symbol)
		require.Equal(t, domain.Strategy_BuyHold, view.Strategy)
		require.Equal(t, 20, view.Parameter)

		require.ErrorIs(t, s.OpenModule(domain.Tab_Portfolio), ErrViewNotMounted)
	})

	t.Run("unknown tab", func(t *testing.T) {
		require.ErrorIs(t, s.Navigate("prediction"), domain.ErrUnknownTab)
	})

	t.Run("portfolio page mounts fresh each time", func(t *testing.T) {
		require.NoError(t, s.Navigate(domain.Tab_Portfolio))
		require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
			return v.AddPosition()
		}))
		require.Len(t, portfolioSnapshot(t, s).Positions, 5)

		require.NoError(t, s.Navigate(domain.Tab_Overview))
		require.NoError(t, s.Navigate(domain.Tab_Portfolio))
		require.Len(t, portfolioSnapshot(t, s).Positions, 4)
	})
}

func TestSession_PortfolioScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	var calls int32
	var lastRequest atomic.Value
	client.EXPECT().
		AnalyzePortfolio(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.PortfolioAnalysisRequest) (*domain.PortfolioAnalysis, error) {
			atomic.AddInt32(&calls, 1)
			lastRequest.Store(req)
			return &domain.PortfolioAnalysis{TotalReturn: 12.5, SharpeRatio: 1.1}, nil
		}).
		Times(2)

	s, clock := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))

	var (
		unbalancedErr error
		normalized    bool
	)
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		if err := v.AddPosition(); err != nil {
			return err
		}
		unbalancedErr = v.Analyze()
		normalized = v.Normalize()
		return v.Analyze()
	}))
	require.ErrorIs(t, unbalancedErr, domain.ErrNotBalanced)
	require.True(t, normalized)

	snapshot := portfolioSnapshot(t, s)
	weights := []float64{}
	for _, p := range snapshot.Positions {
		weights = append(weights, p.Weight)
	}
	roundTo2 := cmp.Comparer(func(a, b float64) bool {
		return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
	})
	require.Equal(t, "", cmp.Diff([]float64{27.27, 27.27, 18.18, 18.18, 9.09}, weights, roundTo2))
	require.True(t, snapshot.Balanced)
	require.Equal(t, "#6366f1", snapshot.Positions[0].Color)

	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Result != nil
	}, time.Second, 5*time.Millisecond)
	snapshot = portfolioSnapshot(t, s)
	require.Equal(t, 12.5, snapshot.Result.TotalReturn)
	require.False(t, snapshot.Loading)
	require.Equal(t, service.SchedulerState_Scheduled, snapshot.Refresh.State)

	// the scheduled re-run picks up edits made since the last submission
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		return v.SetSymbol(4, "amd")
	}))
	clock.Advance(refreshPeriod)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 2
	}, time.Second, 5*time.Millisecond)
	req := lastRequest.Load().(domain.PortfolioAnalysisRequest)
	require.Equal(t, "AMD", req.Positions[4].Symbol)
}

func TestSession_PortfolioRefreshStopsWhenUnbalanced(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)
	client.EXPECT().
		AnalyzePortfolio(gomock.Any(), gomock.Any()).
		Return(&domain.PortfolioAnalysis{TotalReturn: 3}, nil).
		Times(1)

	s, clock := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error { return v.Analyze() }))
	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Refresh.State == service.SchedulerState_Scheduled
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		return v.SetWeight(0, decimal.NewFromInt(50))
	}))
	clock.Advance(refreshPeriod)

	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Refresh.State == service.SchedulerState_Stopped
	}, time.Second, 5*time.Millisecond)
	// previous result is still shown
	require.Equal(t, 3.0, portfolioSnapshot(t, s).Result.TotalReturn)
}

func TestSession_PortfolioFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)
	gomock.InOrder(
		client.EXPECT().
			AnalyzePortfolio(gomock.Any(), gomock.Any()).
			Return(&domain.PortfolioAnalysis{TotalReturn: 7}, nil),
		client.EXPECT().
			AnalyzePortfolio(gomock.Any(), gomock.Any()).
			Return(nil, &analytics.TransportError{Op: "POST /portfolio", Err: errors.New("connection refused")}),
	)

	s, _ := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))

	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error { return v.Analyze() }))
	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Result != nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error { return v.Analyze() }))
	require.Eventually(t, func() bool {
		snapshot, err := s.Snapshot()
		return err == nil && snapshot.Notice != nil
	}, time.Second, 5*time.Millisecond)

	snapshot, err := s.Snapshot()
	require.NoError(t, err)
	require.Contains(t, *snapshot.Notice, "connection refused")
	view := snapshot.View.(PortfolioSnapshot)
	require.Equal(t, 7.0, view.Result.TotalReturn)
	require.False(t, view.Loading)

	require.NoError(t, s.DismissNotice())
	snapshot, err = s.Snapshot()
	require.NoError(t, err)
	require.Nil(t, snapshot.Notice)
}

func TestSession_PortfolioRefreshSurvivesFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)
	gomock.InOrder(
		client.EXPECT().
			AnalyzePortfolio(gomock.Any(), gomock.Any()).
			Return(&domain.PortfolioAnalysis{TotalReturn: 7}, nil),
		client.EXPECT().
			AnalyzePortfolio(gomock.Any(), gomock.Any()).
			Return(nil, &analytics.RemoteError{StatusCode: 500, Message: "model unavailable"}),
		client.EXPECT().
			AnalyzePortfolio(gomock.Any(), gomock.Any()).
			Return(&domain.PortfolioAnalysis{TotalReturn: 9}, nil),
	)

	s, clock := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error { return v.Analyze() }))
	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Refresh.State == service.SchedulerState_Scheduled
	}, time.Second, 5*time.Millisecond)

	// the scheduled re-run fails
	clock.Advance(refreshPeriod)
	require.Eventually(t, func() bool {
		snapshot, err := s.Snapshot()
		return err == nil && snapshot.Notice != nil
	}, time.Second, 5*time.Millisecond)

	snapshot := portfolioSnapshot(t, s)
	require.Equal(t, 7.0, snapshot.Result.TotalReturn)
	require.False(t, snapshot.Loading)
	require.Equal(t, service.SchedulerState_Scheduled, snapshot.Refresh.State)

	// and the next firing still happens
	clock.Advance(refreshPeriod)
	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Result.TotalReturn == 9.0
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, service.SchedulerState_Scheduled, portfolioSnapshot(t, s).Refresh.State)
}

func TestSession_PortfolioResetStopsRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	var calls int32
	client.EXPECT().
		AnalyzePortfolio(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.PortfolioAnalysisRequest) (*domain.PortfolioAnalysis, error) {
			atomic.AddInt32(&calls, 1)
			return &domain.PortfolioAnalysis{TotalReturn: 4}, nil
		}).
		AnyTimes()

	s, clock := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		if err := v.SetWeight(0, decimal.NewFromInt(40)); err != nil {
			return err
		}
		if err := v.SetWeight(1, decimal.NewFromInt(20)); err != nil {
			return err
		}
		return v.Analyze()
	}))
	require.Eventually(t, func() bool {
		return portfolioSnapshot(t, s).Refresh.State == service.SchedulerState_Scheduled
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		v.Reset()
		return nil
	}))

	snapshot := portfolioSnapshot(t, s)
	require.Equal(t, service.SchedulerState_Stopped, snapshot.Refresh.State)
	require.Nil(t, snapshot.Result)
	require.Equal(t, 30.0, snapshot.Positions[0].Weight)
	require.Equal(t, "monthly", string(snapshot.RebalanceFrequency))

	clock.Advance(refreshPeriod)
	clock.Advance(refreshPeriod)
	require.Never(t, func() bool {
		return atomic.LoadInt32(&calls) != 1
	}, 100*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, service.SchedulerState_Stopped, portfolioSnapshot(t, s).Refresh.State)
}

func TestSession_TeardownDropsLateResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	release := make(chan struct{})
	returned := make(chan struct{})
	client.EXPECT().
		AnalyzePortfolio(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.PortfolioAnalysisRequest) (*domain.PortfolioAnalysis, error) {
			defer close(returned)
			<-release
			return &domain.PortfolioAnalysis{TotalReturn: 99}, nil
		})

	s, _ := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))

	var torndown *PortfolioView
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		torndown = v
		return v.Analyze()
	}))
	require.NoError(t, s.Navigate(domain.Tab_Overview))

	close(release)
	<-returned
	// let the posted completion run
	require.NoError(t, s.Do(func() error { return nil }))

	var (
		hasResult bool
		state     service.SchedulerState
	)
	require.NoError(t, s.Do(func() error {
		_, hasResult = torndown.Result()
		state = torndown.Scheduler().State()
		return nil
	}))
	require.False(t, hasResult)
	require.Equal(t, service.SchedulerState_Stopped, state)
}

func TestSession_SingleAsset(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	backtests := make(chan domain.BacktestRequest, 4)
	client.EXPECT().
		Backtest(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error) {
			backtests <- req
			return &domain.BacktestResult{Ticker: req.Symbol, Strategy: req.Strategy, Period: req.Parameter}, nil
		}).
		Times(2)

	s, _ := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_SingleAsset))

	singleAsset := func() SingleAssetSnapshot {
		snapshot, err := s.Snapshot()
		require.NoError(t, err)
		return snapshot.View.(SingleAssetSnapshot)
	}

	t.Run("nothing runs before the first fetch", func(t *testing.T) {
		strategy := "momentum"
		require.NoError(t, s.WithSingleAsset(func(v *SingleAssetView) error {
			return v.Configure(SingleAssetUpdate{Strategy: &strategy})
		}))
		require.Nil(t, singleAsset().Result)
		require.False(t, singleAsset().InitialLoadDone)
	})

	t.Run("fetch loads quote and backtest", func(t *testing.T) {
		require.NoError(t, s.WithSingleAsset(func(v *SingleAssetView) error { return v.Fetch() }))
		require.Equal(t, domain.BacktestRequest{Symbol: "AAPL", Strategy: domain.Strategy_Momentum, Parameter: 20}, <-backtests)

		require.Eventually(t, func() bool { return singleAsset().InitialLoadDone }, time.Second, 5*time.Millisecond)
		view := singleAsset()
		require.Equal(t, "AAPL", view.Result.Quote.Ticker)
		require.Equal(t, domain.Strategy_Momentum, view.Result.Backtest.Strategy)
		require.Equal(t, service.SchedulerState_Scheduled, view.Refresh.State)
	})

	t.Run("later changes resubmit", func(t *testing.T) {
		require.NoError(t, s.WithField(0, func(f *tickers.Field) error {
			f.Type("tsl")
			f.Select("TSLA")
			return nil
		}))
		require.Equal(t, "TSLA", (<-backtests).Symbol)
		require.Eventually(t, func() bool {
			r := singleAsset().Result
			return r != nil && r.Backtest.Ticker == "TSLA"
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("invalid update is rejected whole", func(t *testing.T) {
		bad := 0
		symbol := "MSFT"
		err := s.WithSingleAsset(func(v *SingleAssetView) error {
			return v.Configure(SingleAssetUpdate{Symbol: &symbol, Parameter: &bad})
		})
		require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		require.Equal(t, "TSLA", singleAsset().Symbol)
	})
}

func TestPortfolioView_FieldFollowsItsRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	s, _ := newTestSession(t, client)
	require.NoError(t, s.Navigate(domain.Tab_Portfolio))

	var (
		suggestions []string
		symbols     []string
	)
	require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
		field, err := v.Field(3)
		if err != nil {
			return err
		}
		if err := v.RemovePosition(0); err != nil {
			return err
		}

		field.Type("nv")
		suggestions = field.Suggestions()
		field.Select("NVDA")

		for _, position := range v.Portfolio().Positions() {
			symbols = append(symbols, position.Symbol)
		}
		return nil
	}))
	require.Contains(t, suggestions, "NVDA")
	require.Equal(t, []string{"MSFT", "GOOGL", "NVDA"}, symbols)

	t.Run("empty commit keeps the row", func(t *testing.T) {
		text := ""
		require.NoError(t, s.WithField(0, func(f *tickers.Field) error {
			f.Type("")
			f.Select("")
			text = f.Text()
			return nil
		}))
		require.Equal(t, "MSFT", text)
	})

	t.Run("removing below two rows is refused", func(t *testing.T) {
		var (
			secondErr error
			size      int
		)
		require.NoError(t, s.WithPortfolio(func(v *PortfolioView) error {
			if err := v.RemovePosition(0); err != nil {
				return err
			}
			secondErr = v.RemovePosition(0)
			size = v.Portfolio().Len()
			return nil
		}))
		require.ErrorIs(t, secondErr, domain.ErrMinimumSizeViolation)
		require.Equal(t, 2, size)
	})
}

func TestSession_Subscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mock_analytics.NewMockClient(ctrl)
	expectBanner(client)

	s, _ := newTestSession(t, client)
	updates, unsubscribe, err := s.Subscribe()
	require.NoError(t, err)

	first := <-updates
	require.Equal(t, s.ID, first.ID)

	require.NoError(t, s.Navigate(domain.Tab_Portfolio))
	require.Eventually(t, func() bool {
		select {
		case snapshot := <-updates:
			return snapshot.ActiveTab == domain.Tab_Portfolio
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	unsubscribe()
	for range updates {
	}
}
