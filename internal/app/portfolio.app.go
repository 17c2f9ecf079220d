package app

import (
	"context"
	"fmt"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/service"
	"quantdash/internal/tickers"

	"github.com/shopspring/decimal"
)

// a freshly added row, matching what the page has always offered
const (
	addedSymbol = "NVDA"
	addedWeight = 10
)

type portfolioCoordinator = service.Coordinator[domain.PortfolioAnalysisRequest, *domain.PortfolioAnalysis]

// PortfolioView is the multi-asset page: the weight model, one ticker field
// per row, and the analysis coordinator with its refresh schedule.
type PortfolioView struct {
	deps ViewDependencies

	portfolio   *domain.Portfolio
	frequency   domain.RebalanceFrequency
	fields      []*tickers.Field
	coordinator *portfolioCoordinator
	scheduler   *service.RefreshScheduler
}

func NewPortfolioView(deps ViewDependencies) *PortfolioView {
	v := &PortfolioView{
		deps:      deps,
		portfolio: domain.DefaultPortfolio(),
		frequency: domain.RebalanceFrequency_Monthly,
	}
	v.coordinator = service.NewCoordinator(
		deps.Ctx,
		"portfolio",
		deps.Loop,
		func(ctx context.Context, req domain.PortfolioAnalysisRequest) (*domain.PortfolioAnalysis, error) {
			return deps.Client.AnalyzePortfolio(ctx, req)
		},
		service.CoordinatorHooks[*domain.PortfolioAnalysis]{
			OnResult: func(*domain.PortfolioAnalysis) {
				v.scheduler.Start()
			},
			OnFailure: func(err error) {
				deps.notify(fmt.Errorf("portfolio analysis failed: %w", err))
			},
			OnSettled: deps.changed,
		},
	)
	v.scheduler = service.NewRefreshScheduler(deps.Ctx, "portfolio", deps.Clock, deps.RefreshPeriod, deps.Loop, v.refresh)
	v.resetFields()
	return v
}

func (v *PortfolioView) Tab() domain.Tab {
	return domain.Tab_Portfolio
}

// Mount does nothing; analysis on this page only starts on request.
func (v *PortfolioView) Mount() {}

func (v *PortfolioView) Close() {
	v.scheduler.Stop()
	v.coordinator.Close()
	for _, f := range v.fields {
		f.Close()
	}
}

func (v *PortfolioView) Portfolio() *domain.Portfolio {
	return v.portfolio.DeepCopy()
}

func (v *PortfolioView) Frequency() domain.RebalanceFrequency {
	return v.frequency
}

func (v *PortfolioView) Result() (*domain.PortfolioAnalysis, bool) {
	return v.coordinator.Result()
}

func (v *PortfolioView) Scheduler() *service.RefreshScheduler {
	return v.scheduler
}

func (v *PortfolioView) AddPosition() error {
	if err := v.portfolio.Add(addedSymbol, decimal.NewFromInt(addedWeight)); err != nil {
		return err
	}
	v.fields = append(v.fields, v.newField(addedSymbol))
	v.deps.changed()
	return nil
}

func (v *PortfolioView) RemovePosition(index int) error {
	if err := v.portfolio.Remove(index); err != nil {
		return err
	}
	v.fields[index].Close()
	v.fields = append(v.fields[:index], v.fields[index+1:]...)
	v.deps.changed()
	return nil
}

func (v *PortfolioView) SetWeight(index int, weight decimal.Decimal) error {
	if err := v.portfolio.SetWeight(index, weight); err != nil {
		return err
	}
	v.deps.changed()
	return nil
}

func (v *PortfolioView) SetSymbol(index int, symbol string) error {
	if err := v.portfolio.SetSymbol(index, symbol); err != nil {
		return err
	}
	v.fields[index].SetValue(v.portfolio.Positions()[index].Symbol)
	v.deps.changed()
	return nil
}

func (v *PortfolioView) Normalize() bool {
	changed := v.portfolio.Normalize()
	if changed {
		v.deps.changed()
	}
	return changed
}

func (v *PortfolioView) SetFrequency(frequency domain.RebalanceFrequency) error {
	f, err := domain.NewRebalanceFrequency(string(frequency))
	if err != nil {
		return err
	}
	v.frequency = f
	v.deps.changed()
	return nil
}

// Analyze submits the current configuration. An unbalanced portfolio is
// rejected as is; the caller decides whether to normalize.
func (v *PortfolioView) Analyze() error {
	req := domain.NewPortfolioAnalysisRequest(v.portfolio, v.frequency)
	if _, err := v.coordinator.Submit(req); err != nil {
		return err
	}
	v.deps.changed()
	return nil
}

// Reset puts the page back to its mount state.
func (v *PortfolioView) Reset() {
	v.scheduler.Stop()
	v.coordinator.Reset()
	for _, f := range v.fields {
		f.Close()
	}
	v.portfolio = domain.DefaultPortfolio()
	v.frequency = domain.RebalanceFrequency_Monthly
	v.resetFields()
	v.deps.changed()
}

func (v *PortfolioView) Field(index int) (*tickers.Field, error) {
	if index < 0 || index >= len(v.fields) {
		return nil, fmt.Errorf("%w: %d (size %d)", domain.ErrIndexOutOfRange, index, len(v.fields))
	}
	return v.fields[index], nil
}

func (v *PortfolioView) Snapshot() interface{} {
	positions := v.portfolio.Positions()
	out := PortfolioSnapshot{
		Tab:                domain.Tab_Portfolio,
		Positions:          make([]PositionSnapshot, 0, len(positions)),
		TotalWeight:        v.portfolio.TotalWeight().InexactFloat64(),
		Balanced:           v.portfolio.IsBalanced(),
		CanAdd:             v.portfolio.CanAdd(),
		CanRemove:          v.portfolio.CanRemove(),
		RebalanceFrequency: v.frequency,
		Loading:            v.coordinator.Loading(),
		Refresh:            newRefreshSnapshot(v.scheduler),
	}
	for i, position := range positions {
		out.Positions = append(out.Positions, PositionSnapshot{
			Symbol: position.Symbol,
			Weight: position.Weight.InexactFloat64(),
			Color:  ColorAt(i),
			Field:  newFieldSnapshot(v.fields[i]),
		})
	}
	if result, ok := v.coordinator.Result(); ok {
		out.Result = result
	}
	return out
}

// refresh is the scheduled re-run. It always reads the live configuration
// and gives up the schedule once that configuration can't be submitted.
func (v *PortfolioView) refresh() {
	log := logger.FromContext(v.deps.Ctx)
	if _, ok := v.coordinator.Result(); !ok {
		v.scheduler.Stop()
		return
	}
	if err := v.Analyze(); err != nil {
		log.Infow("stopping portfolio refresh", "error", err)
		v.scheduler.Stop()
		v.deps.changed()
	}
}

func (v *PortfolioView) resetFields() {
	positions := v.portfolio.Positions()
	v.fields = make([]*tickers.Field, 0, len(positions))
	for _, position := range positions {
		v.fields = append(v.fields, v.newField(position.Symbol))
	}
}

func (v *PortfolioView) newField(symbol string) *tickers.Field {
	var f *tickers.Field
	f = tickers.NewField(v.deps.Catalog, v.deps.Clock, v.deps.Loop, symbol, func(committed string) {
		v.commitSymbol(f, committed)
	})
	return f
}

// commitSymbol applies a field commit to whichever row the field sits on
// now; rows above it may have been removed since the field was created.
func (v *PortfolioView) commitSymbol(f *tickers.Field, symbol string) {
	index := -1
	for i, field := range v.fields {
		if field == f {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}

	// empty input leaves the row as it was
	_ = v.portfolio.SetSymbol(index, symbol)
	f.SetValue(v.portfolio.Positions()[index].Symbol)
	v.deps.changed()
}
