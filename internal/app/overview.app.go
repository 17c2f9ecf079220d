package app

import (
	"fmt"
	"quantdash/internal/domain"
)

var overviewModules = []ModuleCard{
	{
		ID:          domain.Tab_SingleAsset,
		Title:       "Single Asset Analysis",
		Description: "Backtest trading strategies on individual securities. Compare 6 strategies: Buy & Hold, Momentum, Mean Reversion, Bollinger Bands, RSI, and Breakout.",
		Color:       "#6366f1",
		Metrics:     []string{"Sharpe", "Sortino", "Calmar", "VaR", "CVaR", "Info Ratio"},
	},
	{
		ID:          domain.Tab_Portfolio,
		Title:       "Portfolio Analysis",
		Description: "Build and analyze multi-asset portfolios with custom weights, rebalancing options, correlation analysis, and professional risk metrics.",
		Color:       "#10b981",
		Metrics:     []string{"Volatility", "Drawdown", "Hit Ratio", "Win/Loss", "Omega", "Skewness"},
	},
}

var metricGlossary = []MetricInfo{
	{Name: "Sharpe Ratio", Description: "Risk-adjusted return"},
	{Name: "Sortino Ratio", Description: "Downside volatility adjusted"},
	{Name: "Calmar Ratio", Description: "Return / Max Drawdown"},
	{Name: "Omega Ratio", Description: "Probability weighted gains/losses"},
	{Name: "Max Drawdown", Description: "Largest peak to trough decline"},
	{Name: "Volatility", Description: "Annualized standard deviation"},
	{Name: "VaR 95%", Description: "Value at Risk at 95% confidence"},
	{Name: "CVaR 95%", Description: "Expected shortfall beyond VaR"},
	{Name: "Hit Ratio", Description: "Percentage of winning trades"},
	{Name: "Win/Loss", Description: "Average win vs average loss"},
	{Name: "Skewness", Description: "Distribution asymmetry"},
	{Name: "Kurtosis", Description: "Tail risk / fat tails"},
	{Name: "Information Ratio", Description: "Alpha vs benchmark"},
}

// OverviewView is the landing page. Its only action is opening a module.
type OverviewView struct {
	deps ViewDependencies
}

func NewOverviewView(deps ViewDependencies) *OverviewView {
	return &OverviewView{deps: deps}
}

func (v *OverviewView) Tab() domain.Tab {
	return domain.Tab_Overview
}

func (v *OverviewView) Mount() {}

func (v *OverviewView) Close() {}

// OpenModule asks the router for the module's page.
func (v *OverviewView) OpenModule(id domain.Tab) error {
	for _, m := range overviewModules {
		if m.ID == id {
			v.deps.Navigate(id)
			return nil
		}
	}
	return fmt.Errorf("%w: no module %q", domain.ErrUnknownTab, id)
}

func (v *OverviewView) Snapshot() interface{} {
	return OverviewSnapshot{
		Tab:     domain.Tab_Overview,
		Modules: overviewModules,
		Metrics: metricGlossary,
	}
}
