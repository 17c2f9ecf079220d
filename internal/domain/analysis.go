package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type RebalanceFrequency string

const (
	RebalanceFrequency_Daily   RebalanceFrequency = "daily"
	RebalanceFrequency_Weekly  RebalanceFrequency = "weekly"
	RebalanceFrequency_Monthly RebalanceFrequency = "monthly"
)

func NewRebalanceFrequency(s string) (RebalanceFrequency, error) {
	switch f := RebalanceFrequency(strings.ToLower(strings.TrimSpace(s))); f {
	case RebalanceFrequency_Daily, RebalanceFrequency_Weekly, RebalanceFrequency_Monthly:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown rebalance frequency %q", ErrInvalidConfiguration, s)
}

type Strategy string

const (
	Strategy_BuyHold       Strategy = "buy-hold"
	Strategy_Momentum      Strategy = "momentum"
	Strategy_MeanReversion Strategy = "mean-reversion"
	Strategy_Bollinger     Strategy = "bollinger"
	Strategy_RSI           Strategy = "rsi"
	Strategy_Breakout      Strategy = "breakout"
)

// Strategies in display order.
var Strategies = []StrategyOption{
	{ID: Strategy_BuyHold, Label: "Buy & Hold"},
	{ID: Strategy_Momentum, Label: "Momentum"},
	{ID: Strategy_MeanReversion, Label: "Mean Reversion"},
	{ID: Strategy_Bollinger, Label: "Bollinger Bands"},
	{ID: Strategy_RSI, Label: "RSI Strategy"},
	{ID: Strategy_Breakout, Label: "Breakout"},
}

type StrategyOption struct {
	ID    Strategy `json:"id"`
	Label string   `json:"label"`
}

func NewStrategy(s string) (Strategy, error) {
	for _, option := range Strategies {
		if strings.EqualFold(string(option.ID), strings.TrimSpace(s)) {
			return option.ID, nil
		}
	}
	return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, s)
}

// PortfolioAnalysisRequest is an immutable snapshot of the portfolio taken
// at submission time.
type PortfolioAnalysisRequest struct {
	Positions          []Position
	RebalanceFrequency RebalanceFrequency
}

func NewPortfolioAnalysisRequest(p *Portfolio, frequency RebalanceFrequency) PortfolioAnalysisRequest {
	return PortfolioAnalysisRequest{
		Positions:          p.Positions(),
		RebalanceFrequency: frequency,
	}
}

// Fractions returns the weights as fractions of 1, the unit the analytics
// service expects.
func (r PortfolioAnalysisRequest) Fractions() []decimal.Decimal {
	out := make([]decimal.Decimal, len(r.Positions))
	for i, position := range r.Positions {
		out[i] = position.Weight.Div(hundred)
	}
	return out
}

func (r PortfolioAnalysisRequest) Validate() error {
	if len(r.Positions) < MinPositions || len(r.Positions) > MaxPositions {
		return fmt.Errorf("%w: %d positions", ErrInvalidConfiguration, len(r.Positions))
	}
	total := decimal.Zero
	for _, position := range r.Positions {
		if position.Symbol == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfiguration, ErrEmptySymbol)
		}
		total = total.Add(position.Weight)
	}
	if !total.Equal(hundred) {
		return fmt.Errorf("%w (total %s%%)", ErrNotBalanced, total.StringFixed(2))
	}
	if _, err := NewRebalanceFrequency(string(r.RebalanceFrequency)); err != nil {
		return err
	}
	return nil
}

// BacktestRequest configures the single-asset page.
type BacktestRequest struct {
	Symbol    string
	Strategy  Strategy
	Parameter int
}

func (r BacktestRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, ErrEmptySymbol)
	}
	if _, err := NewStrategy(string(r.Strategy)); err != nil {
		return err
	}
	if r.Parameter <= 0 {
		return fmt.Errorf("%w: parameter must be positive, got %d", ErrInvalidConfiguration, r.Parameter)
	}
	return nil
}

// BannerRequest asks for quotes of every banner symbol at once.
type BannerRequest struct {
	Tickers []BannerTicker
}

func (r BannerRequest) Validate() error {
	if len(r.Tickers) == 0 {
		return fmt.Errorf("%w: no banner tickers", ErrInvalidConfiguration)
	}
	return nil
}

type BacktestPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	Price float64 `json:"price"`
}

type BacktestResult struct {
	Ticker         string          `json:"ticker"`
	Strategy       Strategy        `json:"strategy"`
	Period         int             `json:"period"`
	StrategyReturn float64         `json:"strategy_return"`
	SharpeRatio    float64         `json:"sharpe_ratio"`
	MaxDrawdown    float64         `json:"max_drawdown"`
	History        []BacktestPoint `json:"history"`
}

// SingleAssetResult pairs the quote with the backtest; both come from one
// submission so they are replaced together.
type SingleAssetResult struct {
	Quote    *AssetQuote     `json:"quote"`
	Backtest *BacktestResult `json:"backtest"`
}

type PortfolioPoint struct {
	Date      string  `json:"date" csv:"date"`
	Portfolio float64 `json:"portfolio" csv:"portfolio"`
}

type MLPrediction struct {
	Enabled           bool    `json:"enabled"`
	NextDayPrediction float64 `json:"next_day_prediction"`
	FiveDayCumulative float64 `json:"five_day_cumulative"`
	ModelAccuracy     float64 `json:"model_accuracy"`
	ModelR2           float64 `json:"model_r2"`
}

// PortfolioAnalysis is the /portfolio payload. It is held as a whole and
// replaced as a whole, never merged.
type PortfolioAnalysis struct {
	TotalValue          float64                       `json:"total_value"`
	TotalReturn         float64                       `json:"total_return"`
	PortfolioVolatility float64                       `json:"portfolio_volatility"`
	SharpeRatio         float64                       `json:"sharpe_ratio"`
	MaxDrawdown         float64                       `json:"max_drawdown"`
	SortinoRatio        *float64                      `json:"sortino_ratio,omitempty"`
	CalmarRatio         *float64                      `json:"calmar_ratio,omitempty"`
	OmegaRatio          *float64                      `json:"omega_ratio,omitempty"`
	VaR95               float64                       `json:"var_95"`
	CVaR95              float64                       `json:"cvar_95"`
	HitRatio            float64                       `json:"hit_ratio"`
	WinLossRatio        *float64                      `json:"win_loss_ratio,omitempty"`
	Skewness            float64                       `json:"skewness"`
	Kurtosis            float64                       `json:"kurtosis"`
	InformationRatio    *float64                      `json:"information_ratio,omitempty"`
	CorrelationMatrix   map[string]map[string]float64 `json:"correlation_matrix"`
	History             []PortfolioPoint              `json:"history"`
	MLPrediction        *MLPrediction                 `json:"ml_prediction,omitempty"`
}
