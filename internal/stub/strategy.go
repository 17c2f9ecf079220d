package stub

import (
	"math"
	"quantdash/internal/domain"
)

const startValue = 100.0

// Backtest runs strategy over closing prices and returns the equity curve,
// starting at 100. A position taken on day i earns day i+1's move.
func Backtest(prices []float64, strategy domain.Strategy, period int) []float64 {
	positions := signals(prices, strategy, period)

	values := make([]float64, len(prices))
	values[0] = startValue
	for i := 1; i < len(prices); i++ {
		ret := prices[i]/prices[i-1] - 1
		values[i] = values[i-1] * (1 + positions[i-1]*ret)
	}
	return values
}

func signals(prices []float64, strategy domain.Strategy, period int) []float64 {
	out := make([]float64, len(prices))
	held := 0.0
	for i := range prices {
		switch strategy {
		case domain.Strategy_BuyHold:
			held = 1
		case domain.Strategy_Momentum:
			if i >= period {
				held = boolToFloat(prices[i] > prices[i-period])
			}
		case domain.Strategy_MeanReversion:
			if i >= period-1 {
				mean, _ := meanStdev(prices[i-period+1 : i+1])
				held = boolToFloat(prices[i] < mean)
			}
		case domain.Strategy_Bollinger:
			if i >= period-1 {
				mean, sd := meanStdev(prices[i-period+1 : i+1])
				if prices[i] < mean-2*sd {
					held = 1
				} else if prices[i] > mean+2*sd {
					held = 0
				}
			}
		case domain.Strategy_RSI:
			if i >= period {
				r := rsi(prices[i-period : i+1])
				if r < 30 {
					held = 1
				} else if r > 70 {
					held = 0
				}
			}
		case domain.Strategy_Breakout:
			if i >= period {
				lo, hi := minMax(prices[i-period : i])
				if prices[i] > hi {
					held = 1
				} else if prices[i] < lo {
					held = 0
				}
			}
		}
		out[i] = held
	}
	return out
}

// SimulatePortfolio holds weights (fractions of 1) and lets them drift
// between rebalance days.
func SimulatePortfolio(symbols []string, weights []float64, seriesBySymbol map[string][]float64, frequency domain.RebalanceFrequency) []float64 {
	every := 21
	switch frequency {
	case domain.RebalanceFrequency_Daily:
		every = 1
	case domain.RebalanceFrequency_Weekly:
		every = 5
	}

	n := len(seriesBySymbol[symbols[0]])
	values := make([]float64, n)
	values[0] = startValue
	holdings := make([]float64, len(symbols))
	for j := range symbols {
		holdings[j] = startValue * weights[j]
	}

	for i := 1; i < n; i++ {
		total := 0.0
		for j, symbol := range symbols {
			prices := seriesBySymbol[symbol]
			holdings[j] *= prices[i] / prices[i-1]
			total += holdings[j]
		}
		values[i] = total
		if i%every == 0 {
			for j := range symbols {
				holdings[j] = total * weights[j]
			}
		}
	}
	return values
}

func meanStdev(values []float64) (float64, float64) {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

func rsi(prices []float64) float64 {
	var gain, loss float64
	for i := 1; i < len(prices); i++ {
		d := prices[i] - prices[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
