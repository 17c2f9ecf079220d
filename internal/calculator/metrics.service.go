package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

const tradingDaysPerYear = 252

// CalculateMetricsResult is in percent wherever the analytics contract
// reports percent (returns, volatility, drawdown, VaR, hit ratio).
type CalculateMetricsResult struct {
	TotalReturn      float64
	AnnualizedReturn float64
	AnnualizedStdev  float64
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64
	CalmarRatio      float64
	OmegaRatio       float64
	VaR95            float64
	CVaR95           float64
	HitRatio         float64
	WinLossRatio     float64
	Skewness         float64
	Kurtosis         float64
}

// CalculateMetrics works off a daily value series, oldest first.
func CalculateMetrics(values []float64) (*CalculateMetricsResult, error) {
	returns, err := DailyReturns(values)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate returns: %w", err)
	}

	mean, err := stats.Mean(returns)
	if err != nil {
		return nil, err
	}
	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return nil, err
	}

	annualizedStdev := stdev * math.Sqrt(tradingDaysPerYear)
	totalReturn := values[len(values)-1]/values[0] - 1
	numYears := float64(len(returns)) / tradingDaysPerYear
	annualizedReturn := math.Pow(1+totalReturn, 1/numYears) - 1

	out := &CalculateMetricsResult{
		TotalReturn:      totalReturn * 100,
		AnnualizedReturn: annualizedReturn * 100,
		AnnualizedStdev:  annualizedStdev * 100,
		MaxDrawdown:      MaxDrawdown(values) * 100,
	}
	if stdev != 0 {
		out.SharpeRatio = mean / stdev * math.Sqrt(tradingDaysPerYear)
	}

	downside := []float64{}
	gains, losses := []float64{}, []float64{}
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
			losses = append(losses, r)
		} else if r > 0 {
			gains = append(gains, r)
		}
	}
	if len(downside) > 1 {
		downsideStdev, err := stats.StandardDeviationSample(downside)
		if err != nil {
			return nil, err
		}
		if downsideStdev != 0 {
			out.SortinoRatio = mean / downsideStdev * math.Sqrt(tradingDaysPerYear)
		}
	}
	if out.MaxDrawdown != 0 {
		out.CalmarRatio = out.AnnualizedReturn / math.Abs(out.MaxDrawdown)
	}

	sumGains, sumLosses := sum(gains), sum(losses)
	if sumLosses != 0 {
		out.OmegaRatio = sumGains / math.Abs(sumLosses)
	}
	out.HitRatio = float64(len(gains)) / float64(len(returns)) * 100
	if len(gains) > 0 && len(losses) > 0 {
		avgGain, _ := stats.Mean(gains)
		avgLoss, _ := stats.Mean(losses)
		out.WinLossRatio = avgGain / math.Abs(avgLoss)
	}

	out.VaR95, out.CVaR95, err = valueAtRisk(returns)
	if err != nil {
		return nil, err
	}
	out.Skewness, out.Kurtosis = moments(returns, mean)

	return out, nil
}

func DailyReturns(values []float64) ([]float64, error) {
	if len(values) < 3 {
		return nil, fmt.Errorf("cannot calculate metrics on < 3 values")
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			return nil, fmt.Errorf("zero value at index %d", i-1)
		}
		returns = append(returns, values[i]/values[i-1]-1)
	}
	return returns, nil
}

// MaxDrawdown is the largest peak to trough decline as a negative fraction.
func MaxDrawdown(values []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("series length mismatch: %d vs %d", len(a), len(b))
	}
	return stats.Correlation(a, b)
}

// valueAtRisk is historical, reported in percent of one day's move.
func valueAtRisk(returns []float64) (float64, float64, error) {
	var95, err := stats.PercentileNearestRank(returns, 5)
	if err != nil {
		return 0, 0, err
	}
	sorted := append([]float64{}, returns...)
	sort.Float64s(sorted)

	tail := []float64{}
	for _, r := range sorted {
		if r > var95 {
			break
		}
		tail = append(tail, r)
	}
	cvar95 := var95
	if len(tail) > 0 {
		cvar95, _ = stats.Mean(tail)
	}
	return var95 * 100, cvar95 * 100, nil
}

// moments returns skewness and excess kurtosis.
func moments(returns []float64, mean float64) (float64, float64) {
	var m2, m3, m4 float64
	for _, r := range returns {
		d := r - mean
		m2 += d * d
		m3 += d * d * d
		m4 += d * d * d * d
	}
	n := float64(len(returns))
	m2, m3, m4 = m2/n, m3/n, m4/n
	if m2 == 0 {
		return 0, 0
	}
	return m3 / math.Pow(m2, 1.5), m4/(m2*m2) - 3
}

func sum(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	out, _ := stats.Sum(values)
	return out
}
