package stub

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"net/http"
	"quantdash/internal/calculator"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/util"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Symbols starting with NoDataPrefix behave like delisted tickers.
const NoDataPrefix = "ZZ"

const defaultDays = 63

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.^=\-]{1,12}$`)

// Server is a development stand-in for the analytics service. It serves
// the same response shapes from synthetic, seeded price series, so a given
// symbol always yields the same numbers for a given end date.
type Server struct {
	End  time.Time
	Days int
}

func NewServer(end time.Time) *Server {
	return &Server{
		End:  time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC),
		Days: defaultDays,
	}
}

func (s Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.GET("/health", s.health)
	api.GET("/asset/:ticker", s.asset)
	api.POST("/backtest", s.backtest)
	api.POST("/portfolio", s.portfolio)

	return router
}

func (s Server) Run(port int) error {
	logger.New().Infow("starting analytics stub", "port", port, "end", s.End.Format(util.DateLayout))
	return s.Router().Run(fmt.Sprintf(":%d", port))
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (s Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"message": "analytics stub, synthetic data",
	})
}

func (s Server) asset(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("ticker"))
	prices, err := s.series(symbol)
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusNotFound)
		return
	}

	last := prices[len(prices)-1].Price
	prev := prices[len(prices)-2].Price
	c.JSON(http.StatusOK, domain.AssetQuote{
		Ticker:       symbol,
		CurrentPrice: last,
		PriceChange:  (last/prev - 1) * 100,
		History:      prices,
	})
}

type backtestRequest struct {
	Ticker   string `json:"ticker"`
	Strategy string `json:"strategy"`
	Period   int    `json:"period"`
}

func (s Server) backtest(c *gin.Context) {
	req := backtestRequest{
		Strategy: string(domain.Strategy_BuyHold),
		Period:   20,
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	strategy, err := domain.NewStrategy(req.Strategy)
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	if req.Period <= 0 {
		returnErrorJsonCode(fmt.Errorf("period must be positive"), c, http.StatusBadRequest)
		return
	}

	symbol := strings.ToUpper(req.Ticker)
	prices, err := s.series(symbol)
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusNotFound)
		return
	}

	values := Backtest(closes(prices), strategy, req.Period)
	metrics, err := calculator.CalculateMetrics(values)
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusInternalServerError)
		return
	}

	history := make([]domain.BacktestPoint, len(prices))
	for i, p := range prices {
		history[i] = domain.BacktestPoint{
			Date:  p.Date,
			Value: values[i],
			Price: p.Price,
		}
	}
	c.JSON(http.StatusOK, domain.BacktestResult{
		Ticker:         symbol,
		Strategy:       strategy,
		Period:         req.Period,
		StrategyReturn: metrics.TotalReturn,
		SharpeRatio:    metrics.SharpeRatio,
		MaxDrawdown:    metrics.MaxDrawdown,
		History:        history,
	})
}

type portfolioRequest struct {
	Assets []struct {
		Ticker string  `json:"ticker"`
		Weight float64 `json:"weight"`
	} `json:"assets"`
	RebalanceFreq string `json:"rebalance_freq"`
}

func (s Server) portfolio(c *gin.Context) {
	req := portfolioRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	if len(req.Assets) < domain.MinPositions {
		returnErrorJsonCode(fmt.Errorf("at least %d assets required", domain.MinPositions), c, http.StatusBadRequest)
		return
	}
	frequency := domain.RebalanceFrequency_Monthly
	if req.RebalanceFreq != "" {
		f, err := domain.NewRebalanceFrequency(req.RebalanceFreq)
		if err != nil {
			returnErrorJsonCode(err, c, http.StatusBadRequest)
			return
		}
		frequency = f
	}

	symbols := []string{}
	weights := []float64{}
	seriesBySymbol := map[string][]float64{}
	var dates []string
	for _, asset := range req.Assets {
		symbol := strings.ToUpper(asset.Ticker)
		prices, err := s.series(symbol)
		if err != nil {
			returnErrorJsonCode(err, c, http.StatusNotFound)
			return
		}
		symbols = append(symbols, symbol)
		weights = append(weights, asset.Weight)
		seriesBySymbol[symbol] = closes(prices)
		dates = dates[:0]
		for _, p := range prices {
			dates = append(dates, p.Date)
		}
	}

	values := SimulatePortfolio(symbols, weights, seriesBySymbol, frequency)
	metrics, err := calculator.CalculateMetrics(values)
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusInternalServerError)
		return
	}

	correlation, err := correlationMatrix(symbols, seriesBySymbol)
	if err != nil {
		returnErrorJsonCode(err, c, http.StatusInternalServerError)
		return
	}

	out := domain.PortfolioAnalysis{
		TotalValue:          values[len(values)-1],
		TotalReturn:         metrics.TotalReturn,
		PortfolioVolatility: metrics.AnnualizedStdev,
		SharpeRatio:         metrics.SharpeRatio,
		MaxDrawdown:         metrics.MaxDrawdown,
		SortinoRatio:        floatPtr(metrics.SortinoRatio),
		CalmarRatio:         floatPtr(metrics.CalmarRatio),
		OmegaRatio:          floatPtr(metrics.OmegaRatio),
		VaR95:               metrics.VaR95,
		CVaR95:              metrics.CVaR95,
		HitRatio:            metrics.HitRatio,
		WinLossRatio:        floatPtr(metrics.WinLossRatio),
		Skewness:            metrics.Skewness,
		Kurtosis:            metrics.Kurtosis,
		CorrelationMatrix:   correlation,
		History:             make([]domain.PortfolioPoint, len(values)),
	}
	for i, v := range values {
		out.History[i] = domain.PortfolioPoint{Date: dates[i], Portfolio: v}
	}

	if benchmark, err := s.series("^GSPC"); err == nil {
		if ir, err := informationRatio(values, closes(benchmark)); err == nil {
			out.InformationRatio = floatPtr(ir)
		}
	}
	out.MLPrediction = trendPrediction(values)

	c.JSON(http.StatusOK, out)
}

// series is a seeded random walk per symbol.
func (s Server) series(symbol string) ([]domain.PricePoint, error) {
	if !symbolPattern.MatchString(symbol) || strings.HasPrefix(symbol, NoDataPrefix) {
		return nil, fmt.Errorf("no data found for %s", symbol)
	}
	days := s.Days
	if days < 3 {
		days = defaultDays
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()
	rng := rand.New(rand.NewSource(int64(seed)))

	price := 20 + float64(seed%480)
	drift := (float64(seed%21) - 8) / 10000
	vol := 0.008 + float64(seed%17)/1000

	out := make([]domain.PricePoint, 0, days)
	for _, day := range util.TradingDays(s.End, days) {
		out = append(out, domain.PricePoint{
			Date:  day.Format(util.DateLayout),
			Price: math.Round(price*100) / 100,
		})
		price *= 1 + drift + vol*rng.NormFloat64()
		if price < 1 {
			price = 1
		}
	}
	return out, nil
}

func closes(prices []domain.PricePoint) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Price
	}
	return out
}

func correlationMatrix(symbols []string, seriesBySymbol map[string][]float64) (map[string]map[string]float64, error) {
	returns := map[string][]float64{}
	for _, symbol := range symbols {
		r, err := calculator.DailyReturns(seriesBySymbol[symbol])
		if err != nil {
			return nil, err
		}
		returns[symbol] = r
	}

	out := map[string]map[string]float64{}
	for _, a := range symbols {
		out[a] = map[string]float64{}
		for _, b := range symbols {
			if a == b {
				out[a][b] = 1
				continue
			}
			c, err := calculator.Correlation(returns[a], returns[b])
			if err != nil {
				return nil, fmt.Errorf("failed to correlate %s and %s: %w", a, b, err)
			}
			out[a][b] = c
		}
	}
	return out, nil
}

func informationRatio(values, benchmark []float64) (float64, error) {
	r, err := calculator.DailyReturns(values)
	if err != nil {
		return 0, err
	}
	b, err := calculator.DailyReturns(benchmark)
	if err != nil {
		return 0, err
	}
	if len(r) != len(b) {
		return 0, fmt.Errorf("series length mismatch")
	}
	active := make([]float64, len(r))
	for i := range r {
		active[i] = r[i] - b[i]
	}
	var mean, sq float64
	for _, a := range active {
		mean += a
	}
	mean /= float64(len(active))
	for _, a := range active {
		sq += (a - mean) * (a - mean)
	}
	sd := math.Sqrt(sq / float64(len(active)-1))
	if sd == 0 {
		return 0, fmt.Errorf("zero tracking error")
	}
	return mean / sd * math.Sqrt(252), nil
}

// trendPrediction extrapolates the recent average daily move.
func trendPrediction(values []float64) *domain.MLPrediction {
	r, err := calculator.DailyReturns(values)
	if err != nil {
		return &domain.MLPrediction{Enabled: false}
	}
	window := r
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	var mean float64
	for _, x := range window {
		mean += x
	}
	mean /= float64(len(window))
	return &domain.MLPrediction{
		Enabled:           true,
		NextDayPrediction: mean * 100,
		FiveDayCumulative: (math.Pow(1+mean, 5) - 1) * 100,
		ModelAccuracy:     55,
		ModelR2:           0.1,
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
