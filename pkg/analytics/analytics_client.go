package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10
)

//go:generate mockgen -source=analytics_client.go -destination=mocks/mock_analytics_client.go

// Client talks to the remote analytics service. Any response carrying a
// non-empty "error" field is returned as a *RemoteError.
type Client interface {
	Health(ctx context.Context) (*HealthResponse, error)
	GetAsset(ctx context.Context, symbol string) (*domain.AssetQuote, error)
	Backtest(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error)
	AnalyzePortfolio(ctx context.Context, req domain.PortfolioAnalysisRequest) (*domain.PortfolioAnalysis, error)
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h HealthResponse) Online() bool {
	return h.Status == "online" || h.Status == "ok"
}

type ClientOption func(*clientHandler)

func WithHttpClient(httpClient *http.Client) ClientOption {
	return func(c *clientHandler) {
		c.HttpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientHandler) {
		c.HttpClient.Timeout = timeout
	}
}

func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *clientHandler) {
		c.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

func NewClient(baseURL string, opts ...ClientOption) Client {
	c := &clientHandler{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HttpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type clientHandler struct {
	BaseURL    string
	HttpClient *http.Client
	Limiter    *rate.Limiter
}

func (c clientHandler) Health(ctx context.Context) (*HealthResponse, error) {
	out := HealthResponse{}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c clientHandler) GetAsset(ctx context.Context, symbol string) (*domain.AssetQuote, error) {
	out := domain.AssetQuote{}
	if err := c.do(ctx, http.MethodGet, "/asset/"+url.PathEscape(symbol), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type backtestRequestBody struct {
	Ticker   string `json:"ticker"`
	Strategy string `json:"strategy"`
	Period   int    `json:"period"`
}

func (c clientHandler) Backtest(ctx context.Context, req domain.BacktestRequest) (*domain.BacktestResult, error) {
	body := backtestRequestBody{
		Ticker:   req.Symbol,
		Strategy: string(req.Strategy),
		Period:   req.Parameter,
	}
	out := domain.BacktestResult{}
	if err := c.do(ctx, http.MethodPost, "/backtest", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type portfolioAsset struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

type portfolioRequestBody struct {
	Assets        []portfolioAsset `json:"assets"`
	RebalanceFreq string           `json:"rebalance_freq"`
}

func (c clientHandler) AnalyzePortfolio(ctx context.Context, req domain.PortfolioAnalysisRequest) (*domain.PortfolioAnalysis, error) {
	body := portfolioRequestBody{
		Assets:        []portfolioAsset{},
		RebalanceFreq: string(req.RebalanceFrequency),
	}
	fractions := req.Fractions()
	for i, position := range req.Positions {
		body.Assets = append(body.Assets, portfolioAsset{
			Ticker: position.Symbol,
			Weight: fractions[i].InexactFloat64(),
		})
	}
	out := domain.PortfolioAnalysis{}
	if err := c.do(ctx, http.MethodPost, "/portfolio", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type errorBody struct {
	Error string `json:"error"`
}

func (c clientHandler) do(ctx context.Context, method, path string, in, out interface{}) error {
	log := logger.FromContext(ctx)

	if err := c.Limiter.Wait(ctx); err != nil {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	var bodyReader io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := c.HttpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer response.Body.Close()

	responseBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("received status code %d and failed to read body: %w", response.StatusCode, err)}
	}
	log.Debugw("analytics call", "method", method, "path", path, "status", response.StatusCode, "elapsedMs", time.Since(start).Milliseconds())

	// the service reports failures in-band, sometimes alongside a 200
	errJson := errorBody{}
	_ = json.Unmarshal(responseBytes, &errJson)
	if errJson.Error != "" {
		return &RemoteError{StatusCode: response.StatusCode, Message: errJson.Error}
	}
	if response.StatusCode >= 400 {
		return &RemoteError{StatusCode: response.StatusCode, Message: fmt.Sprintf("failed with status code %d: %s", response.StatusCode, strings.TrimSpace(string(responseBytes)))}
	}

	if err := json.Unmarshal(responseBytes, out); err != nil {
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
