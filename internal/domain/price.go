package domain

type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// AssetQuote is the /asset payload for one symbol.
type AssetQuote struct {
	Ticker       string       `json:"ticker"`
	CurrentPrice float64      `json:"current_price"`
	PriceChange  float64      `json:"price_change"`
	History      []PricePoint `json:"history,omitempty"`
}

type BannerTicker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var BannerTickers = []BannerTicker{
	{Symbol: "^GSPC", Name: "S&P 500"},
	{Symbol: "^DJI", Name: "Dow Jones"},
	{Symbol: "^IXIC", Name: "Nasdaq"},
	{Symbol: "^FCHI", Name: "CAC 40"},
	{Symbol: "AAPL", Name: "Apple"},
	{Symbol: "MSFT", Name: "Microsoft"},
	{Symbol: "GOOGL", Name: "Google"},
	{Symbol: "NVDA", Name: "Nvidia"},
	{Symbol: "TSLA", Name: "Tesla"},
	{Symbol: "MC.PA", Name: "LVMH"},
	{Symbol: "BTC-USD", Name: "Bitcoin"},
	{Symbol: "GC=F", Name: "Gold"},
}

// BannerQuote is one cell of the market banner. A failed symbol keeps its
// slot with Error set instead of failing the whole banner.
type BannerQuote struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
	Error  string  `json:"error,omitempty"`
}
