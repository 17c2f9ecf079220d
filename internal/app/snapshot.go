package app

import (
	"quantdash/internal/domain"
	"quantdash/internal/service"
	"quantdash/internal/tickers"
)

// Palette colours positions by index, wrapping after eight.
var Palette = []string{"#6366f1", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#06b6d4", "#f97316", "#ec4899"}

func ColorAt(index int) string {
	return Palette[index%len(Palette)]
}

type RefreshSnapshot struct {
	State    service.SchedulerState `json:"state"`
	PeriodMs int64                  `json:"periodMs"`
}

func newRefreshSnapshot(s *service.RefreshScheduler) RefreshSnapshot {
	return RefreshSnapshot{
		State:    s.State(),
		PeriodMs: s.Period().Milliseconds(),
	}
}

type FieldSnapshot struct {
	Text        string   `json:"text"`
	Suggestions []string `json:"suggestions"`
}

func newFieldSnapshot(f *tickers.Field) FieldSnapshot {
	return FieldSnapshot{
		Text:        f.Text(),
		Suggestions: f.Suggestions(),
	}
}

type PositionSnapshot struct {
	Symbol string        `json:"symbol"`
	Weight float64       `json:"weight"`
	Color  string        `json:"color"`
	Field  FieldSnapshot `json:"field"`
}

type PortfolioSnapshot struct {
	Tab                domain.Tab                `json:"tab"`
	Positions          []PositionSnapshot        `json:"positions"`
	TotalWeight        float64                   `json:"totalWeight"`
	Balanced           bool                      `json:"balanced"`
	CanAdd             bool                      `json:"canAdd"`
	CanRemove          bool                      `json:"canRemove"`
	RebalanceFrequency domain.RebalanceFrequency `json:"rebalanceFrequency"`
	Loading            bool                      `json:"loading"`
	Result             *domain.PortfolioAnalysis `json:"result"`
	Refresh            RefreshSnapshot           `json:"refresh"`
}

type SingleAssetSnapshot struct {
	Tab             domain.Tab                `json:"tab"`
	Symbol          string                    `json:"symbol"`
	Field           FieldSnapshot             `json:"field"`
	Strategy        domain.Strategy           `json:"strategy"`
	Parameter       int                       `json:"parameter"`
	Strategies      []domain.StrategyOption   `json:"strategies"`
	InitialLoadDone bool                      `json:"initialLoadDone"`
	Loading         bool                      `json:"loading"`
	Result          *domain.SingleAssetResult `json:"result"`
	Refresh         RefreshSnapshot           `json:"refresh"`
}

type ModuleCard struct {
	ID          domain.Tab `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Metrics     []string   `json:"metrics"`
}

type MetricInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type OverviewSnapshot struct {
	Tab     domain.Tab   `json:"tab"`
	Modules []ModuleCard `json:"modules"`
	Metrics []MetricInfo `json:"metrics"`
}

type BannerSnapshot struct {
	Quotes  []domain.BannerQuote `json:"quotes"`
	Loading bool                 `json:"loading"`
	Refresh RefreshSnapshot      `json:"refresh"`
}

type SessionSnapshot struct {
	ID        string         `json:"id"`
	ActiveTab domain.Tab     `json:"activeTab"`
	Notice    *string        `json:"notice"`
	Banner    BannerSnapshot `json:"banner"`
	View      interface{}    `json:"view"`
}
