package api

import (
	"errors"
	"fmt"
	"net/http"
	"quantdash/internal/app"
	"quantdash/internal/domain"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

var errNoResult = errors.New("no analysis result yet")

func positionIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		returnErrorJsonCode(fmt.Errorf("invalid position index %q", c.Param("index")), c, http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (m ApiHandler) addPosition(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		return v.AddPosition()
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

func (m ApiHandler) removePosition(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	index, ok := positionIndex(c)
	if !ok {
		return
	}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		return v.RemovePosition(index)
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

type updatePositionRequest struct {
	Symbol *string          `json:"symbol"`
	Weight *decimal.Decimal `json:"weight"`
}

func (m ApiHandler) updatePosition(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	index, ok := positionIndex(c)
	if !ok {
		return
	}
	req := updatePositionRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}

	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		if req.Symbol != nil {
			if err := v.SetSymbol(index, *req.Symbol); err != nil {
				return err
			}
		}
		if req.Weight != nil {
			if err := v.SetWeight(index, *req.Weight); err != nil {
				return err
			}
		}
		return nil
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

func (m ApiHandler) normalize(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		v.Normalize()
		return nil
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

type rebalanceRequest struct {
	Frequency string `json:"frequency" binding:"required"`
}

func (m ApiHandler) setRebalanceFrequency(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	req := rebalanceRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		return v.SetFrequency(domain.RebalanceFrequency(req.Frequency))
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

func (m ApiHandler) analyzePortfolio(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		return v.Analyze()
	})
	respondWithSnapshot(c, s, err, http.StatusAccepted)
}

func (m ApiHandler) resetPortfolio(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		v.Reset()
		return nil
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

func (m ApiHandler) portfolioHistoryCsv(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}

	history := []domain.PortfolioPoint{}
	err := s.WithPortfolio(func(v *app.PortfolioView) error {
		result, ok := v.Result()
		if !ok || result == nil {
			return errNoResult
		}
		history = append(history, result.History...)
		return nil
	})
	if errors.Is(err, errNoResult) {
		returnErrorJsonCode(err, c, http.StatusNotFound)
		return
	}
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	out, err := gocsv.MarshalBytes(&history)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to marshal history: %w", err), c)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="portfolio-history.csv"`)
	c.Data(http.StatusOK, "text/csv", out)
}
