package api

import (
	"fmt"
	"net/http"
	"quantdash/internal/tickers"

	"github.com/gin-gonic/gin"
)

type searchTickersResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

func (m ApiHandler) searchTickers(c *gin.Context) {
	query := c.Query("q")
	c.JSON(http.StatusOK, searchTickersResponse{
		Query:       query,
		Suggestions: m.Catalog.Search(query),
	})
}

type tickerFieldRequest struct {
	// portfolio row; ignored on the single asset page
	Row  int    `json:"row"`
	Text string `json:"text"`
}

func (m ApiHandler) tickerFieldEvent(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	req := tickerFieldRequest{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			returnErrorJsonCode(err, c, http.StatusBadRequest)
			return
		}
	}

	var apply func(f *tickers.Field)
	switch event := c.Param("event"); event {
	case "type":
		apply = func(f *tickers.Field) { f.Type(req.Text) }
	case "select":
		apply = func(f *tickers.Field) { f.Select(req.Text) }
	case "blur":
		apply = func(f *tickers.Field) { f.Blur() }
	case "focus":
		apply = func(f *tickers.Field) { f.Focus() }
	default:
		returnErrorJsonCode(fmt.Errorf("unknown ticker field event %q", event), c, http.StatusNotFound)
		return
	}

	err := s.WithField(req.Row, func(f *tickers.Field) error {
		apply(f)
		return nil
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}
