package api

import (
	"net/http"
	"quantdash/internal/app"

	"github.com/gin-gonic/gin"
)

type configureSingleAssetRequest struct {
	Symbol    *string `json:"symbol"`
	Strategy  *string `json:"strategy"`
	Parameter *int    `json:"parameter"`
}

func (m ApiHandler) configureSingleAsset(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	req := configureSingleAssetRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	err := s.WithSingleAsset(func(v *app.SingleAssetView) error {
		return v.Configure(app.SingleAssetUpdate{
			Symbol:    req.Symbol,
			Strategy:  req.Strategy,
			Parameter: req.Parameter,
		})
	})
	respondWithSnapshot(c, s, err, http.StatusOK)
}

func (m ApiHandler) fetchSingleAsset(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	err := s.WithSingleAsset(func(v *app.SingleAssetView) error {
		return v.Fetch()
	})
	respondWithSnapshot(c, s, err, http.StatusAccepted)
}
