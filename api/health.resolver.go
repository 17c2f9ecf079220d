package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type analyticsHealth struct {
	Online  bool   `json:"online"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string          `json:"status"`
	Sessions  int             `json:"sessions"`
	Analytics analyticsHealth `json:"analytics"`
}

// health reports on the dashboard itself even when the analytics service
// is down.
func (m ApiHandler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	out := healthResponse{
		Status:   "ok",
		Sessions: m.Sessions.Len(),
	}
	resp, err := m.AnalyticsClient.Health(ctx)
	if err != nil {
		out.Analytics.Error = err.Error()
	} else {
		out.Analytics = analyticsHealth{
			Online:  resp.Online(),
			Status:  resp.Status,
			Message: resp.Message,
		}
	}
	c.JSON(http.StatusOK, out)
}
