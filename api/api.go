package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"quantdash/internal/app"
	"quantdash/internal/domain"
	"quantdash/internal/logger"
	"quantdash/internal/service"
	"quantdash/internal/tickers"
	"quantdash/pkg/analytics"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type ApiHandler struct {
	AnalyticsClient analytics.Client
	Sessions        *SessionRegistry
	Catalog         tickers.Catalog
	Clock           clockwork.Clock
	RefreshPeriod   time.Duration
	BannerPeriod    time.Duration
	AllowedOrigins  []string
	Logger          *zap.SugaredLogger
}

func (m ApiHandler) InitializeRouterEngine() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if len(m.AllowedOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = m.AllowedOrigins
		router.Use(cors.New(config))
	} else {
		router.Use(cors.Default())
	}
	router.Use(m.logRequestMiddlware)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(200, map[string]string{"message": "welcome to quantdash"})
	})
	router.GET("/health", m.health)
	router.GET("/tickers", m.searchTickers)

	router.POST("/sessions", m.createSession)
	router.GET("/sessions/:id", m.getSession)
	router.DELETE("/sessions/:id", m.deleteSession)
	router.POST("/sessions/:id/navigate", m.navigate)
	router.POST("/sessions/:id/notice/dismiss", m.dismissNotice)
	router.POST("/sessions/:id/overview/open", m.openModule)
	router.GET("/sessions/:id/stream", m.stream)
	router.POST("/sessions/:id/ticker-field/:event", m.tickerFieldEvent)

	router.POST("/sessions/:id/portfolio/positions", m.addPosition)
	router.DELETE("/sessions/:id/portfolio/positions/:index", m.removePosition)
	router.PATCH("/sessions/:id/portfolio/positions/:index", m.updatePosition)
	router.POST("/sessions/:id/portfolio/normalize", m.normalize)
	router.PUT("/sessions/:id/portfolio/rebalance", m.setRebalanceFrequency)
	router.POST("/sessions/:id/portfolio/analyze", m.analyzePortfolio)
	router.POST("/sessions/:id/portfolio/reset", m.resetPortfolio)
	router.GET("/sessions/:id/portfolio/history.csv", m.portfolioHistoryCsv)

	router.PUT("/sessions/:id/single-asset", m.configureSingleAsset)
	router.POST("/sessions/:id/single-asset/fetch", m.fetchSingleAsset)

	return router
}

func (m ApiHandler) StartApi(port int) error {
	router := m.InitializeRouterEngine()
	return router.Run(fmt.Sprintf(":%d", port))
}

func (m ApiHandler) newSessionContext() context.Context {
	return logger.WithContext(context.Background(), m.Logger)
}

// errorStatus keeps the error to status code mapping in one place.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, app.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, app.ErrViewNotMounted),
		errors.Is(err, service.ErrCoordinatorClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrMinimumSizeViolation),
		errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrEmptySymbol),
		errors.Is(err, domain.ErrNotBalanced),
		errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrUnknownTab):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRemote),
		errors.Is(err, domain.ErrTransportFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func returnErrorJson(err error, c *gin.Context) {
	returnErrorJsonCode(err, c, errorStatus(err))
}

func returnErrorJsonCode(err error, c *gin.Context, code int) {
	log := logger.FromContext(c.Request.Context())
	if code >= 500 {
		log.Errorw("request failed", "error", err, "status", code)
	} else {
		log.Infow("request rejected", "error", err, "status", code)
	}
	c.AbortWithStatusJSON(code, gin.H{
		"error": err.Error(),
	})
}

func (m ApiHandler) logRequestMiddlware(c *gin.Context) {
	start := time.Now()
	log := m.Logger.With(
		"method", c.Request.Method,
		"route", c.FullPath(),
	)
	if id := c.Param("id"); id != "" {
		log = log.With("sessionID", id)
	}
	c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), log))

	c.Next()

	log.Infow("handled request",
		"status", c.Writer.Status(),
		"durationMs", time.Since(start).Milliseconds(),
		"ip", c.ClientIP(),
	)
}
