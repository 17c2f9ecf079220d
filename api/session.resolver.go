package api

import (
	"fmt"
	"net/http"
	"quantdash/internal/app"
	"quantdash/internal/domain"

	"github.com/gin-gonic/gin"
)

func (m ApiHandler) lookupSession(c *gin.Context) (*app.Session, bool) {
	s, err := m.Sessions.Get(c.Param("id"))
	if err != nil {
		returnErrorJson(err, c)
		return nil, false
	}
	return s, true
}

// respondWithSnapshot answers with the session's view-model after err has
// been dealt with.
func respondWithSnapshot(c *gin.Context, s *app.Session, err error, code int) {
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	snapshot, err := s.Snapshot()
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	c.JSON(code, snapshot)
}

func (m ApiHandler) createSession(c *gin.Context) {
	s, err := app.NewSession(m.newSessionContext(), app.SessionOptions{
		Client:        m.AnalyticsClient,
		Clock:         m.Clock,
		Catalog:       m.Catalog,
		RefreshPeriod: m.RefreshPeriod,
		BannerPeriod:  m.BannerPeriod,
	})
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to create session: %w", err), c)
		return
	}
	m.Sessions.Add(s)
	respondWithSnapshot(c, s, nil, http.StatusCreated)
}

func (m ApiHandler) getSession(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	respondWithSnapshot(c, s, nil, http.StatusOK)
}

func (m ApiHandler) deleteSession(c *gin.Context) {
	if err := m.Sessions.Remove(c.Param("id")); err != nil {
		returnErrorJson(err, c)
		return
	}
	c.Status(http.StatusNoContent)
}

type navigateRequest struct {
	Tab string `json:"tab" binding:"required"`
}

func (m ApiHandler) navigate(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	req := navigateRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	tab, err := domain.NewTab(req.Tab)
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	respondWithSnapshot(c, s, s.Navigate(tab), http.StatusOK)
}

func (m ApiHandler) dismissNotice(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	respondWithSnapshot(c, s, s.DismissNotice(), http.StatusOK)
}

type openModuleRequest struct {
	Module string `json:"module" binding:"required"`
}

// openModule is the overview page's module card action.
func (m ApiHandler) openModule(c *gin.Context) {
	s, ok := m.lookupSession(c)
	if !ok {
		return
	}
	req := openModuleRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		returnErrorJsonCode(err, c, http.StatusBadRequest)
		return
	}
	respondWithSnapshot(c, s, s.OpenModule(domain.Tab(req.Module)), http.StatusOK)
}
