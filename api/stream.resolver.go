package api

import (
	"encoding/json"
	"quantdash/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// stream pushes the session snapshot over a websocket after every change,
// starting with the current one. The session is not reaped while the
// stream is open.
func (m ApiHandler) stream(c *gin.Context) {
	s, release, err := m.Sessions.Acquire(c.Param("id"))
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	defer release()
	log := logger.FromContext(c.Request.Context())

	updates, unsubscribe, err := s.Subscribe()
	if err != nil {
		returnErrorJson(err, c)
		return
	}
	defer unsubscribe()

	// UpgradeHTTP answers the client itself when the handshake fails
	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		log.Infow("failed to upgrade connection", "error", err)
		c.Abort()
		return
	}
	defer conn.Close()
	log.Info("stream opened")

	// the client never sends anything we act on; reading is only for
	// noticing that it went away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			log.Info("stream closed by client")
			return
		case snapshot, open := <-updates:
			if !open {
				_ = wsutil.WriteServerMessage(conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, "session closed"))
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				log.Errorw("failed to marshal snapshot", "error", err)
				return
			}
			if err := wsutil.WriteServerText(conn, payload); err != nil {
				log.Infow("stream write failed", "error", err)
				return
			}
		}
	}
}
