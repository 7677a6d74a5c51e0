package contests

import (
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
)

// ContestWebSocket streams live events for a contest
// @Summary Contest events
// @Description Upgrade to a websocket that receives participant, status and winner events for the contest
// @Tags Contests
// @Param id path string true "Contest ID"
// @Success 101
// @Failure 404 {object} map[string]string
// @Router /ws/contests/{id} [get]
func (h *Handler) ContestWebSocket(c *gin.Context) {
	contestID := c.Param("id")

	if _, err := h.contests.Get(c.Request.Context(), contestID); err != nil {
		response.FromError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).WithField("contest_id", contestID).Warn("WebSocket upgrade failed")
		return
	}

	h.hub.Register(contestID, conn)
	defer func() {
		h.hub.Unregister(contestID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
