package contests

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all routes related to contests
// r: the router the routes are added to
// auth: middleware that resolves the bearer identity
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	// Public routes
	r.GET("/popular-contests", h.GetPopularContests)
	r.GET("/all-contests", h.GetConfirmedContests)
	r.GET("/contests/:id", h.GetContest)
	r.GET("/contests/slug/:slug", h.GetContestBySlug)
	r.GET("/ws/contests/:id", h.ContestWebSocket)

	contests := r.Group("/api/contests", auth)
	{
		contests.POST("", h.CreateContest)
		contests.POST("/declare-winner", h.DeclareWinner)
		contests.PATCH("/:id", h.UpdateContest)
	}

	r.DELETE("/creator/contests/:id", auth, h.DeleteContest)
}
