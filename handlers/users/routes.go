package users

import (
	"contesthub/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves user profiles and the user and creator dashboards
type Handler struct {
	users    *services.UserService
	queries  *services.QueryService
	access   *services.AccessService
	tokens   *services.TokenService
	identity *services.IdentityVerifier
	log      logrus.FieldLogger
}

func NewHandler(users *services.UserService, queries *services.QueryService, access *services.AccessService, tokens *services.TokenService, identity *services.IdentityVerifier, log logrus.FieldLogger) *Handler {
	return &Handler{users: users, queries: queries, access: access, tokens: tokens, identity: identity, log: log}
}

// RegisterRoutes registers all routes related to users
// r: the router the routes are added to
// auth: middleware that resolves the bearer identity
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	r.POST("/save-user", h.SaveUser)
	r.GET("/user-role/:email", h.GetUserRole)
	r.POST("/jwt", h.IssueToken)

	r.GET("/registrations/:userEmail", h.GetUserRegistrations)
	r.GET("/participated-contests/:userEmail", h.GetParticipatedContests)
	r.GET("/winning-contests/:userEmail", h.GetWinningContests)
	r.GET("/my-contests/:creatorEmail", h.GetCreatorContests)
	r.GET("/participates/:creatorEmail", h.GetCreatorParticipants)
	r.GET("/participates/:creatorEmail/export", auth, h.ExportCreatorParticipants)
}
