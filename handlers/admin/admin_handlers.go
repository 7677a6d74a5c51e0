package admin

import (
	"net/http"

	"contesthub/middleware"
	"contesthub/models"
	"contesthub/services"
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler serves the admin dashboard; every route runs behind RequireAdmin
type Handler struct {
	users      *services.UserService
	contests   *services.ContestService
	queries    *services.QueryService
	reconciler *services.Reconciler
	log        logrus.FieldLogger
}

func NewHandler(svc *services.Services, log logrus.FieldLogger) *Handler {
	return &Handler{
		users:      svc.Users,
		contests:   svc.Contests,
		queries:    svc.Queries,
		reconciler: svc.Reconciler,
		log:        log,
	}
}

// GetAllUsers lists every user
// @Summary All users
// @Tags Admin
// @Produce json
// @Success 200 {array} models.User
// @Failure 403 {object} map[string]string
// @Router /admin/users [get]
// @Security Bearer
func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.queries.AllUsers(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// SetUserRole changes a user's role
// @Summary Set user role
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param role body SetRoleRequest true "Role"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/users/{id}/role [patch]
// @Security Bearer
func (h *Handler) SetUserRole(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}

	user, err := h.users.SetRole(c.Request.Context(), id.Email, c.Param("id"), models.Role(req.Role))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// DeleteUser removes a user profile
// @Summary Delete user
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/users/{id} [delete]
// @Security Bearer
func (h *Handler) DeleteUser(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	if err := h.users.Delete(c.Request.Context(), id.Email, c.Param("id")); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "User deleted")
}

// GetAllContests lists every contest regardless of status
// @Summary All contests
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Contest
// @Router /admin/contests [get]
// @Security Bearer
func (h *Handler) GetAllContests(c *gin.Context) {
	contests, err := h.queries.AllContests(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contests)
}

// SetContestStatus confirms or rejects a pending contest
// @Summary Set contest status
// @Description Move a Pending contest to Confirmed or Rejected; the decision is final
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Contest ID"
// @Param status body SetStatusRequest true "Status"
// @Success 200 {object} models.Contest
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/contests/{id}/status [patch]
// @Security Bearer
func (h *Handler) SetContestStatus(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}

	contest, err := h.contests.SetStatus(c.Request.Context(), id.Email, c.Param("id"), models.ContestStatus(req.Status))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// DeleteContest removes a pending contest
// @Summary Delete contest
// @Tags Admin
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /admin/contests/{id} [delete]
// @Security Bearer
func (h *Handler) DeleteContest(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	if err := h.contests.Delete(c.Request.Context(), id.Email, c.Param("id")); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Contest deleted")
}

// ReconcileParticipants recomputes participant counters from registrations
// @Summary Reconcile participants
// @Tags Admin
// @Produce json
// @Success 200 {object} ReconcileResponse
// @Router /admin/contests/reconcile [post]
// @Security Bearer
func (h *Handler) ReconcileParticipants(c *gin.Context) {
	adjusted, err := h.reconciler.ReconcileParticipants(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, ReconcileResponse{Adjusted: adjusted})
}

// RegisterRoutes registers the admin routes behind authentication and the admin check
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc, requireAdmin gin.HandlerFunc) {
	admin := r.Group("/admin", auth, requireAdmin)
	{
		admin.GET("/users", h.GetAllUsers)
		admin.PATCH("/users/:id/role", h.SetUserRole)
		admin.DELETE("/users/:id", h.DeleteUser)

		admin.GET("/contests", h.GetAllContests)
		admin.POST("/contests/reconcile", h.ReconcileParticipants)
		admin.PATCH("/contests/:id/status", h.SetContestStatus)
		admin.DELETE("/contests/:id", h.DeleteContest)
	}
}
