package contests

import (
	"net/http"

	"contesthub/middleware"
	"contesthub/realtime"
	"contesthub/services"
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler serves the contest catalogue and the creator's contest management
type Handler struct {
	contests *services.ContestService
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewHandler(contests *services.ContestService, hub *realtime.Hub, log logrus.FieldLogger) *Handler {
	return &Handler{
		contests: contests,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// GetPopularContests returns the contests with the most participants
// @Summary Popular contests
// @Description Get the contests with the most participants
// @Tags Contests
// @Produce json
// @Success 200 {array} models.Contest
// @Failure 500 {object} map[string]string
// @Router /popular-contests [get]
func (h *Handler) GetPopularContests(c *gin.Context) {
	contests, err := h.contests.ListPopular(c.Request.Context())
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contests)
}

// GetConfirmedContests lists confirmed contests, optionally by category
// @Summary Confirmed contests
// @Description Get every confirmed contest; search narrows to one category (case-insensitive)
// @Tags Contests
// @Produce json
// @Param search query string false "Contest category"
// @Success 200 {array} models.Contest
// @Failure 500 {object} map[string]string
// @Router /all-contests [get]
func (h *Handler) GetConfirmedContests(c *gin.Context) {
	contests, err := h.contests.ListConfirmed(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contests)
}

// GetContest returns one contest
// @Summary Get contest
// @Description Get a contest by id
// @Tags Contests
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {object} models.Contest
// @Failure 404 {object} map[string]string
// @Router /contests/{id} [get]
func (h *Handler) GetContest(c *gin.Context) {
	contest, err := h.contests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// GetContestBySlug returns one contest by its slug
// @Summary Get contest by slug
// @Tags Contests
// @Produce json
// @Param slug path string true "Contest slug"
// @Success 200 {object} models.Contest
// @Failure 404 {object} map[string]string
// @Router /contests/slug/{slug} [get]
func (h *Handler) GetContestBySlug(c *gin.Context) {
	contest, err := h.contests.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// CreateContest publishes a new contest for review
// @Summary Create contest
// @Description Create a contest owned by the caller; it starts Pending until an admin confirms it
// @Tags Contests
// @Accept json
// @Produce json
// @Param contest body CreateContestRequest true "Contest"
// @Success 201 {object} models.Contest
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/contests [post]
// @Security Bearer
func (h *Handler) CreateContest(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req CreateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}
	deadline, ok := parseDeadline(req.Deadline)
	if !ok {
		response.Error(c, http.StatusBadRequest, ErrInvalidDeadline)
		return
	}

	contest, err := h.contests.Create(c.Request.Context(), req.input(id.Email, deadline))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, contest)
}

// UpdateContest edits a pending contest
// @Summary Update contest
// @Description Edit a contest while it is still Pending; creator or admin only
// @Tags Contests
// @Accept json
// @Produce json
// @Param id path string true "Contest ID"
// @Param contest body UpdateContestRequest true "Fields to change"
// @Success 200 {object} models.Contest
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/contests/{id} [patch]
// @Security Bearer
func (h *Handler) UpdateContest(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req UpdateContestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}
	patch, ok := req.patch()
	if !ok {
		response.Error(c, http.StatusBadRequest, ErrInvalidDeadline)
		return
	}

	contest, err := h.contests.Update(c.Request.Context(), id.Email, c.Param("id"), patch)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}

// DeleteContest removes a pending contest
// @Summary Delete contest
// @Description Delete a contest while it is still Pending; creator or admin only
// @Tags Contests
// @Produce json
// @Param id path string true "Contest ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /creator/contests/{id} [delete]
// @Security Bearer
func (h *Handler) DeleteContest(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	if err := h.contests.Delete(c.Request.Context(), id.Email, c.Param("id")); err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Message(c, http.StatusOK, "Contest deleted")
}

// DeclareWinner crowns a registered participant
// @Summary Declare winner
// @Description Set the winner of a contest; can only happen once
// @Tags Contests
// @Accept json
// @Produce json
// @Param winner body DeclareWinnerRequest true "Winner"
// @Success 200 {object} models.Contest
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/contests/declare-winner [post]
// @Security Bearer
func (h *Handler) DeclareWinner(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req DeclareWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}

	contest, err := h.contests.DeclareWinner(c.Request.Context(), id.Email, req.ContestID, services.WinnerInput{
		Email: req.WinnerEmail,
		Name:  req.WinnerName,
		Photo: req.WinnerPhoto,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contest)
}
