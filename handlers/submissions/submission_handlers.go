package submissions

import (
	"net/http"

	"contesthub/middleware"
	"contesthub/services"
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	submissions *services.SubmissionService
	access      *services.AccessService
	log         logrus.FieldLogger
}

func NewHandler(submissions *services.SubmissionService, access *services.AccessService, log logrus.FieldLogger) *Handler {
	return &Handler{submissions: submissions, access: access, log: log}
}

// SubmitTask hands in the caller's task link
// @Summary Submit task
// @Description Submit a task link for a contest the caller is registered for; one submission per contest
// @Tags Submissions
// @Accept json
// @Produce json
// @Param submission body SubmitTaskRequest true "Submission"
// @Success 201 {object} models.Submission
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /submit-task [post]
// @Security Bearer
func (h *Handler) SubmitTask(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}
	if err := h.access.RequireSelf(c.Request.Context(), id.Email, req.UserEmail); err != nil {
		response.FromError(c, h.log, err)
		return
	}

	submission, err := h.submissions.Submit(c.Request.Context(), req.ContestID, req.UserEmail, req.TaskLink)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, submission)
}

// CheckSubmission reports whether a user already submitted for a contest
// @Summary Check submission
// @Tags Submissions
// @Produce json
// @Param contestId query string true "Contest ID"
// @Param email query string true "User email"
// @Success 200 {object} SubmittedResponse
// @Failure 400 {object} map[string]string
// @Router /submissions/check [get]
func (h *Handler) CheckSubmission(c *gin.Context) {
	contestID, email := c.Query("contestId"), c.Query("email")
	if contestID == "" || email == "" {
		response.Error(c, http.StatusBadRequest, ErrMissingQuery)
		return
	}

	submitted, err := h.submissions.IsSubmitted(c.Request.Context(), contestID, email)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, SubmittedResponse{Submitted: submitted})
}

// RegisterRoutes registers the submission routes
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	r.POST("/submit-task", auth, h.SubmitTask)
	r.GET("/submissions/check", h.CheckSubmission)
}
