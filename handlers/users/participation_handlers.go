package users

import (
	"net/http"
	"time"

	"contesthub/middleware"
	"contesthub/utils"
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
)

// GetUserRegistrations lists a user's registrations
// @Summary User registrations
// @Tags Dashboard
// @Produce json
// @Param userEmail path string true "User email"
// @Success 200 {array} models.Registration
// @Router /registrations/{userEmail} [get]
func (h *Handler) GetUserRegistrations(c *gin.Context) {
	registrations, err := h.queries.Registrations(c.Request.Context(), c.Param("userEmail"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, registrations)
}

// GetParticipatedContests lists the contests a user joined
// @Summary Participated contests
// @Description Contests the user registered for, with payment status and whether the deadline passed
// @Tags Dashboard
// @Produce json
// @Param userEmail path string true "User email"
// @Success 200 {array} services.ParticipatedContest
// @Router /participated-contests/{userEmail} [get]
func (h *Handler) GetParticipatedContests(c *gin.Context) {
	contests, err := h.queries.ParticipatedContests(c.Request.Context(), c.Param("userEmail"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contests)
}

// GetWinningContests lists the contests a user won
// @Summary Winning contests
// @Tags Dashboard
// @Produce json
// @Param userEmail path string true "User email"
// @Success 200 {array} models.Contest
// @Router /winning-contests/{userEmail} [get]
func (h *Handler) GetWinningContests(c *gin.Context) {
	contests, err := h.queries.WinningContests(c.Request.Context(), c.Param("userEmail"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contests)
}

// GetCreatorContests lists the contests a creator published
// @Summary Creator contests
// @Tags Dashboard
// @Produce json
// @Param creatorEmail path string true "Creator email"
// @Success 200 {array} models.Contest
// @Router /my-contests/{creatorEmail} [get]
func (h *Handler) GetCreatorContests(c *gin.Context) {
	contests, err := h.queries.CreatorContests(c.Request.Context(), c.Param("creatorEmail"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, contests)
}

// GetCreatorParticipants lists the participants of a creator's contests
// @Summary Creator participants
// @Description Registrations on the creator's contests with the contest name and the submitted task link
// @Tags Dashboard
// @Produce json
// @Param creatorEmail path string true "Creator email"
// @Success 200 {array} services.CreatorParticipant
// @Router /participates/{creatorEmail} [get]
func (h *Handler) GetCreatorParticipants(c *gin.Context) {
	participants, err := h.queries.CreatorParticipants(c.Request.Context(), c.Param("creatorEmail"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, participants)
}

// ExportCreatorParticipants downloads the creator's participants as a spreadsheet
// @Summary Export participants
// @Description Download the participants of the creator's contests as .xlsx; the creator or an admin only
// @Tags Dashboard
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param creatorEmail path string true "Creator email"
// @Success 200 {file} file
// @Failure 403 {object} map[string]string
// @Router /participates/{creatorEmail}/export [get]
// @Security Bearer
func (h *Handler) ExportCreatorParticipants(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)
	creator := c.Param("creatorEmail")
	if err := h.access.RequireSelf(c.Request.Context(), id.Email, creator); err != nil {
		response.FromError(c, h.log, err)
		return
	}

	participants, err := h.queries.CreatorParticipants(c.Request.Context(), creator)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	rows := make([]utils.ParticipantRow, 0, len(participants))
	for _, p := range participants {
		row := utils.ParticipantRow{
			ContestName:  p.ContestName,
			UserName:     p.UserName,
			UserEmail:    p.UserEmail,
			Amount:       p.Amount.StringFixed(2),
			RegisteredAt: p.CreatedAt,
			TaskLink:     p.TaskLink,
		}
		if p.TransactionID != nil {
			row.TransactionID = *p.TransactionID
		}
		rows = append(rows, row)
	}

	data, err := utils.ParticipantsWorkbook(rows)
	if err != nil {
		h.log.WithError(err).Error("Failed to build participants workbook")
		response.Error(c, http.StatusInternalServerError, ErrExportFailed)
		return
	}

	filename := "participants-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
