package users

import (
	"net/http"

	"contesthub/services"
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
)

// SaveUser creates or refreshes a user profile
// @Summary Save user
// @Description Create the profile on first sign-in or refresh its name and photo; the role is left unchanged
// @Tags Users
// @Accept json
// @Produce json
// @Param user body SaveUserRequest true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]string
// @Router /save-user [post]
func (h *Handler) SaveUser(c *gin.Context) {
	var req SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}

	user, err := h.users.Save(c.Request.Context(), services.UserInput{Email: req.Email, Name: req.Name, Photo: req.Photo})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// GetUserRole returns a user's role
// @Summary Get user role
// @Description Get the role of a user; unknown users are reported as User
// @Tags Users
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} RoleResponse
// @Router /user-role/{email} [get]
func (h *Handler) GetUserRole(c *gin.Context) {
	role, err := h.users.Role(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, RoleResponse{Role: string(role)})
}

// IssueToken signs a bearer token for a saved user
// @Summary Issue token
// @Description Issue a bearer token for a saved user. The request must carry the sign-in provider's HMAC proof for the email.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body TokenRequest true "User"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /jwt [post]
func (h *Handler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}

	if err := h.identity.Verify(req.Email, req.IssuedAt, req.Signature); err != nil {
		h.log.WithField("user_email", req.Email).Warn("Token request without a valid identity proof")
		response.FromError(c, h.log, err)
		return
	}

	user, err := h.users.ByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	token, expires, err := h.tokens.Issue(user.Email)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expires})
}
