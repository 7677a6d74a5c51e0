package registrations

import (
	"net/http"

	"contesthub/middleware"
	"contesthub/services"
	"contesthub/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	registrations *services.RegistrationService
	access        *services.AccessService
	log           logrus.FieldLogger
}

func NewHandler(registrations *services.RegistrationService, access *services.AccessService, log logrus.FieldLogger) *Handler {
	return &Handler{registrations: registrations, access: access, log: log}
}

// CreateCheckoutSession starts a hosted payment for the contest entry fee
// @Summary Start checkout
// @Description Open a hosted checkout session for the caller's registration; amount defaults to the entry fee
// @Tags Registrations
// @Accept json
// @Produce json
// @Param checkout body CheckoutRequest true "Checkout"
// @Success 200 {object} CheckoutResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /create-checkout-session [post]
// @Security Bearer
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}
	if err := h.access.RequireSelf(c.Request.Context(), id.Email, req.UserEmail); err != nil {
		response.FromError(c, h.log, err)
		return
	}

	var amount decimal.NullDecimal
	if len(req.Amount) > 0 {
		if err := amount.UnmarshalJSON(req.Amount); err != nil {
			response.Error(c, http.StatusBadRequest, h.registrations.EntryFeeMessage())
			return
		}
	}

	checkout, err := h.registrations.InitiateCheckout(c.Request.Context(), req.ContestID, services.Participant{
		Email: req.UserEmail,
		Name:  req.UserName,
		Photo: req.UserPhoto,
	}, amount)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, CheckoutResponse{URL: checkout.URL, SessionID: checkout.SessionID})
}

// PaymentSuccess confirms a checkout session and registers the payer
// @Summary Confirm payment
// @Description Confirm a paid checkout session; confirming the same session again returns the existing registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param session body PaymentSuccessRequest true "Session"
// @Success 200 {object} PaymentSuccessResponse
// @Success 201 {object} PaymentSuccessResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /payment-success [post]
func (h *Handler) PaymentSuccess(c *gin.Context) {
	var req PaymentSuccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, services.ErrMsgSessionRequired)
		return
	}

	result, err := h.registrations.ConfirmPayment(c.Request.Context(), req.SessionID)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	if result.Duplicate {
		response.Success(c, http.StatusOK, PaymentSuccessResponse{Message: "Payment already confirmed", Duplicate: true, Registration: result.Registration})
		return
	}
	response.Success(c, http.StatusCreated, PaymentSuccessResponse{Message: "Registration successful", Registration: result.Registration})
}

// Register registers the caller without payment
// @Summary Register
// @Description Register for a contest directly
// @Tags Registrations
// @Accept json
// @Produce json
// @Param registration body RegisterRequest true "Registration"
// @Success 201 {object} models.Registration
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /register [post]
// @Security Bearer
func (h *Handler) Register(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, ErrInvalidRequest+": "+err.Error())
		return
	}
	if err := h.access.RequireSelf(c.Request.Context(), id.Email, req.UserEmail); err != nil {
		response.FromError(c, h.log, err)
		return
	}

	registration, err := h.registrations.RegisterDirect(c.Request.Context(), req.ContestID, services.Participant{
		Email: req.UserEmail,
		Name:  req.UserName,
		Photo: req.UserPhoto,
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, registration)
}

// CheckRegistration reports whether a user is registered for a contest
// @Summary Check registration
// @Tags Registrations
// @Produce json
// @Param contestId query string true "Contest ID"
// @Param email query string true "User email"
// @Success 200 {object} RegisteredResponse
// @Failure 400 {object} map[string]string
// @Router /registrations/check [get]
func (h *Handler) CheckRegistration(c *gin.Context) {
	contestID, email := c.Query("contestId"), c.Query("email")
	if contestID == "" || email == "" {
		response.Error(c, http.StatusBadRequest, ErrMissingQuery)
		return
	}

	registered, err := h.registrations.IsRegistered(c.Request.Context(), contestID, email)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, RegisteredResponse{Registered: registered})
}
