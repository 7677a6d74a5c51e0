package registrations

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the registration and payment routes
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc, checkoutLimit gin.HandlerFunc) {
	r.POST("/create-checkout-session", checkoutLimit, auth, h.CreateCheckoutSession)
	r.POST("/payment-success", checkoutLimit, h.PaymentSuccess)
	r.POST("/register", auth, h.Register)
	r.GET("/registrations/check", h.CheckRegistration)
}
