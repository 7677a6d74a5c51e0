package registrations

import (
	"encoding/json"

	"contesthub/models"
)

const (
	ErrInvalidRequest = "Invalid request data"
	ErrMissingQuery   = "contestId and email are required"
)

// CheckoutRequest is the body of POST /create-checkout-session
type CheckoutRequest struct {
	ContestID string          `json:"contestId" binding:"required"`
	Amount    json.RawMessage `json:"amount" swaggertype:"number"`
	UserEmail string          `json:"userEmail" binding:"required,email"`
	UserName  string          `json:"userName"`
	UserPhoto string          `json:"userPhoto"`
}

// CheckoutResponse carries the hosted checkout link
type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// PaymentSuccessRequest is the body of POST /payment-success
type PaymentSuccessRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// PaymentSuccessResponse reports the registration created for the session
type PaymentSuccessResponse struct {
	Message      string               `json:"message"`
	Duplicate    bool                 `json:"duplicate"`
	Registration *models.Registration `json:"registration"`
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	ContestID string `json:"contestId" binding:"required"`
	UserEmail string `json:"userEmail" binding:"required,email"`
	UserName  string `json:"userName"`
	UserPhoto string `json:"userPhoto"`
}

// RegisteredResponse answers GET /registrations/check
type RegisteredResponse struct {
	Registered bool `json:"registered"`
}
