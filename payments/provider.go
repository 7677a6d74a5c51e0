// Package payments defines the hosted checkout boundary. Implementations live in sub-packages.
package payments

import (
	"context"
	"errors"
)

// Metadata keys attached to every checkout session
const (
	MetaContestID = "contestId"
	MetaUserEmail = "userEmail"
	MetaUserName  = "userName"
	MetaUserPhoto = "userPhoto"
)

// SessionIDPlaceholder is substituted by the provider in the success URL
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

var ErrSessionNotFound = errors.New("payment session not found")

type CheckoutRequest struct {
	ContestID   string
	ContestName string
	UserEmail   string
	UserName    string
	UserPhoto   string
	AmountMinor int64 // smallest currency unit
	Currency    string
	SuccessURL  string
	CancelURL   string
}

type Checkout struct {
	SessionID string
	URL       string
}

// Session is the provider's view of a checkout after the user left the hosted page
type Session struct {
	ID            string
	TransactionID string
	Paid          bool
	AmountMinor   int64
	Currency      string
	Metadata      map[string]string
}

type Provider interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}

// RequestMetadata builds the metadata map stored on the session
func RequestMetadata(req CheckoutRequest) map[string]string {
	return map[string]string{
		MetaContestID: req.ContestID,
		MetaUserEmail: req.UserEmail,
		MetaUserName:  req.UserName,
		MetaUserPhoto: req.UserPhoto,
	}
}
