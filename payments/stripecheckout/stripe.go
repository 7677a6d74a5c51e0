// Package stripecheckout creates and reads Stripe hosted checkout sessions.
package stripecheckout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"contesthub/payments"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type Provider struct {
	api *client.API
}

func New(secretKey string) *Provider {
	return NewWithBackends(secretKey, nil)
}

// NewWithBackends lets tests point the client at a fake API
func NewWithBackends(secretKey string, backends *stripe.Backends) *Provider {
	return &Provider{api: client.New(secretKey, backends)}
}

func (p *Provider) Name() string { return "stripe" }

func (p *Provider) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(req.UserEmail),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ContestName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range payments.RequestMetadata(req) {
		params.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return &payments.Checkout{SessionID: s.ID, URL: s.URL}, nil
}

func (p *Provider) GetSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, payments.ErrSessionNotFound
		}
		return nil, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}

	// the payment intent id identifies the money movement; fall back to the session for zero-amount sessions
	txn := s.ID
	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		txn = s.PaymentIntent.ID
	}

	return &payments.Session{
		ID:            s.ID,
		TransactionID: txn,
		Paid:          s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountMinor:   s.AmountTotal,
		Currency:      string(s.Currency),
		Metadata:      s.Metadata,
	}, nil
}
