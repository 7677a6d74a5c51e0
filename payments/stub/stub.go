// Package stub is an in-process payment provider for local development and tests.
//
// CreateCheckout returns a link to /pay/stub/:id on this server. The page lets
// the developer complete or cancel the payment, after which the browser is sent
// to the success or cancel URL exactly like a hosted checkout would.
// The link carries an HMAC of the session id so it cannot be guessed.
package stub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"contesthub/payments"
	"contesthub/utils"

	"github.com/google/uuid"
)

type session struct {
	payments.Session
	contestName string
	successURL  string
	cancelURL   string
	cancelled   bool
}

type Provider struct {
	secret  string
	baseURL string

	mu       sync.Mutex
	sessions map[string]*session
}

func New(secret, baseURL string) *Provider {
	return &Provider{
		secret:   secret,
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: make(map[string]*session),
	}
}

func (p *Provider) Name() string { return "stub" }

func (p *Provider) CreateCheckout(ctx context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("stub: amount must be positive")
	}

	id := "cs_stub_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	p.mu.Lock()
	p.sessions[id] = &session{
		Session: payments.Session{
			ID:          id,
			AmountMinor: req.AmountMinor,
			Currency:    req.Currency,
			Metadata:    payments.RequestMetadata(req),
		},
		contestName: req.ContestName,
		successURL:  req.SuccessURL,
		cancelURL:   req.CancelURL,
	}
	p.mu.Unlock()

	return &payments.Checkout{SessionID: id, URL: p.CheckoutURL(id)}, nil
}

func (p *Provider) GetSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, payments.ErrSessionNotFound
	}
	out := s.Session
	out.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		out.Metadata[k] = v
	}
	return &out, nil
}

// CheckoutURL is the signed link to the stub checkout page
func (p *Provider) CheckoutURL(sessionID string) string {
	return fmt.Sprintf("%s/pay/stub/%s?sig=%s", p.baseURL, sessionID, p.Sign(sessionID))
}

func (p *Provider) Sign(sessionID string) string {
	return utils.HMACSHA256Hex(p.secret, sessionID)
}

func (p *Provider) Verify(sessionID, sig string) bool {
	return utils.ValidHMAC(p.secret, sessionID, sig)
}

// Complete marks the session paid and returns the URL the buyer should be sent to
func (p *Provider) Complete(sessionID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return "", payments.ErrSessionNotFound
	}
	if s.cancelled {
		return "", fmt.Errorf("stub: session %s was cancelled", sessionID)
	}
	s.Paid = true
	s.TransactionID = "pi_stub_" + strings.TrimPrefix(sessionID, "cs_stub_")
	return strings.ReplaceAll(s.successURL, payments.SessionIDPlaceholder, sessionID), nil
}

// Cancel abandons the session and returns the cancel URL
func (p *Provider) Cancel(sessionID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return "", payments.ErrSessionNotFound
	}
	if s.Paid {
		return "", fmt.Errorf("stub: session %s is already paid", sessionID)
	}
	s.cancelled = true
	return s.cancelURL, nil
}

func (p *Provider) describe(sessionID string) (*session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}
