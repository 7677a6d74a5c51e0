package stub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"contesthub/payments"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckout(t *testing.T, p *Provider) *payments.Checkout {
	t.Helper()
	out, err := p.CreateCheckout(context.Background(), payments.CheckoutRequest{
		ContestID:   "c-1",
		ContestName: "Poster",
		UserEmail:   "a@test.dev",
		AmountMinor: 20000,
		Currency:    "bdt",
		SuccessURL:  "http://client.test/payment-success?session_id=" + payments.SessionIDPlaceholder,
		CancelURL:   "http://client.test/contests/c-1",
	})
	require.NoError(t, err)
	return out
}

func TestSessionLifecycle(t *testing.T) {
	p := New("secret", "http://api.test/")
	out := newCheckout(t, p)
	assert.Equal(t, p.CheckoutURL(out.SessionID), out.URL)
	assert.Contains(t, out.URL, "http://api.test/pay/stub/")

	s, err := p.GetSession(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.False(t, s.Paid)
	assert.Empty(t, s.TransactionID)
	assert.Equal(t, "c-1", s.Metadata[payments.MetaContestID])

	target, err := p.Complete(out.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "http://client.test/payment-success?session_id="+out.SessionID, target)

	s, err = p.GetSession(context.Background(), out.SessionID)
	require.NoError(t, err)
	assert.True(t, s.Paid)
	assert.NotEmpty(t, s.TransactionID)

	_, err = p.Cancel(out.SessionID)
	assert.Error(t, err)
}

func TestGetSessionReturnsCopy(t *testing.T) {
	p := New("secret", "")
	out := newCheckout(t, p)

	s, _ := p.GetSession(context.Background(), out.SessionID)
	s.Metadata[payments.MetaContestID] = "tampered"

	again, _ := p.GetSession(context.Background(), out.SessionID)
	assert.Equal(t, "c-1", again.Metadata[payments.MetaContestID])
}

func TestUnknownSession(t *testing.T) {
	p := New("secret", "")
	_, err := p.GetSession(context.Background(), "cs_nope")
	assert.ErrorIs(t, err, payments.ErrSessionNotFound)
	_, err = p.Complete("cs_nope")
	assert.ErrorIs(t, err, payments.ErrSessionNotFound)
}

func TestRejectsNonPositiveAmount(t *testing.T) {
	p := New("secret", "")
	_, err := p.CreateCheckout(context.Background(), payments.CheckoutRequest{AmountMinor: 0})
	assert.Error(t, err)
}

func TestCheckoutRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := New("secret", "")
	out := newCheckout(t, p)

	r := gin.New()
	p.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pay/stub/"+out.SessionID+"?sig=bad", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pay/stub/"+out.SessionID+"?sig="+p.Sign(out.SessionID), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "200.00 bdt")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pay/stub/"+out.SessionID+"/complete?sig="+p.Sign(out.SessionID), nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "http://client.test/payment-success?session_id="+out.SessionID, w.Header().Get("Location"))

	s, _ := p.GetSession(context.Background(), out.SessionID)
	assert.True(t, s.Paid)
}
