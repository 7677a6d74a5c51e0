package services

import (
	"strconv"
	"strings"
	"time"

	"contesthub/utils"
)

const (
	ErrMsgIdentityProof    = "Identity proof is missing or invalid"
	ErrMsgIdentityDisabled = "Token issuing is not configured"
)

// IdentityVerifier checks the proof the sign-in provider attaches to a token request.
// The proof is a hex HMAC-SHA256 over "<email>:<issuedAt unix seconds>" keyed with the shared identity secret.
type IdentityVerifier struct {
	secret string
	maxAge time.Duration
	now    func() time.Time
}

func NewIdentityVerifier(secret string, maxAge time.Duration, now func() time.Time) *IdentityVerifier {
	if now == nil {
		now = time.Now
	}
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &IdentityVerifier{secret: secret, maxAge: maxAge, now: now}
}

// IdentityMessage is the string the proof signs
func IdentityMessage(email string, issuedAt int64) string {
	return normalizeEmail(email) + ":" + strconv.FormatInt(issuedAt, 10)
}

// Sign produces a proof for email; used by trusted callers and tests
func (v *IdentityVerifier) Sign(email string, issuedAt time.Time) string {
	return utils.HMACSHA256Hex(v.secret, IdentityMessage(email, issuedAt.Unix()))
}

// Verify accepts a proof signed for this email within maxAge of now
func (v *IdentityVerifier) Verify(email string, issuedAt int64, signature string) error {
	if v.secret == "" {
		return &Error{Kind: ErrUnauthorized, Message: ErrMsgIdentityDisabled}
	}
	if normalizeEmail(email) == "" || strings.TrimSpace(signature) == "" || issuedAt == 0 {
		return &Error{Kind: ErrUnauthorized, Message: ErrMsgIdentityProof}
	}
	age := v.now().Sub(time.Unix(issuedAt, 0))
	if age > v.maxAge || age < -v.maxAge {
		return &Error{Kind: ErrUnauthorized, Message: ErrMsgIdentityProof}
	}
	if !utils.ValidHMAC(v.secret, IdentityMessage(email, issuedAt), strings.ToLower(signature)) {
		return &Error{Kind: ErrUnauthorized, Message: ErrMsgIdentityProof}
	}
	return nil
}
