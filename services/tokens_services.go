package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ErrMsgInvalidToken = "Invalid or expired token"

// TokenService issues and verifies the HS256 bearer tokens clients send back
type TokenService struct {
	secret []byte
	exp    time.Duration
	now    func() time.Time
}

func NewTokenService(secret []byte, exp time.Duration, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: secret, exp: exp, now: now}
}

// Issue signs a token for the email and returns it with its expiry
func (t *TokenService) Issue(email string) (string, time.Time, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", time.Time{}, validationError(ErrMsgEmailRequired)
	}
	issued := t.now()
	expires := issued.Add(t.exp)
	claims := jwt.MapClaims{
		"email": email,
		"iat":   issued.Unix(),
		"exp":   expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, internalError("sign token", err)
	}
	return signed, expires, nil
}

// Parse verifies the token and returns the email it was issued for
func (t *TokenService) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", &Error{Kind: ErrUnauthorized, Message: ErrMsgInvalidToken}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", &Error{Kind: ErrUnauthorized, Message: ErrMsgInvalidToken}
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", &Error{Kind: ErrUnauthorized, Message: ErrMsgInvalidToken}
	}
	return email, nil
}

// IsUnauthorized reports whether err is a token or authentication failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
