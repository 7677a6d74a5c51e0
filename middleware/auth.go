package middleware

import (
	"context"
	"net/http"
	"strings"

	"contesthub/services"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity is the authenticated caller
type Identity struct {
	Email string
}

// TokenParser turns a bearer token into the email it was issued for
type TokenParser interface {
	Parse(token string) (string, error)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// Authenticate requires a valid bearer token and stores the caller's identity
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header required"})
			return
		}
		email, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": services.ErrMsgInvalidToken})
			return
		}
		c.Set(identityKey, Identity{Email: email})
		c.Next()
	}
}

// IdentityFrom returns the caller set by Authenticate
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// AdminChecker reports whether an email belongs to an admin
type AdminChecker interface {
	RequireAdmin(ctx context.Context, caller string) error
}

// RequireAdmin lets only admins through; it must run after Authenticate
func RequireAdmin(access AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header required"})
			return
		}
		if err := access.RequireAdmin(c.Request.Context(), id.Email); err != nil {
			c.AbortWithStatusJSON(services.HTTPStatus(err), gin.H{"message": services.PublicMessage(err)})
			return
		}
		c.Next()
	}
}
