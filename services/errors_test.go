package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{validationError("bad"), http.StatusBadRequest},
		{forbiddenError("no"), http.StatusForbidden},
		{notFoundError("gone"), http.StatusNotFound},
		{conflictError("dup"), http.StatusConflict},
		{&Error{Kind: ErrUnauthorized, Message: "who"}, http.StatusUnauthorized},
		{fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), http.StatusConflict},
		{internalError("save", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "Contest has ended", PublicMessage(conflictError("Contest has ended")))
	assert.Equal(t, "Internal server error", PublicMessage(internalError("save", errors.New("password=secret"))))
	assert.Equal(t, "Resource already exists", PublicMessage(gorm.ErrDuplicatedKey))
}

func TestInternalErrorKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := internalError("create registration", cause)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, cause)
}
