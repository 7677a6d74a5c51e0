package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMAC(t *testing.T) {
	sig := HMACSHA256Hex("secret", "cs_1")
	assert.Len(t, sig, 64)
	assert.True(t, ValidHMAC("secret", "cs_1", sig))
	assert.False(t, ValidHMAC("secret", "cs_2", sig))
	assert.False(t, ValidHMAC("other", "cs_1", sig))
}
