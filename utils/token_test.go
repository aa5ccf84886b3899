package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken()
	require.NoError(t, err)
	b, err := GenerateSecureToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestInviteExpiryTime(t *testing.T) {
	expiry := InviteExpiryTime()
	assert.WithinDuration(t, time.Now().Add(InviteExpiry), expiry, time.Minute)
}
