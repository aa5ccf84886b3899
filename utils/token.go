package utils

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// InviteExpiry is how long a member invite token stays redeemable.
const InviteExpiry = 7 * 24 * time.Hour

// GenerateSecureToken returns a 64-character hex token for member invites
// and RSVP response links.
func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

// InviteExpiryTime returns the expiry timestamp for a new member invite.
func InviteExpiryTime() time.Time {
	return time.Now().Add(InviteExpiry)
}
