package utils

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand"
	"time"
)

const ReferralCodeLength = 6

// Alphabet the original share cards were printed with: lowercase vowels,
// 'y' and digits.
const referralAlphabet = "aeiouy0123456789"

var seededRand = mrand.New(mrand.NewSource(time.Now().UnixNano()))

// GenerateReferralCode samples one candidate code. Uniqueness is enforced by
// the accounts unique index; the account service retries on collision.
func GenerateReferralCode() string {
	b := make([]byte, ReferralCodeLength)
	for i := range b {
		b[i] = referralAlphabet[seededRand.Intn(len(referralAlphabet))]
	}
	return string(b)
}

// SessionKeyLength is the length of keys issued by this server. Older
// clients may still hold 12-character keys, which validation accepts as
// structurally well formed.
const (
	SessionKeyLength       = 24
	LegacySessionKeyLength = 12
)

// GenerateSessionKey returns a 24-character hex session key.
func GenerateSessionKey() (string, error) {
	raw := make([]byte, SessionKeyLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}
