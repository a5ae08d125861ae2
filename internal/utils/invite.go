package utils

import (
	"crypto/rand"
	"math/big"
)

// InviteCodeLength is the number of characters in a group invite code.
const InviteCodeLength = 6

// inviteAlphabet is the uppercased base-36 alphabet.
const inviteAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateInviteCode returns a 6-character uppercase base-36 invite code.
// Codes are random, not guaranteed unique; callers that need uniqueness
// retry on collision against the store's unique index.
func GenerateInviteCode() string {
	buf := make([]byte, InviteCodeLength)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		buf[i] = inviteAlphabet[n.Int64()]
	}
	return string(buf)
}

// ValidInviteCode reports whether s has the shape of a generated code.
func ValidInviteCode(s string) bool {
	if len(s) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
