// Package security generates and rotates the application's cipher seed and salt.
package security

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"sonerezh/internal/shared"
)

const (
	// CipherSeedAlphabet is used for the numeric cipher seed.
	CipherSeedAlphabet = "0123456789"
	// SaltAlphabet is used for the salt.
	SaltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// KeyLength is the length of both generated secrets.
	KeyLength = 40
)

// RandomString returns length characters, each drawn independently and uniformly
// from alphabet.
//
// The source is math/rand, which is not cryptographically secure. It matches what
// the host application expects for its seed and salt, but must not be used for
// session identifiers or tokens.
func RandomString(alphabet string, length int) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("invalid length %d", length)
	}
	if length == 0 {
		return "", nil
	}
	symbols := []rune(alphabet)
	if len(symbols) == 0 {
		return "", shared.ErrInvalidAlphabet
	}

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		sb.WriteRune(symbols[rand.IntN(len(symbols))])
	}
	return sb.String(), nil
}

// GenerateCipherSeed returns a new 40 digit cipher seed.
func GenerateCipherSeed() string {
	s, _ := RandomString(CipherSeedAlphabet, KeyLength)
	return s
}

// GenerateSalt returns a new 40 character alphanumeric salt.
func GenerateSalt() string {
	s, _ := RandomString(SaltAlphabet, KeyLength)
	return s
}
