// Package invite generates the short codes people use to join a receipt.
package invite

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/mmynk/receiptsplit/internal/models"
)

// Alphabet omits characters that read alike (0/O, 1/I/L).
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a random code of models.InviteCodeLength characters.
func Generate() (string, error) {
	var b strings.Builder
	b.Grow(models.InviteCodeLength)
	for i := 0; i < models.InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Normalize upper-cases and trims a user-typed code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code has the right length and alphabet.
func Valid(code string) bool {
	if len(code) != models.InviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
