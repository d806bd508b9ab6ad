// Package shortid generates the human-readable posting identifiers shown to
// users, in the form NNNN-NNNN.
package shortid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

var pattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

// New returns a fresh NNNN-NNNN identifier. Each half is in [1000, 9999].
// Collisions are possible; callers retry against their unique column.
func New() (string, error) {
	left, err := segment()
	if err != nil {
		return "", err
	}
	right, err := segment()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d", left, right), nil
}

// Valid reports whether s looks like a short identifier.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

func segment() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return 0, fmt.Errorf("generate short id: %w", err)
	}
	return n.Int64() + 1000, nil
}
