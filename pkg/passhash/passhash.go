// Package passhash hashes and verifies account passwords with bcrypt.
package passhash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is above bcrypt.DefaultCost (10).
const DefaultCost = 12

type Hasher struct {
	cost int
}

// New returns a Hasher using the given bcrypt cost. Out of range costs fall back to DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted hash of plaintext. Every call produces a different hash.
func (h *Hasher) Hash(plaintext string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password hash: %w", err)
	}
	return hash, nil
}

// Verify reports whether plaintext matches hashed. Malformed hashes are a mismatch, not an error.
func (h *Hasher) Verify(plaintext string, hashed []byte) bool {
	err := bcrypt.CompareHashAndPassword(hashed, []byte(plaintext))
	return err == nil
}

// NeedsRehash reports whether hashed was produced with a different cost than h uses.
func (h *Hasher) NeedsRehash(hashed []byte) bool {
	cost, err := bcrypt.Cost(hashed)
	if err != nil {
		return true
	}
	return cost != h.cost
}
