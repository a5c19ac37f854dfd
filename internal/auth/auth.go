package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Gate checks the dashboard access password. The plaintext is hashed once at
// construction and never kept. A Gate without a password admits everyone.
type Gate struct {
	hash []byte
}

// NewGate hashes password with cost (bcrypt.DefaultCost when 0).
func NewGate(password string, cost int) (*Gate, error) {
	if password == "" {
		return &Gate{}, nil
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash access password: %w", err)
	}
	return &Gate{hash: h}, nil
}

// NewGateFromHash accepts a precomputed bcrypt hash.
func NewGateFromHash(hash string) (*Gate, error) {
	if hash == "" {
		return &Gate{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("access password hash: %w", err)
	}
	return &Gate{hash: []byte(hash)}, nil
}

func (g *Gate) Enabled() bool { return g != nil && len(g.hash) > 0 }

func (g *Gate) Check(password string) bool {
	if !g.Enabled() {
		return true
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(password)) == nil
}
