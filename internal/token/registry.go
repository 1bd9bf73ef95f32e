package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

// Registry indexes tokens by address.
type Registry struct {
	mu     sync.RWMutex
	tokens map[models.Address]*Token
}

func NewRegistry(tokens ...*Token) *Registry {
	r := &Registry{tokens: make(map[models.Address]*Token)}
	for _, t := range tokens {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t *Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[t.Address()] = t
}

func (r *Registry) Get(address models.Address) (*Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tokens[address]
	if !ok {
		return nil, fmt.Errorf("%s: %w", address, ErrUnknownToken)
	}
	return t, nil
}

// TotalSupply reports the supply of the token at address. The zero address has
// no supply; any other unknown address is an error.
func (r *Registry) TotalSupply(ctx context.Context, address models.Address) (decimal.Decimal, error) {
	if address.IsZero() {
		return decimal.Zero, nil
	}
	t, err := r.Get(address)
	if err != nil {
		return decimal.Zero, err
	}
	return t.TotalSupply(ctx)
}

var _ interfaces.SupplyReader = (*Registry)(nil)
