package interfaces

import (
	"context"
	"errors"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

// ErrStrategyNotFound is returned by LoadState when no state was saved for the id.
var ErrStrategyNotFound = errors.New("strategy not found")

type StrategyStore interface {
	SaveState(ctx context.Context, state models.StrategyState) error
	LoadState(ctx context.Context, id string) (models.StrategyState, error)
	SaveEntry(ctx context.Context, entry models.LedgerEntry) error
	GetEntries(ctx context.Context, strategyID string) ([]models.LedgerEntry, error)
}
