package memory

import (
	"context"
	"fmt"
	"sync"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

// MemoryStrategyStore keeps strategy state and journal entries in process memory.
type MemoryStrategyStore struct {
	mu      sync.Mutex
	states  map[string]models.StrategyState
	entries []models.LedgerEntry // append order is journal order
}

func NewMemoryStrategyStore() *MemoryStrategyStore {
	return &MemoryStrategyStore{
		states:  make(map[string]models.StrategyState),
		entries: make([]models.LedgerEntry, 0),
	}
}

func (m *MemoryStrategyStore) SaveState(ctx context.Context, state models.StrategyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[state.ID] = state
	return nil
}

func (m *MemoryStrategyStore) LoadState(ctx context.Context, id string) (models.StrategyState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[id]
	if !ok {
		return models.StrategyState{}, fmt.Errorf("%s: %w", id, interfaces.ErrStrategyNotFound)
	}
	return state, nil
}

func (m *MemoryStrategyStore) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	return nil
}

// GetEntries returns a copy so callers can't modify internal state.
// GetEntries returns the strategy's entries in the order they were saved.
func (m *MemoryStrategyStore) GetEntries(ctx context.Context, strategyID string) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]models.LedgerEntry, 0)
	for _, e := range m.entries {
		if e.StrategyID == strategyID {
			result = append(result, e)
		}
	}
	return result, nil
}

// Compile-time check: ensure MemoryStrategyStore implements StrategyStore interface
var _ interfaces.StrategyStore = (*MemoryStrategyStore)(nil)
