package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

// Schema creates the tables the store needs. Amounts are NUMERIC(78,0), wide
// enough for any 256-bit token amount.
const Schema = `
CREATE TABLE IF NOT EXISTS strategies (
	id          TEXT PRIMARY KEY,
	address     TEXT NOT NULL,
	owner       TEXT NOT NULL,
	controller  TEXT NOT NULL,
	vault       TEXT NOT NULL,
	base_token  TEXT NOT NULL,
	apy         BIGINT NOT NULL CHECK (apy >= 0),
	beginning   BIGINT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS strategy_entries (
	id           UUID PRIMARY KEY,
	strategy_id  TEXT NOT NULL REFERENCES strategies (id),
	kind         TEXT NOT NULL,
	account      TEXT NOT NULL,
	amount       NUMERIC(78, 0) NOT NULL CHECK (amount >= 0),
	created_at   TIMESTAMPTZ NOT NULL,
	seq          BIGSERIAL
);`

// PostgresStrategyStore persists strategy state and the journal. Token
// balances are not stored here.
type PostgresStrategyStore struct {
	db *sql.DB
}

func NewPostgresStrategyStore(db *sql.DB) *PostgresStrategyStore {
	return &PostgresStrategyStore{
		db: db,
	}
}

// Migrate applies Schema. It is safe to run on every start.
func (p *PostgresStrategyStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *PostgresStrategyStore) SaveState(ctx context.Context, state models.StrategyState) error {
	const query = `INSERT INTO strategies (id, address, owner, controller, vault, base_token, apy, beginning, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (id) DO UPDATE SET
		owner = EXCLUDED.owner,
		controller = EXCLUDED.controller,
		vault = EXCLUDED.vault,
		apy = EXCLUDED.apy,
		beginning = EXCLUDED.beginning,
		updated_at = EXCLUDED.updated_at`

	_, err := p.db.ExecContext(ctx, query,
		state.ID,
		string(state.Address),
		string(state.Owner),
		string(state.Controller),
		string(state.Vault),
		string(state.BaseToken),
		state.Apy,
		state.Beginning,
		state.UpdatedAt,
	)
	return err
}

func (p *PostgresStrategyStore) LoadState(ctx context.Context, id string) (models.StrategyState, error) {
	const query = `SELECT id, address, owner, controller, vault, base_token, apy, beginning, updated_at
	FROM strategies WHERE id = $1`

	var state models.StrategyState
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&state.ID,
		&state.Address,
		&state.Owner,
		&state.Controller,
		&state.Vault,
		&state.BaseToken,
		&state.Apy,
		&state.Beginning,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StrategyState{}, fmt.Errorf("%s: %w", id, interfaces.ErrStrategyNotFound)
	}
	if err != nil {
		return models.StrategyState{}, err
	}
	return state, nil
}

func (p *PostgresStrategyStore) SaveEntry(ctx context.Context, entry models.LedgerEntry) error {
	const query = `INSERT INTO strategy_entries (id, strategy_id, kind, account, amount, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := p.db.ExecContext(ctx, query,
		entry.ID,
		entry.StrategyID,
		string(entry.Kind),
		string(entry.Account),
		entry.Amount,
		entry.CreatedAt,
	)
	return err
}

func (p *PostgresStrategyStore) GetEntries(ctx context.Context, strategyID string) ([]models.LedgerEntry, error) {
	const query = `SELECT id, strategy_id, kind, account, amount, created_at FROM strategy_entries
	WHERE strategy_id = $1 ORDER BY seq`

	rows, err := p.db.QueryContext(ctx, query, strategyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.LedgerEntry, 0)
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.StrategyID,
			&entry.Kind,
			&entry.Account,
			&entry.Amount,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

var _ interfaces.StrategyStore = (*PostgresStrategyStore)(nil)
