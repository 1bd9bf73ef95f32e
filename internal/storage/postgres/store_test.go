package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

func newMock(t *testing.T) (*PostgresStrategyStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStrategyStore(db), mock
}

func TestMigrate(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS strategies").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveStateUpserts(t *testing.T) {
	store, mock := newMock(t)
	now := time.Unix(1_700_000_000, 0).UTC()
	state := models.StrategyState{
		ID:         "s1",
		Address:    "0x00000000000000000000000000000000000000a1",
		Owner:      "0x00000000000000000000000000000000000000f1",
		Controller: "0x00000000000000000000000000000000000000c0",
		Vault:      models.ZeroAddress,
		BaseToken:  "0x00000000000000000000000000000000000000b1",
		Apy:        7,
		Beginning:  1_700_000_000,
		UpdatedAt:  now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO strategies")).
		WithArgs("s1", string(state.Address), string(state.Owner), string(state.Controller),
			string(state.Vault), string(state.BaseToken), int64(7), int64(1_700_000_000), now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveState(context.Background(), state))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadState(t *testing.T) {
	store, mock := newMock(t)
	now := time.Unix(1_700_000_000, 0).UTC()

	rows := sqlmock.NewRows([]string{"id", "address", "owner", "controller", "vault", "base_token", "apy", "beginning", "updated_at"}).
		AddRow("s1", "0xa1", "0xf1", "0xc0", string(models.ZeroAddress), "0xb1", int64(7), int64(42), now)
	mock.ExpectQuery("SELECT (.+) FROM strategies WHERE id = \\$1").WithArgs("s1").WillReturnRows(rows)

	got, err := store.LoadState(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.Address("0xf1"), got.Owner)
	assert.Equal(t, int64(7), got.Apy)
	assert.Equal(t, int64(42), got.Beginning)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadStateNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("SELECT (.+) FROM strategies").WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err := store.LoadState(context.Background(), "nope")
	assert.ErrorIs(t, err, interfaces.ErrStrategyNotFound)
}

func TestSaveEntry(t *testing.T) {
	store, mock := newMock(t)
	now := time.Unix(1_700_000_010, 0).UTC()
	entry := models.LedgerEntry{
		ID:         "6f1c1e0a-8c1f-4d55-9c1e-0e2c1b1a0001",
		StrategyID: "s1",
		Kind:       models.EntryMint,
		Account:    "0x00000000000000000000000000000000000000a1",
		Amount:     decimal.RequireFromString("22196854388635210553"),
		CreatedAt:  now,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO strategy_entries")).
		WithArgs(entry.ID, "s1", "mint", string(entry.Account), entry.Amount, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SaveEntry(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntries(t *testing.T) {
	store, mock := newMock(t)
	now := time.Unix(1_700_000_010, 0).UTC()

	rows := sqlmock.NewRows([]string{"id", "strategy_id", "kind", "account", "amount", "created_at"}).
		AddRow("e1", "s1", "mint", "0xa1", "5", now).
		AddRow("e2", "s1", "withdraw", "0xe1", "1000", now)
	mock.ExpectQuery("SELECT (.+) FROM strategy_entries").WithArgs("s1").WillReturnRows(rows)

	entries, err := store.GetEntries(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.EntryMint, entries[0].Kind)
	assert.Equal(t, "1000", entries[1].Amount.String())
	require.NoError(t, mock.ExpectationsWereMet())
}
