package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

// Topic names used when publishing strategy notifications.
const (
	TopicVaultChanged         = "strategy.vault_changed"
	TopicApyChanged           = "strategy.apy_changed"
	TopicBeginningChanged     = "strategy.beginning_changed"
	TopicOwnershipTransferred = "strategy.ownership_transferred"
	TopicDeposited            = "strategy.deposited"
	TopicWithdrawn            = "strategy.withdrawn"
	TopicShortfallMinted      = "strategy.shortfall_minted"
)

type VaultChanged struct {
	StrategyID string         `json:"strategy_id"`
	Vault      models.Address `json:"vault"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type ApyChanged struct {
	StrategyID string    `json:"strategy_id"`
	Apy        int64     `json:"apy"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BeginningChanged struct {
	StrategyID string    `json:"strategy_id"`
	Beginning  int64     `json:"beginning"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OwnershipTransferred struct {
	StrategyID    string         `json:"strategy_id"`
	PreviousOwner models.Address `json:"previous_owner"`
	NewOwner      models.Address `json:"new_owner"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

type Deposited struct {
	StrategyID string          `json:"strategy_id"`
	From       models.Address  `json:"from"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"` // actual balance after the deposit
	OccurredAt time.Time       `json:"occurred_at"`
}

type Withdrawn struct {
	StrategyID string          `json:"strategy_id"`
	Recipient  models.Address  `json:"recipient"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ShortfallMinted is emitted whenever a deposit or withdrawal tops up the strategy.
type ShortfallMinted struct {
	StrategyID string          `json:"strategy_id"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}
