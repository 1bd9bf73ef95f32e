package models

import "time"

// StrategyState is the persisted configuration of an accrual strategy.
// Balances are not part of it: the actual balance lives in the base token and
// the principal is the vault token's supply.
type StrategyState struct {
	ID         string    `json:"id"`
	Address    Address   `json:"address"`    // the strategy's own account in the base token
	Owner      Address   `json:"owner"`      // may change rate, beginning and vault
	Controller Address   `json:"controller"` // may deposit and withdraw
	Vault      Address   `json:"vault"`      // token whose supply is the principal
	BaseToken  Address   `json:"base_token"` // token held and minted by the strategy
	Apy        int64     `json:"apy"`        // annual rate in whole percent
	Beginning  int64     `json:"beginning"`  // unix seconds, accrual epoch start
	UpdatedAt  time.Time `json:"updated_at"`
}
