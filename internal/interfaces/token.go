package interfaces

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

var (
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is the subset of an ERC20-style token the strategy needs. Every call
// names its caller explicitly, the way a contract sees msg.sender.
type Token interface {
	Address() models.Address
	BalanceOf(ctx context.Context, account models.Address) (decimal.Decimal, error)
	TotalSupply(ctx context.Context) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error
	Allowance(ctx context.Context, owner, spender models.Address) (decimal.Decimal, error)
	TransferFrom(ctx context.Context, spender, from, to models.Address, amount decimal.Decimal) error
	Mint(ctx context.Context, minter models.Address, amount decimal.Decimal) error

	// PullWithTopUp pulls amount from `from` into the minter's own balance,
	// first minting topUp(held) where held is the minter's balance at that
	// moment. Either both happen or neither does.
	PullWithTopUp(ctx context.Context, minter, from models.Address, amount decimal.Decimal, topUp func(held decimal.Decimal) decimal.Decimal) (held, minted decimal.Decimal, err error)
	// PayWithTopUp pays amount from the minter to `to`, first minting whatever
	// the minter's balance is short of amount. Either both happen or neither does.
	PayWithTopUp(ctx context.Context, minter, to models.Address, amount decimal.Decimal) (minted decimal.Decimal, err error)
}

// SupplyReader resolves the total supply of a token by address.
type SupplyReader interface {
	TotalSupply(ctx context.Context, token models.Address) (decimal.Decimal, error)
}
