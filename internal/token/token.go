package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

var (
	ErrInsufficientBalance   = interfaces.ErrInsufficientBalance
	ErrInsufficientAllowance = interfaces.ErrInsufficientAllowance
	ErrNotMinter             = errors.New("caller is not the minter")
	ErrNotOwner              = errors.New("caller is not the token owner")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrUnknownToken          = errors.New("unknown token")
)

// Token is an in-memory ERC20-style ledger. The owner can mint to itself and
// designate one minter (the strategy) that can also mint to itself.
type Token struct {
	mu         sync.Mutex
	address    models.Address
	name       string
	owner      models.Address
	minter     models.Address
	supply     decimal.Decimal
	balances   map[models.Address]decimal.Decimal
	allowances map[models.Address]map[models.Address]decimal.Decimal
}

// New deploys an empty token. No minter is set until the owner calls SetMinter.
func New(address models.Address, name string, owner models.Address) *Token {
	return &Token{
		address:    address,
		name:       name,
		owner:      owner,
		minter:     models.ZeroAddress,
		supply:     decimal.Zero,
		balances:   make(map[models.Address]decimal.Decimal),
		allowances: make(map[models.Address]map[models.Address]decimal.Decimal),
	}
}

func (t *Token) Address() models.Address { return t.address }

func (t *Token) Name() string { return t.name }

func (t *Token) BalanceOf(ctx context.Context, account models.Address) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.balanceOf(account), nil
}

func (t *Token) TotalSupply(ctx context.Context) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.supply, nil
}

func (t *Token) Allowance(ctx context.Context, owner, spender models.Address) (decimal.Decimal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.allowance(owner, spender), nil
}

// Transfer moves amount from `from` to `to`.
func (t *Token) Transfer(ctx context.Context, from, to models.Address, amount decimal.Decimal) error {
	if err := checkTransfer(to, amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.move(from, to, amount)
}

// Approve sets, not adds to, spender's allowance over owner's balance.
func (t *Token) Approve(ctx context.Context, owner, spender models.Address, amount decimal.Decimal) error {
	if spender.IsZero() {
		return fmt.Errorf("approve to zero address: %w", ErrInvalidAddress)
	}
	if !models.ValidAmount(amount) {
		return fmt.Errorf("approve %s: %w", amount, ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.setAllowance(owner, spender, amount)
	return nil
}

// TransferFrom moves amount from `from` to `to` on behalf of spender and
// consumes the allowance. Balance and allowance are both checked before
// anything changes.
func (t *Token) TransferFrom(ctx context.Context, spender, from, to models.Address, amount decimal.Decimal) error {
	if err := checkTransfer(to, amount); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.allowance(from, spender)
	if allowed.LessThan(amount) {
		return fmt.Errorf("%s allowance %s, need %s: %w", spender, allowed, amount, ErrInsufficientAllowance)
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	t.setAllowance(from, spender, allowed.Sub(amount))
	return nil
}

// SetMinter designates the account allowed to call Mint. Owner only.
func (t *Token) SetMinter(ctx context.Context, caller, minter models.Address) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return ErrNotOwner
	}
	t.minter = minter
	return nil
}

// OwnerMint creates amount new tokens in the owner's balance.
func (t *Token) OwnerMint(ctx context.Context, caller models.Address, amount decimal.Decimal) error {
	if !models.ValidAmount(amount) {
		return fmt.Errorf("mint %s: %w", amount, ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.owner {
		return ErrNotOwner
	}
	t.mint(caller, amount)
	return nil
}

// Mint creates amount new tokens in the minter's own balance.
func (t *Token) Mint(ctx context.Context, minter models.Address, amount decimal.Decimal) error {
	if !models.ValidAmount(amount) {
		return fmt.Errorf("mint %s: %w", amount, ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if minter.IsZero() || minter != t.minter {
		return ErrNotMinter
	}
	t.mint(minter, amount)
	return nil
}

// PullWithTopUp moves amount from `from` to the minter on the minter's
// allowance, after minting topUp(held) to it, where held is the minter's
// balance before the call. Either both happen or neither does. It returns held
// and the amount minted.
func (t *Token) PullWithTopUp(ctx context.Context, minter, from models.Address, amount decimal.Decimal, topUp func(held decimal.Decimal) decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !models.ValidAmount(amount) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("pull %s: %w", amount, ErrInvalidAmount)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	held := t.balanceOf(minter)
	extra := decimal.Zero
	if topUp != nil {
		extra = topUp(held)
	}
	if !models.ValidAmount(extra) {
		return held, decimal.Zero, fmt.Errorf("top-up %s: %w", extra, ErrInvalidAmount)
	}
	if extra.IsPositive() && (minter.IsZero() || minter != t.minter) {
		return held, decimal.Zero, ErrNotMinter
	}

	allowed := t.allowance(from, minter)
	if allowed.LessThan(amount) {
		return held, decimal.Zero, fmt.Errorf("%s allowance %s, need %s: %w", minter, allowed, amount, ErrInsufficientAllowance)
	}
	if balance := t.balanceOf(from); balance.LessThan(amount) {
		return held, decimal.Zero, fmt.Errorf("%s holds %s, need %s: %w", from, balance, amount, ErrInsufficientBalance)
	}

	// every check has passed; nothing below can fail
	if extra.IsPositive() {
		t.mint(minter, extra)
	}
	if err := t.move(from, minter, amount); err != nil {
		return held, decimal.Zero, err
	}
	t.setAllowance(from, minter, allowed.Sub(amount))
	return held, extra, nil
}

// PayWithTopUp sends amount from the minter to `to`, minting the part of
// amount the minter does not hold.
func (t *Token) PayWithTopUp(ctx context.Context, minter, to models.Address, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := checkTransfer(to, amount); err != nil {
		return decimal.Zero, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	shortfall := decimal.Zero
	if held := t.balanceOf(minter); amount.GreaterThan(held) {
		shortfall = amount.Sub(held)
	}
	if shortfall.IsPositive() {
		if minter.IsZero() || minter != t.minter {
			return decimal.Zero, ErrNotMinter
		}
		t.mint(minter, shortfall)
	}
	if err := t.move(minter, to, amount); err != nil {
		return decimal.Zero, err
	}
	return shortfall, nil
}

func (t *Token) mint(to models.Address, amount decimal.Decimal) {
	t.balances[to] = t.balanceOf(to).Add(amount)
	t.supply = t.supply.Add(amount)
}

// move must be called with t.mu held.
func (t *Token) move(from, to models.Address, amount decimal.Decimal) error {
	balance := t.balanceOf(from)
	if balance.LessThan(amount) {
		return fmt.Errorf("%s holds %s, need %s: %w", from, balance, amount, ErrInsufficientBalance)
	}
	t.balances[from] = balance.Sub(amount)
	t.balances[to] = t.balanceOf(to).Add(amount)
	return nil
}

func (t *Token) balanceOf(account models.Address) decimal.Decimal {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return decimal.Zero
}

func (t *Token) allowance(owner, spender models.Address) decimal.Decimal {
	if a, ok := t.allowances[owner][spender]; ok {
		return a
	}
	return decimal.Zero
}

func (t *Token) setAllowance(owner, spender models.Address, amount decimal.Decimal) {
	if _, ok := t.allowances[owner]; !ok {
		t.allowances[owner] = make(map[models.Address]decimal.Decimal)
	}
	t.allowances[owner][spender] = amount
}

func checkTransfer(to models.Address, amount decimal.Decimal) error {
	if to.IsZero() {
		return fmt.Errorf("transfer to zero address: %w", ErrInvalidAddress)
	}
	if !models.ValidAmount(amount) {
		return fmt.Errorf("transfer %s: %w", amount, ErrInvalidAmount)
	}
	return nil
}

var _ interfaces.Token = (*Token)(nil)
