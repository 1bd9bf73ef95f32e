package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/metrics"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models/events"
)

// Config identifies a strategy and its two roles at deployment.
type Config struct {
	ID         string
	Address    models.Address
	Owner      models.Address
	Controller models.Address
}

// Deps are the collaborators a Strategy drives.
type Deps struct {
	Token     interfaces.Token        // base token held and minted by the strategy
	Supply    interfaces.SupplyReader // resolves the vault token's supply (the principal)
	Store     interfaces.StrategyStore
	Publisher interfaces.EventPublisher
	Logger    logrus.FieldLogger
}

// Strategy is an accrual ledger: it reports a balance that grows at a fixed
// annual rate on top of the vault's supply, and mints the difference into the
// base token whenever capital moves in or out.
//
// Every method that reads or changes state holds s.mu for its whole duration,
// so calls are applied one at a time and a failing call leaves no trace.
type Strategy struct {
	id string // fixed at Open

	mu    sync.Mutex
	state models.StrategyState // guarded by mu; replaced only by commit

	token     interfaces.Token
	supply    interfaces.SupplyReader
	store     interfaces.StrategyStore
	publisher interfaces.EventPublisher // optional
	log       logrus.FieldLogger
}

// Open loads the strategy with cfg.ID from the store, or deploys a new one with
// a zero rate, zero beginning and no vault when none was saved.
func Open(ctx context.Context, cfg Config, deps Deps) (*Strategy, error) {
	if cfg.ID == "" {
		return nil, errors.New("strategy id is required")
	}
	if cfg.Address.IsZero() || cfg.Owner.IsZero() || cfg.Controller.IsZero() {
		return nil, fmt.Errorf("strategy address, owner and controller must be set: %w", ErrInvalidAddress)
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	s := &Strategy{
		id:        cfg.ID,
		token:     deps.Token,
		supply:    deps.Supply,
		store:     deps.Store,
		publisher: deps.Publisher,
		log:       deps.Logger.WithField("strategy_id", cfg.ID),
	}

	state, err := deps.Store.LoadState(ctx, cfg.ID)
	switch {
	case err == nil:
		if state.BaseToken != deps.Token.Address() {
			return nil, fmt.Errorf("strategy %s holds %s, not %s", cfg.ID, state.BaseToken, deps.Token.Address())
		}
		s.state = state
		s.log.WithField("owner", state.Owner).Info("strategy loaded")
		return s, nil
	case errors.Is(err, interfaces.ErrStrategyNotFound):
	default:
		return nil, fmt.Errorf("load strategy %s: %w", cfg.ID, err)
	}

	state = models.StrategyState{
		ID:         cfg.ID,
		Address:    cfg.Address,
		Owner:      cfg.Owner,
		Controller: cfg.Controller,
		Vault:      models.ZeroAddress,
		BaseToken:  deps.Token.Address(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := deps.Store.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("save strategy %s: %w", cfg.ID, err)
	}
	s.state = state
	s.log.WithField("owner", state.Owner).Info("strategy deployed")
	return s, nil
}

// ID is the key the strategy is stored and published under.
func (s *Strategy) ID() string {
	return s.id
}

// State returns a copy of the current state.
func (s *Strategy) State() models.StrategyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Strategy) Owner() models.Address      { return s.State().Owner }
func (s *Strategy) Controller() models.Address { return s.State().Controller }
func (s *Strategy) Vault() models.Address      { return s.State().Vault }
func (s *Strategy) BaseToken() models.Address  { return s.State().BaseToken }
func (s *Strategy) Apy() int64                 { return s.State().Apy }
func (s *Strategy) Beginning() int64           { return s.State().Beginning }

// SetApy sets the annual rate in whole percent. The accrual epoch is left
// where it is; call SetBeginning to re-anchor it.
func (s *Strategy) SetApy(ctx context.Context, caller models.Address, apy int64) (err error) {
	defer func() { metrics.RecordOperation("set_apy", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if apy < 0 {
		return fmt.Errorf("apy %d: %w", apy, ErrInvalidAmount)
	}
	if err := s.commit(ctx, func(st *models.StrategyState) { st.Apy = apy }); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"caller": caller, "apy": apy}).Info("apy set")
	s.publish(ctx, events.TopicApyChanged, events.ApyChanged{
		StrategyID: s.state.ID,
		Apy:        apy,
		OccurredAt: s.state.UpdatedAt,
	})
	return nil
}

// SetBeginning anchors the accrual epoch at timestamp (unix seconds).
func (s *Strategy) SetBeginning(ctx context.Context, caller models.Address, timestamp int64) (err error) {
	defer func() { metrics.RecordOperation("set_beginning", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if timestamp < 0 {
		return fmt.Errorf("beginning %d: %w", timestamp, ErrInvalidTimestamp)
	}
	if err := s.commit(ctx, func(st *models.StrategyState) { st.Beginning = timestamp }); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"caller": caller, "beginning": timestamp}).Info("beginning set")
	s.publish(ctx, events.TopicBeginningChanged, events.BeginningChanged{
		StrategyID: s.state.ID,
		Beginning:  timestamp,
		OccurredAt: s.state.UpdatedAt,
	})
	return nil
}

// SetVault points the strategy at the token whose supply is accrued on. The
// zero address is allowed and stops accrual. VaultChanged is emitted on every
// call, including when the vault does not change.
func (s *Strategy) SetVault(ctx context.Context, caller, vault models.Address) (err error) {
	defer func() { metrics.RecordOperation("set_vault", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if vault == "" {
		vault = models.ZeroAddress
	}
	if err := s.commit(ctx, func(st *models.StrategyState) { st.Vault = vault }); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"caller": caller, "vault": vault}).Info("vault set")
	s.publish(ctx, events.TopicVaultChanged, events.VaultChanged{
		StrategyID: s.state.ID,
		Vault:      vault,
		OccurredAt: s.state.UpdatedAt,
	})
	return nil
}

// TransferOwnership hands the owner role to newOwner, which must not be the
// zero address. Only the current owner may call it.
func (s *Strategy) TransferOwnership(ctx context.Context, caller, newOwner models.Address) (err error) {
	defer func() { metrics.RecordOperation("transfer_ownership", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("new owner is the zero address: %w", ErrInvalidAddress)
	}
	previous := s.state.Owner
	if err := s.commit(ctx, func(st *models.StrategyState) { st.Owner = newOwner }); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"previous_owner": previous, "new_owner": newOwner}).Info("ownership transferred")
	s.publish(ctx, events.TopicOwnershipTransferred, events.OwnershipTransferred{
		StrategyID:    s.state.ID,
		PreviousOwner: previous,
		NewOwner:      newOwner,
		OccurredAt:    s.state.UpdatedAt,
	})
	return nil
}

// Valuation is a point-in-time reading of the strategy's balances.
type Valuation struct {
	Virtual decimal.Decimal `json:"virtual_balance"`
	Actual  decimal.Decimal `json:"actual_balance"`
	Total   decimal.Decimal `json:"total_value"`
}

// Value reads the virtual and actual balances at now. Total is the larger of
// the two, so the reported value never drops below what is held.
func (s *Strategy) Value(ctx context.Context, now time.Time) (Valuation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	virtual, err := s.virtualBalance(ctx, now)
	if err != nil {
		return Valuation{}, err
	}
	actual, err := s.actualBalance(ctx)
	if err != nil {
		return Valuation{}, err
	}
	return Valuation{Virtual: virtual, Actual: actual, Total: decimal.Max(virtual, actual)}, nil
}

// VirtualBalance is the vault's supply plus the interest accrued on it between
// the beginning and now.
func (s *Strategy) VirtualBalance(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.virtualBalance(ctx, now)
}

// TotalValue is Value(now).Total.
func (s *Strategy) TotalValue(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	v, err := s.Value(ctx, now)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Total, nil
}

// Deposit pulls amount from the controller, which must have approved the
// strategy beforehand. When the strategy already holds something but less than
// its virtual balance, the gap is minted first so that the balance afterwards
// is exactly virtual + amount. A strategy holding nothing gets no top-up.
func (s *Strategy) Deposit(ctx context.Context, caller models.Address, amount decimal.Decimal, now time.Time) (err error) {
	defer func() { metrics.RecordOperation("deposit", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyController(caller); err != nil {
		return err
	}
	if !models.ValidAmount(amount) {
		return fmt.Errorf("deposit %s: %w", amount, ErrInvalidAmount)
	}

	virtual, err := s.virtualBalance(ctx, now)
	if err != nil {
		return err
	}

	self := s.state.Address
	actual, shortfall, err := s.token.PullWithTopUp(ctx, self, caller, amount, func(held decimal.Decimal) decimal.Decimal {
		if held.IsPositive() && virtual.GreaterThan(held) {
			return virtual.Sub(held)
		}
		return decimal.Zero
	})
	if err != nil {
		return fmt.Errorf("pull deposit from %s: %w", caller, err)
	}

	balance := actual.Add(shortfall).Add(amount)
	s.log.WithFields(logrus.Fields{
		"caller":    caller,
		"amount":    amount,
		"shortfall": shortfall,
		"balance":   balance,
	}).Info("deposit")

	at := now.UTC()
	if shortfall.IsPositive() {
		metrics.RecordShortfallMint("deposit")
		s.journal(ctx, models.EntryMint, self, shortfall, at)
		s.publish(ctx, events.TopicShortfallMinted, events.ShortfallMinted{StrategyID: s.state.ID, Amount: shortfall, OccurredAt: at})
	}
	s.journal(ctx, models.EntryDeposit, caller, amount, at)
	s.publish(ctx, events.TopicDeposited, events.Deposited{
		StrategyID: s.state.ID,
		From:       caller,
		Amount:     amount,
		Balance:    balance,
		OccurredAt: at,
	})
	return nil
}

// Withdraw pays amount to recipient, minting whatever the strategy is short of
// amount first. Withdrawals therefore never fail for lack of funds.
func (s *Strategy) Withdraw(ctx context.Context, caller, recipient models.Address, amount decimal.Decimal, now time.Time) (err error) {
	defer func() { metrics.RecordOperation("withdraw", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.onlyController(caller); err != nil {
		return err
	}
	if recipient.IsZero() {
		return fmt.Errorf("withdraw to zero address: %w", ErrInvalidAddress)
	}
	if !models.ValidAmount(amount) {
		return fmt.Errorf("withdraw %s: %w", amount, ErrInvalidAmount)
	}

	self := s.state.Address
	shortfall, err := s.token.PayWithTopUp(ctx, self, recipient, amount)
	if err != nil {
		return fmt.Errorf("pay %s: %w", recipient, err)
	}

	s.log.WithFields(logrus.Fields{
		"caller":    caller,
		"recipient": recipient,
		"amount":    amount,
		"shortfall": shortfall,
	}).Info("withdraw")

	at := now.UTC()
	if shortfall.IsPositive() {
		metrics.RecordShortfallMint("withdraw")
		s.journal(ctx, models.EntryMint, self, shortfall, at)
		s.publish(ctx, events.TopicShortfallMinted, events.ShortfallMinted{StrategyID: s.state.ID, Amount: shortfall, OccurredAt: at})
	}
	s.journal(ctx, models.EntryWithdraw, recipient, amount, at)
	s.publish(ctx, events.TopicWithdrawn, events.Withdrawn{
		StrategyID: s.state.ID,
		Recipient:  recipient,
		Amount:     amount,
		OccurredAt: at,
	})
	return nil
}

// Entries returns the strategy's journal in the order it was written.
func (s *Strategy) Entries(ctx context.Context) ([]models.LedgerEntry, error) {
	return s.store.GetEntries(ctx, s.id)
}

func (s *Strategy) onlyOwner(caller models.Address) error {
	if caller.IsZero() || caller != s.state.Owner {
		return ErrNotOwner
	}
	return nil
}

func (s *Strategy) onlyController(caller models.Address) error {
	if caller.IsZero() || caller != s.state.Controller {
		return ErrNotController
	}
	return nil
}

// commit persists a modified copy of the state and only then swaps it in.
func (s *Strategy) commit(ctx context.Context, mutate func(*models.StrategyState)) error {
	next := s.state
	mutate(&next)
	next.UpdatedAt = time.Now().UTC()

	if err := s.store.SaveState(ctx, next); err != nil {
		return fmt.Errorf("save strategy %s: %w", next.ID, err)
	}
	s.state = next
	return nil
}

func (s *Strategy) virtualBalance(ctx context.Context, now time.Time) (decimal.Decimal, error) {
	principal, err := s.supply.TotalSupply(ctx, s.state.Vault)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read vault %s supply: %w", s.state.Vault, err)
	}
	return VirtualBalance(principal, s.state.Apy, s.state.Beginning, now.Unix()), nil
}

func (s *Strategy) actualBalance(ctx context.Context) (decimal.Decimal, error) {
	balance, err := s.token.BalanceOf(ctx, s.state.Address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read strategy balance: %w", err)
	}
	return balance, nil
}

// journal and publish run after a call has committed. Their failures are
// logged and counted but do not fail the call.
func (s *Strategy) journal(ctx context.Context, kind models.EntryKind, account models.Address, amount decimal.Decimal, at time.Time) {
	entry := models.LedgerEntry{
		ID:         uuid.New().String(),
		StrategyID: s.state.ID,
		Kind:       kind,
		Account:    account,
		Amount:     amount,
		CreatedAt:  at,
	}
	if err := s.store.SaveEntry(ctx, entry); err != nil {
		metrics.RecordSideEffectFailure("journal")
		s.log.WithError(err).WithField("entry_id", entry.ID).Warn("failed to journal entry")
	}
}

func (s *Strategy) publish(ctx context.Context, topic string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, s.state.ID, event); err != nil {
		metrics.RecordSideEffectFailure("publish")
		s.log.WithError(err).WithField("topic", topic).Warn("failed to publish event")
	}
}
