package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"neuraswap/internal/chain"
	"neuraswap/internal/contracts"
	"neuraswap/internal/model"
	"neuraswap/internal/units"
	"neuraswap/internal/wallet"
)

var (
	// ErrReloadRequired means the wallet moved to another chain and all state must be rebuilt.
	ErrReloadRequired = errors.New("wallet network changed, reload required")
	// ErrSuperseded is returned by a connect that was overtaken by a disconnect or account change.
	ErrSuperseded = errors.New("connect superseded")
	// ErrConnectInProgress rejects a second connect while one is pending.
	ErrConnectInProgress = errors.New("connect already in progress")
)

// Controller owns the connect/disconnect lifecycle and the current Session.
type Controller struct {
	provider wallet.Provider
	guard    *ChainGuard
	binder   contracts.Binder
	logger   *zap.Logger

	mu         sync.Mutex
	status     Status
	current    *Session
	lastErr    error
	generation uint64
	reloadGen  uint64
	balances   model.Balances

	hooksMu         sync.Mutex
	resetHooks      []func()
	invalidateHooks []func(ctx context.Context)
}

// NewController builds a controller. provider may be nil, in which case Connect reports a missing wallet.
func NewController(provider wallet.Provider, target model.NetworkSpec, binder contracts.Binder, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		provider: provider,
		guard:    NewChainGuard(provider, target, logger),
		binder:   binder,
		logger:   logger,
		balances: model.ZeroBalances(),
	}
}

// OnReset registers fn to run after every teardown. Hooks run outside the controller lock.
func (c *Controller) OnReset(fn func()) {
	c.hooksMu.Lock()
	c.resetHooks = append(c.resetHooks, fn)
	c.hooksMu.Unlock()
}

// OnInvalidate registers fn to run after a confirmed write.
func (c *Controller) OnInvalidate(fn func(ctx context.Context)) {
	c.hooksMu.Lock()
	c.invalidateHooks = append(c.invalidateHooks, fn)
	c.hooksMu.Unlock()
}

// Status returns the lifecycle state and the error that caused the last failure.
func (c *Controller) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.lastErr
}

// Current returns the live session, if any.
func (c *Controller) Current() (*Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Connected || c.current == nil {
		return nil, false
	}
	return c.current, true
}

// Require returns the live session or a NotConnected error.
func (c *Controller) Require() (*Session, error) {
	s, ok := c.Current()
	if !ok {
		return nil, model.NewError(model.KindNotConnected, "connect wallet first", nil)
	}
	return s, nil
}

// Target returns the enforced network.
func (c *Controller) Target() model.NetworkSpec {
	return c.guard.Target()
}

// Connect runs ChainGuard, picks the first account, binds contracts and fetches
// token decimals. Connecting while connected is a no-op.
func (c *Controller) Connect(ctx context.Context) error {
	if c.provider == nil {
		return model.NewError(model.KindMissingWallet, "No wallet detected. Install a wallet or configure a wallet key.", nil)
	}

	c.mu.Lock()
	switch c.status {
	case Connected:
		c.mu.Unlock()
		return nil
	case Connecting:
		c.mu.Unlock()
		return ErrConnectInProgress
	}
	c.generation++
	gen := c.generation
	c.status = Connecting
	c.lastErr = nil
	c.mu.Unlock()

	next, err := c.open(ctx)
	if err != nil {
		return c.fail(gen, err)
	}

	c.mu.Lock()
	if gen != c.generation {
		err := c.abandonedLocked(gen)
		c.mu.Unlock()
		c.logger.Info("discarding superseded connect", zap.String("account", next.Account.Hex()), zap.Error(err))
		return err
	}
	c.current = next
	c.status = Connected
	c.balances = model.ZeroBalances()
	c.mu.Unlock()

	c.logger.Info("wallet connected",
		zap.String("account", next.Account.Hex()),
		zap.String("chain_id", c.guard.Target().ChainID.String()),
	)
	return nil
}

func (c *Controller) open(ctx context.Context) (*Session, error) {
	if err := c.guard.Ensure(ctx); err != nil {
		return nil, err
	}

	accounts, err := c.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, classify(err, model.KindUnknown, "request accounts")
	}
	if len(accounts) == 0 {
		return nil, model.NewError(model.KindUnknown, "No account available in wallet", nil)
	}
	account := accounts[0]

	bundle, err := c.binder.Bind(ctx, c.provider, account)
	if err != nil {
		return nil, fmt.Errorf("bind contracts: %w", err)
	}

	decimals := NewDecimalsCache()
	for _, ref := range model.Tokens {
		d, err := bundle.Token(ref).Decimals(ctx)
		if err != nil {
			return nil, classify(err, model.KindNetworkUnavailable, fmt.Sprintf("read %s decimals", ref))
		}
		decimals.Set(ref, d)
	}

	return &Session{
		Account:       account,
		ChainVerified: true,
		Contracts:     bundle,
		decimals:      decimals,
	}, nil
}

func (c *Controller) fail(gen uint64, err error) error {
	c.mu.Lock()
	if gen != c.generation {
		abandoned := c.abandonedLocked(gen)
		c.mu.Unlock()
		return abandoned
	}
	c.status = Failed
	c.current = nil
	c.lastErr = err
	c.balances = model.ZeroBalances()
	c.mu.Unlock()

	c.logger.Warn("connect failed", zap.Error(err))
	c.runReset()
	return err
}

// abandonedLocked is the error for a connect overtaken by a newer generation.
func (c *Controller) abandonedLocked(gen uint64) error {
	if gen <= c.reloadGen {
		return ErrReloadRequired
	}
	return ErrSuperseded
}

// Disconnect drops the session and resets every dependent cache. It always succeeds.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.generation++
	c.current = nil
	c.status = Disconnected
	c.lastErr = nil
	c.balances = model.ZeroBalances()
	c.mu.Unlock()

	c.runReset()
}

// OnAccountsChanged tears the session down before reconnecting.
func (c *Controller) OnAccountsChanged(ctx context.Context, accounts []common.Address) error {
	c.logger.Info("wallet accounts changed", zap.Int("accounts", len(accounts)))
	c.Disconnect()
	return c.Connect(ctx)
}

// OnChainChanged returns ErrReloadRequired when the wallet moves away from the target
// chain while a session is live or being opened. Events that report the target chain,
// such as the guard's own switch, are ignored.
func (c *Controller) OnChainChanged(chainID *big.Int) error {
	if chainID != nil && chainID.Cmp(c.guard.Target().ChainID) == 0 {
		return nil
	}

	c.mu.Lock()
	status := c.status
	if status == Connecting {
		// The pending connect already passed the guard; it must not install its session.
		c.reloadGen = c.generation
	}
	c.mu.Unlock()

	if status == Disconnected {
		return nil
	}

	c.logger.Warn("wallet network changed",
		zap.String("chain_id", fmt.Sprint(chainID)),
		zap.String("status", status.String()),
	)
	c.Disconnect()
	return ErrReloadRequired
}

// Watch delivers wallet notifications to the controller one at a time until ctx
// is done, events closes or a reload is required.
func (c *Controller) Watch(ctx context.Context, events <-chan wallet.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case wallet.AccountsChanged:
				if err := c.OnAccountsChanged(ctx, ev.Accounts); err != nil && !errors.Is(err, ErrSuperseded) {
					c.logger.Warn("reconnect after account change failed", zap.Error(err))
				}
			case wallet.ChainChanged:
				if err := c.OnChainChanged(ev.ChainID); err != nil {
					return err
				}
			}
		}
	}
}

// Balances returns the last balances read for the active account.
func (c *Controller) Balances() model.Balances {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances
}

// RefreshBalances reads HOUSE and BICY balances of the active account. Disconnected
// sessions report zero.
func (c *Controller) RefreshBalances(ctx context.Context) (model.Balances, error) {
	s, ok := c.Current()
	if !ok {
		return model.ZeroBalances(), nil
	}
	amounts := make(map[model.TokenRef]string, len(model.Tokens))
	for _, ref := range model.Tokens {
		bal, err := s.Contracts.Token(ref).BalanceOf(ctx, s.Account)
		if err != nil {
			return model.ZeroBalances(), classify(err, model.KindNetworkUnavailable, fmt.Sprintf("read %s balance", ref))
		}
		amounts[ref] = units.FromSmallest(bal, s.Decimals(ref))
	}
	out := model.Balances{House: amounts[model.HOUSE], Bicy: amounts[model.BICY]}

	c.mu.Lock()
	if c.current == s {
		c.balances = out
	}
	c.mu.Unlock()
	return out, nil
}

// Invalidate signals that on-chain state changed: balances are re-read and
// registered listeners refresh their derived state.
func (c *Controller) Invalidate(ctx context.Context) {
	if _, err := c.RefreshBalances(ctx); err != nil {
		c.logger.Debug("refresh balances failed", zap.Error(err))
	}
	c.hooksMu.Lock()
	hooks := append([]func(context.Context){}, c.invalidateHooks...)
	c.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

func (c *Controller) runReset() {
	c.hooksMu.Lock()
	hooks := append([]func(){}, c.resetHooks...)
	c.hooksMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func classify(err error, kind model.ErrorKind, action string) error {
	var classified *model.Error
	if errors.As(err, &classified) {
		return err
	}
	if wallet.IsUserRejected(err) {
		return model.NewError(model.KindUserRejected, chain.ErrorMessage(err), err)
	}
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return model.NewError(kind, chain.ErrorMessage(err), fmt.Errorf("%s: %w", action, err))
}

func contextError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
