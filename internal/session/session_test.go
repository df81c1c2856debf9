package session

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuraswap/internal/contracts/contractstest"
	"neuraswap/internal/model"
	"neuraswap/internal/wallet"
	"neuraswap/internal/wallet/wallettest"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func neura() model.NetworkSpec {
	return model.NetworkSpec{
		ChainID:        big.NewInt(267),
		Name:           "Neura Testnet",
		RPCURLs:        []string{"https://testnet.rpc.neuraprotocol.io/"},
		NativeCurrency: model.NativeCurrency{Name: "ANKR", Symbol: "ANKR", Decimals: 18},
		ExplorerURLs:   []string{"https://testnet-blockscout.infra.neuraprotocol.io/"},
	}
}

func TestEnsureIsNoopOnTargetChain(t *testing.T) {
	p := wallettest.NewProvider(267)
	require.NoError(t, NewChainGuard(p, neura(), nil).Ensure(context.Background()))
	assert.Empty(t, p.Switches)
	assert.Empty(t, p.Added)
}

func TestEnsureAddsUnknownChain(t *testing.T) {
	p := wallettest.NewProvider(1)
	require.NoError(t, NewChainGuard(p, neura(), nil).Ensure(context.Background()))

	require.Len(t, p.Switches, 1)
	require.Len(t, p.Added, 1)
	assert.Equal(t, "Neura Testnet", p.Added[0].Name)
	assert.Equal(t, int64(267), p.Chain.Int64())
}

func TestEnsureSwitchesKnownChain(t *testing.T) {
	p := wallettest.NewProvider(1)
	p.Known["267"] = true
	require.NoError(t, NewChainGuard(p, neura(), nil).Ensure(context.Background()))
	assert.Len(t, p.Switches, 1)
	assert.Empty(t, p.Added)
}

func TestEnsureClassifiesFailures(t *testing.T) {
	p := wallettest.NewProvider(1)
	p.SwitchErr = &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "User rejected the request."}
	err := NewChainGuard(p, neura(), nil).Ensure(context.Background())
	assert.True(t, model.IsKind(err, model.KindUserRejected))
	assert.Equal(t, "User rejected the request. (code 4001)", err.Error())

	p = wallettest.NewProvider(1)
	p.SwitchErr = errors.New("wallet exploded")
	err = NewChainGuard(p, neura(), nil).Ensure(context.Background())
	assert.True(t, model.IsKind(err, model.KindChainMismatch))
	assert.Equal(t, "wallet exploded", err.Error())

	p = wallettest.NewProvider(1)
	p.AddErr = errors.New("add refused")
	err = NewChainGuard(p, neura(), nil).Ensure(context.Background())
	assert.True(t, model.IsKind(err, model.KindChainMismatch))

	p = wallettest.NewProvider(1)
	p.ChainIDErr = errors.New("no chain")
	err = NewChainGuard(p, neura(), nil).Ensure(context.Background())
	assert.True(t, model.IsKind(err, model.KindNetworkUnavailable))

	err = NewChainGuard(nil, neura(), nil).Ensure(context.Background())
	assert.True(t, model.IsKind(err, model.KindMissingWallet))
}

func newTestController(t *testing.T, chainID int64, accounts ...common.Address) (*Controller, *wallettest.Provider, *contractstest.Deployment) {
	t.Helper()
	p := wallettest.NewProvider(chainID, accounts...)
	owner := common.Address{}
	if len(accounts) > 0 {
		owner = accounts[0]
	}
	d := contractstest.NewDeployment(owner)
	return NewController(p, neura(), d.Binder, nil), p, d
}

func TestConnectOpensSession(t *testing.T) {
	c, p, d := newTestController(t, 1, alice, bob)
	d.Bicy.DecimalsVal = 6

	require.NoError(t, c.Connect(context.Background()))

	status, err := c.Status()
	assert.Equal(t, Connected, status)
	assert.NoError(t, err)

	s, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, alice, s.Account)
	assert.True(t, s.ChainVerified)
	assert.Equal(t, uint8(18), s.Decimals(model.HOUSE))
	assert.Equal(t, uint8(6), s.Decimals(model.BICY))
	assert.Len(t, p.Added, 1)

	// Connecting again is a no-op.
	require.NoError(t, c.Connect(context.Background()))
	assert.Len(t, d.Binder.Binds, 1)
}

func TestConnectWithoutWallet(t *testing.T) {
	c := NewController(nil, neura(), &contractstest.Binder{}, nil)
	err := c.Connect(context.Background())
	assert.True(t, model.IsKind(err, model.KindMissingWallet))
	status, _ := c.Status()
	assert.Equal(t, Disconnected, status)
}

func TestConnectWithoutAccountsFails(t *testing.T) {
	c, _, _ := newTestController(t, 267)
	err := c.Connect(context.Background())
	require.Error(t, err)

	status, last := c.Status()
	assert.Equal(t, Failed, status)
	assert.Equal(t, err, last)
	_, ok := c.Current()
	assert.False(t, ok)
}

func TestConnectFailurePassesMessageThrough(t *testing.T) {
	c, _, d := newTestController(t, 267, alice)
	d.House.DecimalsErr = errors.New("execution reverted")

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, "execution reverted", err.Error())
	status, _ := c.Status()
	assert.Equal(t, Failed, status)

	// A failed controller may connect again.
	d.House.DecimalsErr = nil
	require.NoError(t, c.Connect(context.Background()))
}

func TestConnectRejectedByUser(t *testing.T) {
	c, p, _ := newTestController(t, 267, alice)
	p.AccountsErr = &wallet.ProviderError{Code: wallet.CodeUserRejected, Message: "rejected"}
	err := c.Connect(context.Background())
	assert.True(t, model.IsKind(err, model.KindUserRejected))
}

func TestDisconnectResetsAndReconnectRefetchesDecimals(t *testing.T) {
	c, _, d := newTestController(t, 267, alice)
	resets := 0
	c.OnReset(func() { resets++ })

	d.House.SetBalance(alice, big.NewInt(2_500_000_000_000_000_000))
	require.NoError(t, c.Connect(context.Background()))
	bal, err := c.RefreshBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.5", bal.House)
	assert.Equal(t, "0", bal.Bicy)

	c.Disconnect()
	c.Disconnect()
	assert.Equal(t, 2, resets)
	assert.Equal(t, model.ZeroBalances(), c.Balances())
	status, _ := c.Status()
	assert.Equal(t, Disconnected, status)

	d.House.DecimalsVal = 8
	require.NoError(t, c.Connect(context.Background()))
	s, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, uint8(8), s.Decimals(model.HOUSE))
	assert.Equal(t, 2, d.House.DecimalsCalls)
	assert.Equal(t, 2, d.Bicy.DecimalsCalls)
}

func TestOnChainChanged(t *testing.T) {
	c, _, _ := newTestController(t, 267, alice)

	// Nothing to tear down while disconnected.
	assert.NoError(t, c.OnChainChanged(big.NewInt(1)))

	require.NoError(t, c.Connect(context.Background()))
	assert.NoError(t, c.OnChainChanged(big.NewInt(267)))

	err := c.OnChainChanged(big.NewInt(1))
	assert.ErrorIs(t, err, ErrReloadRequired)
	status, _ := c.Status()
	assert.Equal(t, Disconnected, status)
}

func TestOnAccountsChangedReconnects(t *testing.T) {
	c, p, d := newTestController(t, 267, alice)
	require.NoError(t, c.Connect(context.Background()))

	resets := 0
	c.OnReset(func() { resets++ })
	p.Accounts = []common.Address{bob}
	require.NoError(t, c.OnAccountsChanged(context.Background(), p.Accounts))

	s, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, bob, s.Account)
	assert.Equal(t, 1, resets)
	assert.Equal(t, []common.Address{alice, bob}, d.Binder.Binds)
}

func TestConnectSupersededByDisconnect(t *testing.T) {
	c, p, _ := newTestController(t, 267, alice)
	p.Block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background()) }()

	require.Eventually(t, func() bool {
		status, _ := c.Status()
		return status == Connecting
	}, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Connect(context.Background()), ErrConnectInProgress)

	c.Disconnect()
	close(p.Block)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	status, _ := c.Status()
	assert.Equal(t, Disconnected, status)
	_, ok := c.Current()
	assert.False(t, ok)
}

func TestConnectAbortedByChainChange(t *testing.T) {
	c, p, _ := newTestController(t, 267, alice)
	p.Block = make(chan struct{})
	resets := 0
	c.OnReset(func() { resets++ })

	done := make(chan error, 1)
	go func() { done <- c.Connect(context.Background()) }()

	require.Eventually(t, func() bool {
		status, _ := c.Status()
		return status == Connecting
	}, time.Second, time.Millisecond)

	// The guard's own switch reports the target chain and is ignored.
	assert.NoError(t, c.OnChainChanged(big.NewInt(267)))
	status, _ := c.Status()
	assert.Equal(t, Connecting, status)

	assert.ErrorIs(t, c.OnChainChanged(big.NewInt(1)), ErrReloadRequired)
	close(p.Block)

	assert.ErrorIs(t, <-done, ErrReloadRequired)
	status, _ = c.Status()
	assert.Equal(t, Disconnected, status)
	_, ok := c.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, resets)

	// A fresh connect after the reload is unaffected.
	p.Block = nil
	require.NoError(t, c.Connect(context.Background()))
	s, ok := c.Current()
	require.True(t, ok)
	assert.True(t, s.ChainVerified)
}

func TestWatchDeliversEvents(t *testing.T) {
	c, p, _ := newTestController(t, 267, alice)
	require.NoError(t, c.Connect(context.Background()))

	p.Accounts = []common.Address{bob}
	p.Emit(wallet.Event{Kind: wallet.AccountsChanged, Accounts: p.Accounts})
	p.Emit(wallet.Event{Kind: wallet.ChainChanged, ChainID: big.NewInt(5)})

	err := c.Watch(context.Background(), p.Events())
	assert.ErrorIs(t, err, ErrReloadRequired)
	status, _ := c.Status()
	assert.Equal(t, Disconnected, status)
}

func TestWatchStopsOnCancel(t *testing.T) {
	c, p, _ := newTestController(t, 267, alice)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Watch(ctx, p.Events()), context.Canceled)
}

func TestInvalidateRunsHooks(t *testing.T) {
	c, _, d := newTestController(t, 267, alice)
	require.NoError(t, c.Connect(context.Background()))
	d.Bicy.SetBalance(alice, big.NewInt(1_000_000_000_000_000_000))

	calls := 0
	c.OnInvalidate(func(context.Context) { calls++ })
	c.Invalidate(context.Background())

	assert.Equal(t, 1, calls)
	assert.Equal(t, "1", c.Balances().Bicy)
}

func TestRequireWhenDisconnected(t *testing.T) {
	c, _, _ := newTestController(t, 267, alice)
	_, err := c.Require()
	assert.True(t, model.IsKind(err, model.KindNotConnected))
}
