// Package contractstest provides in-memory contract handles for tests.
package contractstest

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"neuraswap/internal/contracts"
)

var txCounter struct {
	mu sync.Mutex
	n  uint64
}

func nextHash() common.Hash {
	txCounter.mu.Lock()
	txCounter.n++
	n := txCounter.n
	txCounter.mu.Unlock()
	return crypto.Keccak256Hash(new(big.Int).SetUint64(n).Bytes())
}

func pending(waitErr error) *contracts.PendingTx {
	hash := nextHash()
	return contracts.NewPendingTx(hash, func(ctx context.Context) (*types.Receipt, error) {
		if waitErr != nil {
			return nil, waitErr
		}
		return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(100)}, nil
	})
}

// Token is a fake ERC20. Approve grants Owner an allowance.
type Token struct {
	mu sync.Mutex

	Addr        common.Address
	Owner       common.Address
	DecimalsVal uint8
	DecimalsErr error
	BalanceErr  error
	ApproveErr  error
	WaitErr     error

	balances   map[common.Address]*big.Int
	allowances map[common.Address]*big.Int

	DecimalsCalls int
	Approvals     []*big.Int
}

func NewToken(addr common.Address, decimals uint8) *Token {
	return &Token{
		Addr:        addr,
		DecimalsVal: decimals,
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]*big.Int),
	}
}

func (t *Token) SetBalance(owner common.Address, amount *big.Int) {
	t.mu.Lock()
	t.balances[owner] = new(big.Int).Set(amount)
	t.mu.Unlock()
}

// SetAllowance sets Owner's allowance for spender.
func (t *Token) SetAllowance(spender common.Address, amount *big.Int) {
	t.mu.Lock()
	t.allowances[spender] = new(big.Int).Set(amount)
	t.mu.Unlock()
}

func (t *Token) Address() common.Address { return t.Addr }

func (t *Token) BalanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.BalanceErr != nil {
		return nil, t.BalanceErr
	}
	if v, ok := t.balances[owner]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (t *Token) Decimals(context.Context) (uint8, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.DecimalsCalls++
	if t.DecimalsErr != nil {
		return 0, t.DecimalsErr
	}
	return t.DecimalsVal, nil
}

func (t *Token) Allowance(_ context.Context, _ common.Address, spender common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.allowances[spender]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (t *Token) Approve(_ context.Context, spender common.Address, amount *big.Int) (*contracts.PendingTx, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ApproveErr != nil {
		return nil, t.ApproveErr
	}
	t.Approvals = append(t.Approvals, new(big.Int).Set(amount))
	t.allowances[spender] = new(big.Int).Set(amount)
	return pending(t.WaitErr), nil
}

// SwapCall records one swap submission.
type SwapCall struct {
	AmountIn *big.Int
	MinOut   *big.Int
	AToB     bool
}

// Pool is a fake AMM. QuoteFn prices getAmountOut.
type Pool struct {
	mu sync.Mutex

	Addr     common.Address
	QuoteFn  func(amountIn *big.Int, aToB bool) (*big.Int, error)
	SwapErr  error
	AddErr   error
	WaitErr  error
	Swaps    []SwapCall
	Adds     [][2]*big.Int
	Quotes   int
	LastAToB bool
}

func (p *Pool) Address() common.Address { return p.Addr }

func (p *Pool) GetAmountOut(_ context.Context, amountIn *big.Int, aToB bool) (*big.Int, error) {
	p.mu.Lock()
	p.Quotes++
	p.LastAToB = aToB
	fn := p.QuoteFn
	p.mu.Unlock()
	if fn == nil {
		return new(big.Int), nil
	}
	return fn(amountIn, aToB)
}

func (p *Pool) Swap(_ context.Context, amountIn, minOut *big.Int, aToB bool) (*contracts.PendingTx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SwapErr != nil {
		return nil, p.SwapErr
	}
	p.Swaps = append(p.Swaps, SwapCall{AmountIn: amountIn, MinOut: minOut, AToB: aToB})
	return pending(p.WaitErr), nil
}

func (p *Pool) AddLiquidity(_ context.Context, amountHouse, amountBicy *big.Int) (*contracts.PendingTx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.AddErr != nil {
		return nil, p.AddErr
	}
	p.Adds = append(p.Adds, [2]*big.Int{amountHouse, amountBicy})
	return pending(p.WaitErr), nil
}

// Faucet is a fake faucet. Nil fields model methods the contract does not expose.
type Faucet struct {
	mu sync.Mutex

	Addr        common.Address
	CanClaimVal *bool
	CooldownVal *big.Int
	LastClaims  map[common.Address]*big.Int
	ReadErr     error
	ClaimErr    error
	Claims      int
}

func (f *Faucet) Address() common.Address { return f.Addr }

func (f *Faucet) CanClaim(context.Context, common.Address) (bool, error) {
	if f.ReadErr != nil {
		return false, f.ReadErr
	}
	if f.CanClaimVal == nil {
		return false, contracts.ErrUnsupported
	}
	return *f.CanClaimVal, nil
}

func (f *Faucet) Cooldown(context.Context) (*big.Int, error) {
	if f.CooldownVal == nil {
		return nil, contracts.ErrUnsupported
	}
	return new(big.Int).Set(f.CooldownVal), nil
}

func (f *Faucet) LastClaim(_ context.Context, account common.Address) (*big.Int, error) {
	if f.LastClaims == nil {
		return nil, contracts.ErrUnsupported
	}
	if v, ok := f.LastClaims[account]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

func (f *Faucet) ClaimBoth(context.Context) (*contracts.PendingTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClaimErr != nil {
		return nil, f.ClaimErr
	}
	f.Claims++
	return pending(nil), nil
}

// Binder hands out the same bundle on every Bind.
type Binder struct {
	mu     sync.Mutex
	Bundle *contracts.Bundle
	Err    error
	Binds  []common.Address
}

func (b *Binder) Bind(_ context.Context, _ contracts.Backend, account common.Address) (*contracts.Bundle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Binds = append(b.Binds, account)
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Bundle, nil
}

// Deployment is a ready-made set of fakes at fixed addresses.
type Deployment struct {
	House  *Token
	Bicy   *Token
	Pool   *Pool
	Faucet *Faucet
	Binder *Binder
}

// NewDeployment builds 18-decimal tokens, an empty pool and a faucet without optional reads.
func NewDeployment(owner common.Address) *Deployment {
	d := &Deployment{
		House:  NewToken(common.HexToAddress("0x737644a73931E86bE1d1e20A0a6eE19ec0d5fEc7"), 18),
		Bicy:   NewToken(common.HexToAddress("0xF014a7BEefA61DbDBa43C207Ca1c0D580e1897e2"), 18),
		Pool:   &Pool{Addr: common.HexToAddress("0x3cEc783B292F246f02B4F4A2f37230686FE2CCD6")},
		Faucet: &Faucet{Addr: common.HexToAddress("0xff63bB2Fe2a24C54bf11700a9125ee63633C3e0b")},
	}
	d.House.Owner = owner
	d.Bicy.Owner = owner
	d.Binder = &Binder{Bundle: &contracts.Bundle{House: d.House, Bicy: d.Bicy, Pool: d.Pool, Faucet: d.Faucet}}
	return d
}

// SetReserves sets the pool's token balances.
func (d *Deployment) SetReserves(house, bicy *big.Int) {
	d.House.SetBalance(d.Pool.Addr, house)
	d.Bicy.SetBalance(d.Pool.Addr, bicy)
}
