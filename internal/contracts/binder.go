package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"neuraswap/internal/model"
)

// Addresses locates the four deployed contracts.
type Addresses struct {
	House  common.Address
	Bicy   common.Address
	Faucet common.Address
	Pool   common.Address
}

// Functions names the pool and faucet methods the client invokes.
type Functions struct {
	PoolGetAmountOut string
	PoolSwap         string
	PoolAddLiquidity string
	FaucetClaimBoth  string
}

// DefaultFunctions returns the method names of the deployed contracts.
func DefaultFunctions() Functions {
	return Functions{
		PoolGetAmountOut: "getAmountOut",
		PoolSwap:         "swap",
		PoolAddLiquidity: "addLiquidity",
		FaucetClaimBoth:  "claimBoth",
	}
}

// Bundle holds the handles bound to one account.
type Bundle struct {
	House  Token
	Bicy   Token
	Pool   Pool
	Faucet Faucet
}

// Token returns the handle for ref.
func (b *Bundle) Token(ref model.TokenRef) Token {
	if ref == model.BICY {
		return b.Bicy
	}
	return b.House
}

// Binder builds contract handles for the connected account.
type Binder interface {
	Bind(ctx context.Context, backend Backend, account common.Address) (*Bundle, error)
}

// EVMBinder binds the deployed contracts through the ABI set.
type EVMBinder struct {
	addrs Addresses
	abis  ABIs
	fns   Functions
}

// NewBinder validates that the configured function names exist in the ABIs.
func NewBinder(addrs Addresses, abis ABIs, fns Functions) (*EVMBinder, error) {
	if addrs.House == (common.Address{}) || addrs.Bicy == (common.Address{}) ||
		addrs.Pool == (common.Address{}) || addrs.Faucet == (common.Address{}) {
		return nil, fmt.Errorf("contract addresses are required")
	}
	checks := []struct {
		abiName string
		methods map[string]struct{}
		name    string
	}{
		{"pool", methodSet(abis.Pool.Methods), fns.PoolGetAmountOut},
		{"pool", methodSet(abis.Pool.Methods), fns.PoolSwap},
		{"pool", methodSet(abis.Pool.Methods), fns.PoolAddLiquidity},
		{"faucet", methodSet(abis.Faucet.Methods), fns.FaucetClaimBoth},
	}
	for _, c := range checks {
		if c.name == "" {
			return nil, fmt.Errorf("empty %s function name", c.abiName)
		}
		if _, ok := c.methods[c.name]; !ok {
			return nil, fmt.Errorf("%s abi has no method %q", c.abiName, c.name)
		}
	}
	for _, m := range []string{"balanceOf", "decimals", "allowance", "approve"} {
		if _, ok := abis.ERC20.Methods[m]; !ok {
			return nil, fmt.Errorf("erc20 abi has no method %q", m)
		}
	}
	return &EVMBinder{addrs: addrs, abis: abis, fns: fns}, nil
}

func methodSet[T any](methods map[string]T) map[string]struct{} {
	out := make(map[string]struct{}, len(methods))
	for name := range methods {
		out[name] = struct{}{}
	}
	return out
}

// Addresses returns the bound contract addresses.
func (b *EVMBinder) Addresses() Addresses { return b.addrs }

// Bind returns fresh handles for account.
func (b *EVMBinder) Bind(_ context.Context, backend Backend, account common.Address) (*Bundle, error) {
	if backend == nil {
		return nil, fmt.Errorf("bind contracts: nil backend")
	}
	bound := func(name string, addr common.Address, parsed abi.ABI) boundContract {
		return boundContract{name: name, address: addr, abi: parsed, backend: backend, from: account}
	}
	house := bound("HOUSE", b.addrs.House, b.abis.ERC20)
	bicy := bound("BICY", b.addrs.Bicy, b.abis.ERC20)
	pool := bound("pool", b.addrs.Pool, b.abis.Pool)
	faucet := bound("faucet", b.addrs.Faucet, b.abis.Faucet)
	return &Bundle{
		House:  &erc20{boundContract: house},
		Bicy:   &erc20{boundContract: bicy},
		Pool:   &ammPool{boundContract: pool, fns: b.fns},
		Faucet: &dualFaucet{boundContract: faucet, fns: b.fns},
	}, nil
}
