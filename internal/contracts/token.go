package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Token is an ERC20 handle.
type Token interface {
	Address() common.Address
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (*PendingTx, error)
}

type erc20 struct {
	boundContract
}

func (t *erc20) Address() common.Address { return t.address }

func (t *erc20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callBigInt(ctx, "balanceOf", owner)
}

func (t *erc20) Decimals(ctx context.Context) (uint8, error) {
	values, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return 0, errors.Wrapf(err, "%s.decimals", t.name)
	}
	return decimals, nil
}

func (t *erc20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callBigInt(ctx, "allowance", owner, spender)
}

func (t *erc20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*PendingTx, error) {
	return t.transact(ctx, 0, "approve", spender, amount)
}
