package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Pool is the two-token AMM handle. aToB is true when selling HOUSE for BICY.
type Pool interface {
	Address() common.Address
	GetAmountOut(ctx context.Context, amountIn *big.Int, aToB bool) (*big.Int, error)
	Swap(ctx context.Context, amountIn, minOut *big.Int, aToB bool) (*PendingTx, error)
	AddLiquidity(ctx context.Context, amountHouse, amountBicy *big.Int) (*PendingTx, error)
}

type ammPool struct {
	boundContract
	fns Functions
}

func (p *ammPool) Address() common.Address { return p.address }

func (p *ammPool) GetAmountOut(ctx context.Context, amountIn *big.Int, aToB bool) (*big.Int, error) {
	return p.callBigInt(ctx, p.fns.PoolGetAmountOut, amountIn, aToB)
}

func (p *ammPool) Swap(ctx context.Context, amountIn, minOut *big.Int, aToB bool) (*PendingTx, error) {
	return p.transact(ctx, 0, p.fns.PoolSwap, amountIn, minOut, aToB)
}

func (p *ammPool) AddLiquidity(ctx context.Context, amountHouse, amountBicy *big.Int) (*PendingTx, error) {
	return p.transact(ctx, 0, p.fns.PoolAddLiquidity, amountHouse, amountBicy)
}
