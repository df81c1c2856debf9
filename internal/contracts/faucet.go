package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ErrUnsupported is returned when the bound ABI lacks an optional method.
var ErrUnsupported = errors.New("method not exposed by contract")

// ClaimGasLimit is the fixed gas limit used for faucet claims.
const ClaimGasLimit uint64 = 300000

// Faucet is the dual-token faucet handle. The eligibility and cooldown reads are optional.
type Faucet interface {
	Address() common.Address
	CanClaim(ctx context.Context, account common.Address) (bool, error)
	Cooldown(ctx context.Context) (*big.Int, error)
	LastClaim(ctx context.Context, account common.Address) (*big.Int, error)
	ClaimBoth(ctx context.Context) (*PendingTx, error)
}

type dualFaucet struct {
	boundContract
	fns Functions
}

func (f *dualFaucet) Address() common.Address { return f.address }

func (f *dualFaucet) CanClaim(ctx context.Context, account common.Address) (bool, error) {
	if !f.has("canClaim") {
		return false, ErrUnsupported
	}
	values, err := f.call(ctx, "canClaim", account)
	if err != nil {
		return false, err
	}
	ok, err := asBool(values[0])
	if err != nil {
		return false, errors.Wrap(err, "faucet.canClaim")
	}
	return ok, nil
}

func (f *dualFaucet) Cooldown(ctx context.Context) (*big.Int, error) {
	if !f.has("cooldown") {
		return nil, ErrUnsupported
	}
	return f.callBigInt(ctx, "cooldown")
}

func (f *dualFaucet) LastClaim(ctx context.Context, account common.Address) (*big.Int, error) {
	if !f.has("lastClaim") {
		return nil, ErrUnsupported
	}
	return f.callBigInt(ctx, "lastClaim", account)
}

func (f *dualFaucet) ClaimBoth(ctx context.Context) (*PendingTx, error) {
	return f.transact(ctx, ClaimGasLimit, f.fns.FaucetClaimBoth)
}
