package contracts

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"neuraswap/internal/wallet"
)

// Backend is what bound contracts need from the wallet; wallet.Provider satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
	SendTransaction(ctx context.Context, req wallet.TxRequest) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// PendingTx is a submitted transaction awaiting confirmation.
type PendingTx struct {
	Hash common.Hash
	wait func(ctx context.Context) (*types.Receipt, error)
}

// NewPendingTx builds a pending transaction with a custom wait function.
func NewPendingTx(hash common.Hash, wait func(ctx context.Context) (*types.Receipt, error)) *PendingTx {
	return &PendingTx{Hash: hash, wait: wait}
}

// Wait blocks until the transaction is confirmed. There is no timeout beyond ctx.
func (p *PendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	if p == nil || p.wait == nil {
		return nil, fmt.Errorf("nothing to wait for")
	}
	return p.wait(ctx)
}

type boundContract struct {
	name    string
	address common.Address
	abi     abi.ABI
	backend Backend
	from    common.Address
}

func (c *boundContract) has(method string) bool {
	_, ok := c.abi.Methods[method]
	return ok
}

func (c *boundContract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s.%s", c.name, method)
	}
	msg := ethereum.CallMsg{From: c.from, To: &c.address, Data: data}
	resp, err := c.backend.CallContract(ctx, msg)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s.%s", c.name, method)
	}
	values, err := c.abi.Unpack(method, resp)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s.%s", c.name, method)
	}
	if len(values) == 0 {
		return nil, errors.Errorf("%s.%s returned no values", c.name, method)
	}
	return values, nil
}

func (c *boundContract) transact(ctx context.Context, gasLimit uint64, method string, args ...interface{}) (*PendingTx, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s.%s", c.name, method)
	}
	tx, err := c.backend.SendTransaction(ctx, wallet.TxRequest{
		From:     c.from,
		To:       c.address,
		Data:     data,
		GasLimit: gasLimit,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "send %s.%s", c.name, method)
	}
	backend := c.backend
	return NewPendingTx(tx.Hash(), func(ctx context.Context) (*types.Receipt, error) {
		return backend.WaitMined(ctx, tx)
	}), nil
}

func (c *boundContract) callBigInt(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	values, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, err := asBigInt(values[0])
	if err != nil {
		return nil, errors.Wrapf(err, "%s.%s", c.name, method)
	}
	return v, nil
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	var wide uint64
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		wide = uint64(v)
	case uint32:
		wide = uint64(v)
	case uint64:
		wide = v
	case *big.Int:
		if v.Sign() < 0 || !v.IsUint64() {
			return 0, fmt.Errorf("value %s out of uint8 range", v)
		}
		wide = v.Uint64()
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
	if wide > math.MaxUint8 {
		return 0, fmt.Errorf("value %d out of uint8 range", wide)
	}
	return uint8(wide), nil
}

func asBool(value interface{}) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("unsupported bool type %T", value)
	}
	return v, nil
}
