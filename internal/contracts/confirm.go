package contracts

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/core/types"

	"neuraswap/internal/chain"
	"neuraswap/internal/model"
	"neuraswap/internal/wallet"
)

// Confirm waits for p to be mined and treats a failed receipt as a revert.
func Confirm(ctx context.Context, p *PendingTx) (*types.Receipt, error) {
	receipt, err := p.Wait(ctx)
	if err != nil {
		return nil, TxError(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, model.NewError(model.KindTransactionReverted, "transaction reverted", nil)
	}
	return receipt, nil
}

// TxError classifies a failed submission or confirmation, keeping the most specific message.
func TxError(err error) error {
	if err == nil {
		return nil
	}
	var classified *model.Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if wallet.IsUserRejected(err) {
		return model.NewError(model.KindUserRejected, chain.ErrorMessage(err), err)
	}
	return model.NewError(model.KindTransactionReverted, chain.ErrorMessage(err), err)
}
