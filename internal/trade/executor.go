package trade

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"neuraswap/internal/chain"
	"neuraswap/internal/contracts"
	"neuraswap/internal/liquidity"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
	"neuraswap/internal/storage"
	"neuraswap/internal/units"
)

const maxBasisPoints = 10000

// Sessions yields the live session and accepts the post-write invalidate signal.
type Sessions interface {
	Require() (*session.Session, error)
	Invalidate(ctx context.Context)
}

// Quoter prices a swap without swallowing failures.
type Quoter interface {
	Compute(ctx context.Context, dir model.TradeDirection, amount string) (model.Quote, error)
}

// Form is the liquidity form the add-liquidity flow reads and clears.
type Form interface {
	Sync(ctx context.Context) liquidity.View
	Clear()
}

// Options tunes an Executor.
type Options struct {
	DefaultSlippagePct float64
	Recorder           *storage.Recorder
	Logger             *zap.Logger
}

// Executor submits swaps and liquidity additions.
type Executor struct {
	sessions Sessions
	quoter   Quoter
	form     Form
	slippage float64
	recorder *storage.Recorder
	logger   *zap.Logger
}

func NewExecutor(sessions Sessions, quoter Quoter, form Form, opts Options) *Executor {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		sessions: sessions,
		quoter:   quoter,
		form:     form,
		slippage: opts.DefaultSlippagePct,
		recorder: opts.Recorder,
		logger:   logger,
	}
}

// SwapResult describes a confirmed swap.
type SwapResult struct {
	Quote       model.Quote  `json:"quote"`
	MinOut      *big.Int     `json:"min_out"`
	BasisPoints int64        `json:"slippage_bps"`
	Approval    *common.Hash `json:"approval_tx,omitempty"`
	TxHash      common.Hash  `json:"tx_hash"`
	BlockNumber uint64       `json:"block_number"`
}

// MinOut is amountOut less floor(amountOut * bps / 10000).
func MinOut(amountOut *big.Int, bps int64) *big.Int {
	if bps < 0 {
		bps = 0
	}
	if bps > maxBasisPoints {
		bps = maxBasisPoints
	}
	cut := new(big.Int).Mul(amountOut, big.NewInt(bps))
	cut.Quo(cut, big.NewInt(maxBasisPoints))
	return new(big.Int).Sub(amountOut, cut)
}

// Swap requotes, approves exactly amountIn when the allowance falls short, then swaps
// with a slippage-bounded minimum output. Each step waits for confirmation.
func (x *Executor) Swap(ctx context.Context, dir model.TradeDirection, amount string, slippage model.Slippage) (SwapResult, error) {
	if !units.IsPositive(amount) {
		return SwapResult{}, model.NewError(model.KindInsufficientInput, "enter amount > 0", nil)
	}
	s, err := x.sessions.Require()
	if err != nil {
		return SwapResult{}, err
	}

	q, err := x.quoter.Compute(ctx, dir, amount)
	if err != nil {
		return SwapResult{}, err
	}
	bps := slippage.BasisPoints(x.slippage)
	minOut := MinOut(q.AmountOut, bps)

	tokenIn := s.Contracts.Token(dir.From)
	pool := s.Contracts.Pool

	approval, err := x.ensureAllowance(ctx, s, dir.From, tokenIn, pool.Address(), q.AmountIn)
	if err != nil {
		return SwapResult{}, err
	}

	x.logger.Info("submitting swap",
		zap.String("account", s.Account.Hex()),
		zap.String("direction", dir.String()),
		zap.String("amount_in", q.AmountIn.String()),
		zap.String("min_out", minOut.String()),
		zap.Int64("slippage_bps", bps),
	)
	pending, err := pool.Swap(ctx, q.AmountIn, minOut, dir.AToB())
	if err != nil {
		return SwapResult{}, x.fail("swap", contracts.TxError(err))
	}
	receipt, err := contracts.Confirm(ctx, pending)
	if err != nil {
		return SwapResult{}, x.fail("swap", err)
	}

	x.recorder.Record(ctx, model.ActivityRecord{
		Account:     s.Account.Hex(),
		Kind:        model.ActivitySwap,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: blockOf(receipt),
		Token:       dir.From.String(),
		AmountIn:    units.FromSmallest(q.AmountIn, q.DecimalsIn),
		AmountOut:   q.AmountOutText(),
		MinOut:      units.FromSmallest(minOut, q.DecimalsOut),
	})
	x.sessions.Invalidate(ctx)

	return SwapResult{
		Quote:       q,
		MinOut:      minOut,
		BasisPoints: bps,
		Approval:    approval,
		TxHash:      receipt.TxHash,
		BlockNumber: blockOf(receipt),
	}, nil
}

// LiquidityResult describes a confirmed liquidity addition.
type LiquidityResult struct {
	AmountHouse *big.Int      `json:"amount_house"`
	AmountBicy  *big.Int      `json:"amount_bicy"`
	Approvals   []common.Hash `json:"approval_txs,omitempty"`
	TxHash      common.Hash   `json:"tx_hash"`
	BlockNumber uint64        `json:"block_number"`
}

// AddLiquidity synchronizes the form, approves each side exactly, then adds both amounts.
func (x *Executor) AddLiquidity(ctx context.Context) (LiquidityResult, error) {
	s, err := x.sessions.Require()
	if err != nil {
		return LiquidityResult{}, err
	}

	draft := x.form.Sync(ctx).Draft
	if !units.IsPositive(draft.House) {
		return LiquidityResult{}, model.NewError(model.KindInsufficientInput, "Enter HOUSE amount > 0", nil)
	}
	if !units.IsPositive(draft.Bicy) {
		return LiquidityResult{}, model.NewError(model.KindInsufficientInput, "Enter BICY amount > 0", nil)
	}

	amounts := make(map[model.TokenRef]*big.Int, 2)
	for _, ref := range model.Tokens {
		v, err := units.ToSmallest(draft.Value(ref), s.Decimals(ref))
		if err != nil {
			return LiquidityResult{}, model.NewError(model.KindInsufficientInput, err.Error(), err)
		}
		amounts[ref] = v
	}

	pool := s.Contracts.Pool
	var approvals []common.Hash
	for _, ref := range model.Tokens {
		hash, err := x.ensureAllowance(ctx, s, ref, s.Contracts.Token(ref), pool.Address(), amounts[ref])
		if err != nil {
			return LiquidityResult{}, err
		}
		if hash != nil {
			approvals = append(approvals, *hash)
		}
	}

	x.logger.Info("submitting add liquidity",
		zap.String("account", s.Account.Hex()),
		zap.String("amount_house", amounts[model.HOUSE].String()),
		zap.String("amount_bicy", amounts[model.BICY].String()),
	)
	pending, err := pool.AddLiquidity(ctx, amounts[model.HOUSE], amounts[model.BICY])
	if err != nil {
		return LiquidityResult{}, x.fail("add liquidity", contracts.TxError(err))
	}
	receipt, err := contracts.Confirm(ctx, pending)
	if err != nil {
		return LiquidityResult{}, x.fail("add liquidity", err)
	}

	x.recorder.Record(ctx, model.ActivityRecord{
		Account:     s.Account.Hex(),
		Kind:        model.ActivityAddLiquidity,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: blockOf(receipt),
		AmountHouse: draft.House,
		AmountBicy:  draft.Bicy,
	})
	x.form.Clear()
	x.sessions.Invalidate(ctx)

	return LiquidityResult{
		AmountHouse: amounts[model.HOUSE],
		AmountBicy:  amounts[model.BICY],
		Approvals:   approvals,
		TxHash:      receipt.TxHash,
		BlockNumber: blockOf(receipt),
	}, nil
}

// ensureAllowance approves exactly amount for spender when the current allowance is short,
// and waits for the approval before returning.
func (x *Executor) ensureAllowance(ctx context.Context, s *session.Session, ref model.TokenRef, token contracts.Token, spender common.Address, amount *big.Int) (*common.Hash, error) {
	allowance, err := token.Allowance(ctx, s.Account, spender)
	if err != nil {
		return nil, x.fail("read allowance", readError(err))
	}
	if allowance.Cmp(amount) >= 0 {
		return nil, nil
	}

	x.logger.Info("approving token",
		zap.String("account", s.Account.Hex()),
		zap.String("token", ref.String()),
		zap.String("allowance", allowance.String()),
		zap.String("amount", amount.String()),
	)
	pending, err := token.Approve(ctx, spender, amount)
	if err != nil {
		return nil, x.fail("approve "+ref.String(), contracts.TxError(err))
	}
	receipt, err := contracts.Confirm(ctx, pending)
	if err != nil {
		return nil, x.fail("approve "+ref.String(), err)
	}

	x.recorder.Record(ctx, model.ActivityRecord{
		Account:     s.Account.Hex(),
		Kind:        model.ActivityApprove,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: blockOf(receipt),
		Token:       ref.String(),
		AmountIn:    units.FromSmallest(amount, s.Decimals(ref)),
	})
	hash := receipt.TxHash
	return &hash, nil
}

func (x *Executor) fail(step string, err error) error {
	x.logger.Warn("transaction step failed", zap.String("step", step), zap.Error(err))
	return err
}

func readError(err error) error {
	var classified *model.Error
	if errors.As(err, &classified) {
		return err
	}
	return model.NewError(model.KindNetworkUnavailable, chain.ErrorMessage(err), err)
}

func blockOf(r *types.Receipt) uint64 {
	if r == nil || r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
