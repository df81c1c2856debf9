package faucet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"neuraswap/internal/contracts"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
	"neuraswap/internal/storage"
)

// Sessions yields the live session and accepts the post-write invalidate signal.
type Sessions interface {
	Require() (*session.Session, error)
	Invalidate(ctx context.Context)
}

// Service runs the faucet claim flow.
type Service struct {
	sessions Sessions
	calc     *Calculator
	recorder *storage.Recorder
	logger   *zap.Logger
}

func NewService(sessions Sessions, calc *Calculator, recorder *storage.Recorder, logger *zap.Logger) *Service {
	if calc == nil {
		calc = NewCalculator(nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sessions: sessions, calc: calc, recorder: recorder, logger: logger}
}

// Remaining returns the cooldown of the connected account.
func (s *Service) Remaining(ctx context.Context) (Cooldown, error) {
	sess, err := s.sessions.Require()
	if err != nil {
		return Unknown, err
	}
	return s.calc.Remaining(ctx, sess.Contracts.Faucet, sess.Account), nil
}

// ClaimResult describes a confirmed claim.
type ClaimResult struct {
	TxHash      common.Hash `json:"tx_hash"`
	BlockNumber uint64      `json:"block_number"`
}

// Claim submits claimBoth unless a known cooldown is still running. An unknown
// cooldown does not block the attempt; the contract decides.
func (s *Service) Claim(ctx context.Context) (ClaimResult, error) {
	sess, err := s.sessions.Require()
	if err != nil {
		return ClaimResult{}, err
	}

	cd := s.calc.Remaining(ctx, sess.Contracts.Faucet, sess.Account)
	if cd.Active() {
		return ClaimResult{}, model.NewError(model.KindCooldownActive, cd.Message(), nil)
	}

	s.logger.Info("claiming faucet",
		zap.String("account", sess.Account.Hex()),
		zap.String("cooldown", cd.String()),
	)
	pending, err := sess.Contracts.Faucet.ClaimBoth(ctx)
	if err != nil {
		err = contracts.TxError(err)
		s.logger.Warn("claim failed", zap.Error(err))
		return ClaimResult{}, err
	}
	receipt, err := contracts.Confirm(ctx, pending)
	if err != nil {
		s.logger.Warn("claim failed", zap.Error(err))
		return ClaimResult{}, err
	}

	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	s.recorder.Record(ctx, model.ActivityRecord{
		Account:     sess.Account.Hex(),
		Kind:        model.ActivityClaim,
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: block,
	})
	s.sessions.Invalidate(ctx)
	return ClaimResult{TxHash: receipt.TxHash, BlockNumber: block}, nil
}
