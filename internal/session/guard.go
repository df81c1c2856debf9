package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"neuraswap/internal/chain"
	"neuraswap/internal/model"
	"neuraswap/internal/wallet"
)

// ChainGuard keeps the wallet on the target network.
type ChainGuard struct {
	provider wallet.Provider
	target   model.NetworkSpec
	logger   *zap.Logger
}

func NewChainGuard(provider wallet.Provider, target model.NetworkSpec, logger *zap.Logger) *ChainGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainGuard{provider: provider, target: target, logger: logger}
}

// Target returns the network the guard enforces.
func (g *ChainGuard) Target() model.NetworkSpec {
	return g.target
}

// Ensure switches the wallet to the target chain, registering it first when the
// wallet does not know it. It is a no-op when the wallet is already there.
// Wallet prompts may block until ctx is done.
func (g *ChainGuard) Ensure(ctx context.Context) error {
	if g.provider == nil {
		return model.NewError(model.KindMissingWallet, "no wallet provider", nil)
	}
	current, err := g.provider.ChainID(ctx)
	if err != nil {
		return model.NewError(model.KindNetworkUnavailable, chain.ErrorMessage(err), fmt.Errorf("read wallet chain id: %w", err))
	}
	if current.Cmp(g.target.ChainID) == 0 {
		return nil
	}

	g.logger.Info("switching wallet network",
		zap.String("from_chain_id", current.String()),
		zap.String("chain_id", g.target.ChainID.String()),
	)
	err = g.provider.SwitchChain(ctx, g.target.ChainID)
	if err == nil {
		return nil
	}
	if !wallet.IsUnrecognizedChain(err) {
		return classifyChainError(err)
	}

	g.logger.Info("wallet does not know network, adding it",
		zap.String("chain_id", g.target.ChainID.String()),
		zap.String("network", g.target.Name),
	)
	if err := g.provider.AddChain(ctx, g.target); err != nil {
		return classifyChainError(err)
	}
	return nil
}

func classifyChainError(err error) error {
	if wallet.IsUserRejected(err) {
		return model.NewError(model.KindUserRejected, chain.ErrorMessage(err), err)
	}
	if ctxErr := contextError(err); ctxErr != nil {
		return ctxErr
	}
	return model.NewError(model.KindChainMismatch, chain.ErrorMessage(err), err)
}
