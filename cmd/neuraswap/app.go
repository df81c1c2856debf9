package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"neuraswap/internal/api"
	"neuraswap/internal/config"
	"neuraswap/internal/contracts"
	"neuraswap/internal/faucet"
	"neuraswap/internal/liquidity"
	"neuraswap/internal/pricing"
	"neuraswap/internal/session"
	"neuraswap/internal/storage"
	"neuraswap/internal/storage/postgres"
	"neuraswap/internal/trade"
	"neuraswap/internal/wallet"
)

// app is one fully wired client. It is rebuilt from scratch after a wallet network change.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	wallet    *wallet.KeyedWallet
	session   *session.Controller
	quotes    *pricing.Engine
	liquidity *liquidity.Synchronizer
	trades    *trade.Executor
	faucet    *faucet.Service
	history   storage.Reader
	store     *postgres.Store
}

func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	abis, err := contracts.LoadABIs(cfg.ABIs)
	if err != nil {
		return nil, fmt.Errorf("load abis: %w", err)
	}
	binder, err := contracts.NewBinder(cfg.Contracts, abis, cfg.Functions)
	if err != nil {
		return nil, fmt.Errorf("bind contracts: %w", err)
	}

	// A nil provider surfaces as a missing wallet on connect.
	var provider wallet.Provider
	if cfg.WalletKey != "" {
		rpcOpts := cfg.RPC
		rpcOpts.Logger = logger
		w, err := wallet.NewKeyed(ctx, cfg.WalletKey, cfg.RPCURL(), wallet.ChainDialer(rpcOpts), logger)
		if err != nil {
			return nil, fmt.Errorf("open wallet: %w", err)
		}
		a.wallet = w
		provider = w
	}

	jsonl := storage.NewJsonlJournal(cfg.JournalPath)
	journal := storage.Multi{jsonl}
	a.history = jsonl
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.store = store
		a.history = store
		journal = append(journal, store)
	}
	recorder := storage.NewRecorder(journal, cfg.Network.ChainID.Uint64(), logger)

	a.session = session.NewController(provider, cfg.Network, binder, logger)
	a.quotes = pricing.NewEngine(a.session, logger)
	a.liquidity = liquidity.NewSynchronizer(a.session, logger)
	a.trades = trade.NewExecutor(a.session, a.quotes, a.liquidity, trade.Options{
		DefaultSlippagePct: cfg.DefaultSlippagePct,
		Recorder:           recorder,
		Logger:             logger,
	})
	a.faucet = faucet.NewService(a.session, faucet.NewCalculator(time.Now, logger), recorder, logger)

	a.session.OnReset(func() {
		a.quotes.Reset()
		a.liquidity.Clear()
	})
	a.session.OnInvalidate(func(ctx context.Context) {
		a.quotes.Refresh(ctx)
		a.liquidity.Sync(ctx)
	})

	return a, nil
}

// connect opens the session and loads balances.
func (a *app) connect(ctx context.Context) error {
	if err := a.session.Connect(ctx); err != nil {
		return err
	}
	if _, err := a.session.RefreshBalances(ctx); err != nil {
		a.logger.Warn("balance refresh failed", zap.Error(err))
	}
	return nil
}

// watch follows wallet notifications until ctx is done or a reload is required.
func (a *app) watch(ctx context.Context) error {
	if a.wallet == nil {
		<-ctx.Done()
		return nil
	}
	return a.session.Watch(ctx, a.wallet.Events())
}

func (a *app) server() *api.Server {
	return api.NewServer(a.cfg.Listen, api.Deps{
		Session:   a.session,
		Quotes:    a.quotes,
		Liquidity: a.liquidity,
		Trades:    a.trades,
		Faucet:    a.faucet,
		History:   a.history,
	}, a.logger)
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Disconnect()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.wallet != nil {
		a.wallet.Close()
	}
}
