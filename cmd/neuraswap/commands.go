package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"neuraswap/internal/config"
	"neuraswap/internal/liquidity"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
	"neuraswap/internal/units"
)

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// withSession builds the client, connects the wallet and runs fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.connect(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func parseDirection(cmd *cobra.Command) (model.TradeDirection, error) {
	from, _ := cmd.Flags().GetString("from")
	ref, err := model.ParseTokenRef(from)
	if err != nil {
		return model.TradeDirection{}, err
	}
	return model.NewDirection(ref)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	dir, err := parseDirection(cmd)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetString("amount")

	return withSession(cmd, func(ctx context.Context, a *app) error {
		q, err := a.quotes.Compute(ctx, dir, amount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s -> %s %s\n", amount, dir.From, units.DisplayString(q.AmountOutText()), dir.To)
		fmt.Fprintln(out, q.RateLine())
		return nil
	})
}

func runSwap(cmd *cobra.Command, _ []string) error {
	dir, err := parseDirection(cmd)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetString("amount")
	rawSlippage, _ := cmd.Flags().GetString("max-slippage")
	slippage, err := model.ParseSlippage(rawSlippage)
	if err != nil {
		return err
	}

	return withSession(cmd, func(ctx context.Context, a *app) error {
		res, err := a.trades.Swap(ctx, dir, amount, slippage)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Approval != nil {
			fmt.Fprintf(out, "approved %s: %s\n", dir.From, res.Approval.Hex())
		}
		fmt.Fprintf(out, "swapped %s %s for at least %s %s (%d bps)\n",
			amount, dir.From, units.FromSmallest(res.MinOut, res.Quote.DecimalsOut), dir.To, res.BasisPoints)
		fmt.Fprintf(out, "tx %s in block %d\n", res.TxHash.Hex(), res.BlockNumber)
		printBalances(out, a.session.Balances())
		return nil
	})
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	house, _ := cmd.Flags().GetString("house")
	bicy, _ := cmd.Flags().GetString("bicy")
	if house == "" && bicy == "" {
		return fmt.Errorf("pass --house or --bicy")
	}

	return withSession(cmd, func(ctx context.Context, a *app) error {
		var view liquidity.View
		var err error
		if house != "" {
			if view, err = a.liquidity.Input(ctx, model.HOUSE, house); err != nil {
				return err
			}
		}
		if bicy != "" {
			if house != "" && view.State != liquidity.RatioEmptyPool {
				return fmt.Errorf("pool already has liquidity; pass only one of --house or --bicy")
			}
			if view, err = a.liquidity.Input(ctx, model.BICY, bicy); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ratio: %s\n", view.Ratio)
		fmt.Fprintln(out, view.PreviewText())

		res, err := a.trades.AddLiquidity(ctx)
		if err != nil {
			return err
		}
		for _, h := range res.Approvals {
			fmt.Fprintf(out, "approved: %s\n", h.Hex())
		}
		fmt.Fprintf(out, "liquidity added: tx %s in block %d\n", res.TxHash.Hex(), res.BlockNumber)
		printBalances(out, a.session.Balances())
		return nil
	})
}

func runClaim(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, a *app) error {
		res, err := a.faucet.Claim(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "claimed: tx %s in block %d\n", res.TxHash.Hex(), res.BlockNumber)
		printBalances(out, a.session.Balances())
		return nil
	})
}

func runCooldown(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, a *app) error {
		cd, err := a.faucet.Remaining(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cooldown: %s\n", cd)
		return nil
	})
}

func runBalances(cmd *cobra.Command, _ []string) error {
	return withSession(cmd, func(ctx context.Context, a *app) error {
		balances, err := a.session.RefreshBalances(ctx)
		if err != nil {
			return err
		}
		printBalances(cmd.OutOrStdout(), balances)
		return nil
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return withSession(cmd, func(ctx context.Context, a *app) error {
		sess, err := a.session.Require()
		if err != nil {
			return err
		}
		records, err := a.history.Recent(ctx, sess.Account.Hex(), limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range records {
			fmt.Fprintf(out, "%s %-9s %s %s\n", r.RecordedAt, r.Kind, r.TxHash, summarize(r))
		}
		return nil
	})
}

func summarize(r model.ActivityRecord) string {
	switch r.Kind {
	case model.ActivitySwap:
		return fmt.Sprintf("%s in=%s out=%s min=%s", r.Token, r.AmountIn, r.AmountOut, r.MinOut)
	case model.ActivityAddLiquidity:
		return fmt.Sprintf("house=%s bicy=%s", r.AmountHouse, r.AmountBicy)
	case model.ActivityApprove:
		return fmt.Sprintf("%s %s", r.Token, r.AmountIn)
	default:
		return ""
	}
}

func printBalances(out io.Writer, b model.Balances) {
	fmt.Fprintf(out, "HOUSE: %s\nBICY: %s\n", units.DisplayString(b.House), units.DisplayString(b.Bicy))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		err := serveOnce(ctx, cfg, logger)
		if errors.Is(err, session.ErrReloadRequired) {
			logger.Info("wallet left the target network, reloading client")
			continue
		}
		return err
	}
}

func serveOnce(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.connect(ctx); err != nil {
		logger.Warn("initial connect failed", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server().Run(gctx)
	})
	g.Go(func() error {
		return a.watch(gctx)
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
