package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neuraswap/internal/config"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger("loud")
	require.Error(t, err)

	logger, err := newLogger("debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestRootCommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"quote", "swap", "add-liquidity", "claim", "cooldown", "balances", "history", "serve"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestBuildAppWithoutWalletKey(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.JournalPath = filepath.Join(t.TempDir(), "activity.jsonl")

	a, err := buildApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.wallet)
	err = a.connect(context.Background())
	assert.True(t, model.IsKind(err, model.KindMissingWallet))

	status, _ := a.session.Status()
	assert.Equal(t, session.Disconnected, status)
	assert.NoError(t, a.watch(canceled()))
}

func TestBalancesCommandNeedsWallet(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"balances", "--journal", filepath.Join(t.TempDir(), "activity.jsonl"), "--log-level", "error"})

	err := root.Execute()
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindMissingWallet))
}

func TestAddLiquidityNeedsAmount(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"add-liquidity"})

	err := root.Execute()
	require.EqualError(t, err, "pass --house or --bicy")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "HOUSE in=10 out=9.95 min=9.90025", summarize(model.ActivityRecord{
		Kind: model.ActivitySwap, Token: "HOUSE", AmountIn: "10", AmountOut: "9.95", MinOut: "9.90025",
	}))
	assert.Equal(t, "house=5 bicy=10", summarize(model.ActivityRecord{
		Kind: model.ActivityAddLiquidity, AmountHouse: "5", AmountBicy: "10",
	}))
	assert.Empty(t, summarize(model.ActivityRecord{Kind: model.ActivityClaim}))
}

func canceled() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
