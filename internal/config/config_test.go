package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(267), cfg.Network.ChainID.Int64())
	assert.Equal(t, "0x10b", cfg.Network.ChainIDHex())
	assert.Equal(t, "Neura Testnet", cfg.Network.Name)
	assert.Equal(t, "https://testnet.rpc.neuraprotocol.io/", cfg.RPCURL())
	assert.Equal(t, "ANKR", cfg.Network.NativeCurrency.Symbol)
	assert.Equal(t, 18, cfg.Network.NativeCurrency.Decimals)
	assert.Equal(t, common.HexToAddress("0x3cEc783B292F246f02B4F4A2f37230686FE2CCD6"), cfg.Contracts.Pool)
	assert.Equal(t, "getAmountOut", cfg.Functions.PoolGetAmountOut)
	assert.Equal(t, "claimBoth", cfg.Functions.FaucetClaimBoth)
	assert.Equal(t, 0.5, cfg.DefaultSlippagePct)
	assert.Equal(t, 3, cfg.RPC.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.RPC.BreakerOpen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ABIs.Pool)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEURASWAP_CHAIN_ID", "31337")
	t.Setenv("NEURASWAP_UI_SLIPPAGE_DEFAULT_PCT", "1.5")
	t.Setenv("NEURASWAP_FN_AMM_SWAP", "swapExact")
	t.Setenv("NEURASWAP_WALLET_KEY", "0xabc")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(31337), cfg.Network.ChainID.Int64())
	assert.Equal(t, 1.5, cfg.DefaultSlippagePct)
	assert.Equal(t, "swapExact", cfg.Functions.PoolSwap)
	assert.Equal(t, "0xabc", cfg.WalletKey)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neuraswap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chain:
  id: 267
  rpc-urls:
    - https://rpc-a.example.org
    - https://rpc-b.example.org
abi:
  amm: ./abi/fxpool.json
ui:
  slippage-default-pct: 1
log-level: debug
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://rpc-a.example.org", "https://rpc-b.example.org"}, cfg.Network.RPCURLs)
	assert.Equal(t, "./abi/fxpool.json", cfg.ABIs.Pool)
	assert.Equal(t, 1.0, cfg.DefaultSlippagePct)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Neura Testnet", cfg.Network.Name)
}

func TestLoadFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	flags.String("log-level", "info", "")
	flags.String("listen", "", "")
	require.NoError(t, flags.Parse([]string{"--rpc", "https://x.example.org, https://y.example.org", "--log-level", "warn", "--listen", ":9000"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.example.org", "https://y.example.org"}, cfg.Network.RPCURLs)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.Listen)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("NEURASWAP_CONTRACTS_AMM", "not-an-address")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "invalid config")
}

func TestLoadRejectsBadSlippage(t *testing.T) {
	t.Setenv("NEURASWAP_UI_SLIPPAGE_DEFAULT_PCT", "150")
	_, err := Load("", nil)
	assert.Error(t, err)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "read config")
}
