package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"neuraswap/internal/chain"
	"neuraswap/internal/contracts"
	"neuraswap/internal/model"
)

// Config is the immutable client configuration.
type Config struct {
	Network            model.NetworkSpec
	Contracts          contracts.Addresses
	ABIs               contracts.ABIPaths
	Functions          contracts.Functions
	DefaultSlippagePct float64
	WalletKey          string
	RPC                chain.Options
	JournalPath        string
	PGDSN              string
	Listen             string
	LogLevel           string
}

// RPCURL is the endpoint the wallet starts on.
func (c Config) RPCURL() string {
	if len(c.Network.RPCURLs) == 0 {
		return ""
	}
	return c.Network.RPCURLs[0]
}

type rawConfig struct {
	ChainID        string   `validate:"required"`
	ChainName      string   `validate:"required"`
	RPCURLs        []string `validate:"min=1,dive,url"`
	ExplorerURLs   []string `validate:"dive,url"`
	NativeName     string   `validate:"required"`
	NativeSymbol   string   `validate:"required"`
	NativeDecimals int      `validate:"gte=0,lte=36"`

	House  string `validate:"required,eth_addr"`
	Bicy   string `validate:"required,eth_addr"`
	Faucet string `validate:"required,eth_addr"`
	AMM    string `validate:"required,eth_addr"`

	FnGetAmountOut string  `validate:"required"`
	FnSwap         string  `validate:"required"`
	FnAddLiquidity string  `validate:"required"`
	FnFaucetClaim  string  `validate:"required"`
	SlippagePct    float64 `validate:"gte=0,lte=100"`
	RateLimit      float64 `validate:"gte=0"`
	Burst          int     `validate:"gte=0"`
	MaxRetries     int     `validate:"gte=0,lte=20"`
	BreakerTrip    uint32  `validate:"gte=0"`
	LogLevel       string  `validate:"oneof=debug info warn error"`
}

// flagKeys maps CLI flag names onto nested config keys.
var flagKeys = map[string]string{
	"rpc":        "chain.rpc-urls",
	"chain-id":   "chain.id",
	"wallet-key": "wallet.key",
	"slippage":   "ui.slippage-default-pct",
	"journal":    "journal.path",
	"pg-dsn":     "journal.pg-dsn",
	"listen":     "api.listen",
	"log-level":  "log-level",
}

// Load merges .env, config file, environment variables and flags into Config.
// Environment keys use the NEURASWAP_ prefix with "." and "-" replaced by "_".
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("NEURASWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	raw := rawConfig{
		ChainID:        v.GetString("chain.id"),
		ChainName:      v.GetString("chain.name"),
		RPCURLs:        getStringSlice(v, "chain.rpc-urls"),
		ExplorerURLs:   getStringSlice(v, "chain.explorer-urls"),
		NativeName:     v.GetString("chain.native-currency.name"),
		NativeSymbol:   v.GetString("chain.native-currency.symbol"),
		NativeDecimals: v.GetInt("chain.native-currency.decimals"),
		House:          v.GetString("contracts.house"),
		Bicy:           v.GetString("contracts.bicy"),
		Faucet:         v.GetString("contracts.faucet"),
		AMM:            v.GetString("contracts.amm"),
		FnGetAmountOut: v.GetString("fn.amm-get-amount-out"),
		FnSwap:         v.GetString("fn.amm-swap"),
		FnAddLiquidity: v.GetString("fn.amm-add-liquidity"),
		FnFaucetClaim:  v.GetString("fn.faucet-claim-both"),
		SlippagePct:    v.GetFloat64("ui.slippage-default-pct"),
		RateLimit:      v.GetFloat64("rpc.rate-limit"),
		Burst:          v.GetInt("rpc.burst"),
		MaxRetries:     v.GetInt("rpc.max-retries"),
		BreakerTrip:    v.GetUint32("rpc.breaker-trip"),
		LogLevel:       strings.ToLower(v.GetString("log-level")),
	}
	if err := validator.New().Struct(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	chainID, err := model.ParseChainID(raw.ChainID)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	cfg := Config{
		Network: model.NetworkSpec{
			ChainID: chainID,
			Name:    raw.ChainName,
			RPCURLs: raw.RPCURLs,
			NativeCurrency: model.NativeCurrency{
				Name:     raw.NativeName,
				Symbol:   raw.NativeSymbol,
				Decimals: raw.NativeDecimals,
			},
			ExplorerURLs: raw.ExplorerURLs,
		},
		Contracts: contracts.Addresses{
			House:  common.HexToAddress(raw.House),
			Bicy:   common.HexToAddress(raw.Bicy),
			Faucet: common.HexToAddress(raw.Faucet),
			Pool:   common.HexToAddress(raw.AMM),
		},
		ABIs: contracts.ABIPaths{
			ERC20:  v.GetString("abi.erc20"),
			Pool:   v.GetString("abi.amm"),
			Faucet: v.GetString("abi.faucet"),
		},
		Functions: contracts.Functions{
			PoolGetAmountOut: raw.FnGetAmountOut,
			PoolSwap:         raw.FnSwap,
			PoolAddLiquidity: raw.FnAddLiquidity,
			FaucetClaimBoth:  raw.FnFaucetClaim,
		},
		DefaultSlippagePct: raw.SlippagePct,
		WalletKey:          v.GetString("wallet.key"),
		RPC: chain.Options{
			RateLimit:    raw.RateLimit,
			Burst:        raw.Burst,
			MaxRetries:   raw.MaxRetries,
			RetryBackoff: v.GetDuration("rpc.retry-backoff"),
			BreakerTrip:  raw.BreakerTrip,
			BreakerOpen:  v.GetDuration("rpc.breaker-open"),
		},
		JournalPath: v.GetString("journal.path"),
		PGDSN:       v.GetString("journal.pg-dsn"),
		Listen:      v.GetString("api.listen"),
		LogLevel:    raw.LogLevel,
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chain.id", "0x10b")
	v.SetDefault("chain.name", "Neura Testnet")
	v.SetDefault("chain.rpc-urls", []string{"https://testnet.rpc.neuraprotocol.io/"})
	v.SetDefault("chain.explorer-urls", []string{"https://testnet-blockscout.infra.neuraprotocol.io/"})
	v.SetDefault("chain.native-currency.name", "ANKR")
	v.SetDefault("chain.native-currency.symbol", "ANKR")
	v.SetDefault("chain.native-currency.decimals", 18)

	v.SetDefault("contracts.house", "0x737644a73931E86bE1d1e20A0a6eE19ec0d5fEc7")
	v.SetDefault("contracts.bicy", "0xF014a7BEefA61DbDBa43C207Ca1c0D580e1897e2")
	v.SetDefault("contracts.faucet", "0xff63bB2Fe2a24C54bf11700a9125ee63633C3e0b")
	v.SetDefault("contracts.amm", "0x3cEc783B292F246f02B4F4A2f37230686FE2CCD6")

	fns := contracts.DefaultFunctions()
	v.SetDefault("fn.amm-get-amount-out", fns.PoolGetAmountOut)
	v.SetDefault("fn.amm-swap", fns.PoolSwap)
	v.SetDefault("fn.amm-add-liquidity", fns.PoolAddLiquidity)
	v.SetDefault("fn.faucet-claim-both", fns.FaucetClaimBoth)

	v.SetDefault("ui.slippage-default-pct", 0.5)

	rpc := chain.DefaultOptions()
	v.SetDefault("rpc.rate-limit", rpc.RateLimit)
	v.SetDefault("rpc.burst", rpc.Burst)
	v.SetDefault("rpc.max-retries", rpc.MaxRetries)
	v.SetDefault("rpc.retry-backoff", rpc.RetryBackoff)
	v.SetDefault("rpc.breaker-trip", rpc.BreakerTrip)
	v.SetDefault("rpc.breaker-open", rpc.BreakerOpen)

	v.SetDefault("journal.path", "./data/activity.jsonl")
	v.SetDefault("api.listen", "127.0.0.1:8787")
	v.SetDefault("log-level", "info")
}

// loadDotEnv exports variables from path without overriding the real environment.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

