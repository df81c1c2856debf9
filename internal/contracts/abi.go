package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"internalType": "uint8", "name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"internalType": "string", "name": "", "type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "owner", "type": "address"}, {"internalType": "address", "name": "spender", "type": "address"}], "name": "allowance", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "spender", "type": "address"}, {"internalType": "uint256", "name": "amount", "type": "uint256"}], "name": "approve", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const poolABIJSON = `[
  {"inputs": [], "name": "tokenA", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "tokenB", "outputs": [{"internalType": "address", "name": "", "type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amountIn", "type": "uint256"}, {"internalType": "bool", "name": "aToB", "type": "bool"}], "name": "getAmountOut", "outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amountIn", "type": "uint256"}, {"internalType": "uint256", "name": "minOut", "type": "uint256"}, {"internalType": "bool", "name": "aToB", "type": "bool"}], "name": "swap", "outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [{"internalType": "uint256", "name": "amountA", "type": "uint256"}, {"internalType": "uint256", "name": "amountB", "type": "uint256"}], "name": "addLiquidity", "outputs": [{"internalType": "uint256", "name": "shares", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"}
]`

const faucetABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "user", "type": "address"}], "name": "canClaim", "outputs": [{"internalType": "bool", "name": "", "type": "bool"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "cooldown", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"internalType": "address", "name": "", "type": "address"}], "name": "lastClaim", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "claimBoth", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

// ABIs holds the parsed interfaces of the three contract kinds.
type ABIs struct {
	ERC20  abi.ABI
	Pool   abi.ABI
	Faucet abi.ABI
}

// ABIPaths optionally overrides the embedded ABIs with JSON files.
type ABIPaths struct {
	ERC20  string
	Pool   string
	Faucet string
}

var (
	defaultABIs     ABIs
	defaultABIsOnce sync.Once
	defaultABIsErr  error
)

// DefaultABIs returns the embedded ABIs, parsed once.
func DefaultABIs() (ABIs, error) {
	defaultABIsOnce.Do(func() {
		defaultABIs, defaultABIsErr = parseABIs(erc20ABIJSON, poolABIJSON, faucetABIJSON)
	})
	return defaultABIs, defaultABIsErr
}

func parseABIs(erc20JSON, poolJSON, faucetJSON string) (ABIs, error) {
	var out ABIs
	var err error
	if out.ERC20, err = abi.JSON(strings.NewReader(erc20JSON)); err != nil {
		return ABIs{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	if out.Pool, err = abi.JSON(strings.NewReader(poolJSON)); err != nil {
		return ABIs{}, fmt.Errorf("parse pool abi: %w", err)
	}
	if out.Faucet, err = abi.JSON(strings.NewReader(faucetJSON)); err != nil {
		return ABIs{}, fmt.Errorf("parse faucet abi: %w", err)
	}
	return out, nil
}

// LoadABIs starts from the embedded ABIs and replaces any kind whose path is set.
func LoadABIs(paths ABIPaths) (ABIs, error) {
	out, err := DefaultABIs()
	if err != nil {
		return ABIs{}, err
	}
	if out.ERC20, err = loadOverride(paths.ERC20, out.ERC20); err != nil {
		return ABIs{}, err
	}
	if out.Pool, err = loadOverride(paths.Pool, out.Pool); err != nil {
		return ABIs{}, err
	}
	if out.Faucet, err = loadOverride(paths.Faucet, out.Faucet); err != nil {
		return ABIs{}, err
	}
	return out, nil
}

func loadOverride(path string, fallback abi.ABI) (abi.ABI, error) {
	if path == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read abi %s: %w", path, err)
	}
	parsed, err := abi.JSON(strings.NewReader(unwrapArtifact(data)))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse abi %s: %w", path, err)
	}
	return parsed, nil
}

// unwrapArtifact accepts either a bare ABI array or a compiler artifact with an "abi" field.
func unwrapArtifact(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return string(trimmed)
	}
	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(trimmed, &artifact); err != nil || len(artifact.ABI) == 0 {
		return string(trimmed)
	}
	return string(artifact.ABI)
}
