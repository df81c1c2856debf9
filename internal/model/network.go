package model

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NativeCurrency describes the gas token of a network.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// NetworkSpec is the target network the wallet must be attached to.
type NetworkSpec struct {
	ChainID        *big.Int       `json:"-"`
	Name           string         `json:"chainName"`
	RPCURLs        []string       `json:"rpcUrls"`
	NativeCurrency NativeCurrency `json:"nativeCurrency"`
	ExplorerURLs   []string       `json:"blockExplorerUrls"`
}

// ChainIDHex returns the chain id in 0x-prefixed lower-case form.
func (n NetworkSpec) ChainIDHex() string {
	if n.ChainID == nil {
		return ""
	}
	return hexutil.EncodeBig(n.ChainID)
}

// ParseChainID accepts a chain id in hex ("0x10b") or decimal ("267") form.
func ParseChainID(input string) (*big.Int, error) {
	raw := strings.ToLower(strings.TrimSpace(input))
	if raw == "" {
		return nil, fmt.Errorf("empty chain id")
	}
	id := new(big.Int)
	var ok bool
	if strings.HasPrefix(raw, "0x") {
		_, ok = id.SetString(raw[2:], 16)
	} else {
		_, ok = id.SetString(raw, 10)
	}
	if !ok || id.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id: %s", input)
	}
	return id, nil
}
