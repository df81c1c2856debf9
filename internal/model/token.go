package model

import (
	"fmt"
	"strings"
)

// TokenRef identifies one of the two pool tokens.
type TokenRef string

const (
	HOUSE TokenRef = "HOUSE"
	BICY  TokenRef = "BICY"
)

// Tokens lists the pool tokens in pool order (tokenA, tokenB).
var Tokens = []TokenRef{HOUSE, BICY}

// Other returns the opposite pool token.
func (t TokenRef) Other() TokenRef {
	if t == HOUSE {
		return BICY
	}
	return HOUSE
}

func (t TokenRef) Valid() bool {
	return t == HOUSE || t == BICY
}

func (t TokenRef) String() string {
	return string(t)
}

// ParseTokenRef parses a token symbol case-insensitively.
func ParseTokenRef(input string) (TokenRef, error) {
	ref := TokenRef(strings.ToUpper(strings.TrimSpace(input)))
	if !ref.Valid() {
		return "", fmt.Errorf("unknown token: %s", input)
	}
	return ref, nil
}

// Balances holds the active account's token balances as decimal strings.
type Balances struct {
	House string `json:"house"`
	Bicy  string `json:"bicy"`
}

// Of returns the balance for a token.
func (b Balances) Of(ref TokenRef) string {
	if ref == HOUSE {
		return b.House
	}
	return b.Bicy
}

// ZeroBalances is the disconnected default.
func ZeroBalances() Balances {
	return Balances{House: "0", Bicy: "0"}
}
