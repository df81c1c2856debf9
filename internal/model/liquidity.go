package model

import (
	"fmt"
	"math/big"

	"neuraswap/internal/units"
)

// PoolReserves are the pool's live token balances in smallest units, house/bicy ordered.
type PoolReserves struct {
	House *big.Int
	Bicy  *big.Int
}

// Of returns the reserve for a token.
func (r PoolReserves) Of(ref TokenRef) *big.Int {
	if ref == HOUSE {
		return r.House
	}
	return r.Bicy
}

// Empty reports whether either side is zero, in which case no ratio exists.
func (r PoolReserves) Empty() bool {
	return r.House == nil || r.Bicy == nil || r.House.Sign() == 0 || r.Bicy.Sign() == 0
}

// LiquidityDraft is the two-field liquidity form.
type LiquidityDraft struct {
	House        string   `json:"house"`
	Bicy         string   `json:"bicy"`
	LastEdited   TokenRef `json:"last_edited"`
	SyncInFlight bool     `json:"sync_in_flight"`
}

// Value returns the text of a field.
func (d LiquidityDraft) Value(ref TokenRef) string {
	if ref == HOUSE {
		return d.House
	}
	return d.Bicy
}

// With returns a copy with one field replaced.
func (d LiquidityDraft) With(ref TokenRef, value string) LiquidityDraft {
	if ref == HOUSE {
		d.House = value
	} else {
		d.Bicy = value
	}
	return d
}

// EmptyDraft is the reset state of the form.
func EmptyDraft() LiquidityDraft {
	return LiquidityDraft{LastEdited: HOUSE}
}

// LiquidityPreview is the pair the user is about to add.
type LiquidityPreview struct {
	House string `json:"house"`
	Bicy  string `json:"bicy"`
}

func (p *LiquidityPreview) String() string {
	if p == nil || p.House == "" || p.Bicy == "" {
		return "You will add: " + NoValue
	}
	return fmt.Sprintf("You will add: %s HOUSE + %s BICY", units.DisplayString(p.House), units.DisplayString(p.Bicy))
}
