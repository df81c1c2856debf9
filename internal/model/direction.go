package model

import "fmt"

// TradeDirection is the ordered (from, to) pair of a swap.
type TradeDirection struct {
	From TokenRef `json:"from"`
	To   TokenRef `json:"to"`
}

// DefaultDirection is HOUSE -> BICY.
func DefaultDirection() TradeDirection {
	return TradeDirection{From: HOUSE, To: BICY}
}

// NewDirection builds a direction selling from.
func NewDirection(from TokenRef) (TradeDirection, error) {
	if !from.Valid() {
		return TradeDirection{}, fmt.Errorf("unknown token: %s", from)
	}
	return TradeDirection{From: from, To: from.Other()}, nil
}

// Flip swaps from and to.
func (d TradeDirection) Flip() TradeDirection {
	return TradeDirection{From: d.To, To: d.From}
}

// AToB is the pool direction flag: true exactly when selling HOUSE for BICY.
func (d TradeDirection) AToB() bool {
	return d.From == HOUSE && d.To == BICY
}

func (d TradeDirection) Valid() bool {
	return d.From.Valid() && d.To.Valid() && d.From != d.To
}

func (d TradeDirection) String() string {
	return fmt.Sprintf("%s->%s", d.From, d.To)
}
