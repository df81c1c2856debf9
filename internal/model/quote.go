package model

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"neuraswap/internal/units"
)

// Quote is a derived expected output for an input amount. The zero value is the empty quote.
type Quote struct {
	Direction   TradeDirection `json:"direction"`
	AmountIn    *big.Int       `json:"amount_in"`
	AmountOut   *big.Int       `json:"amount_out"`
	DecimalsIn  uint8          `json:"decimals_in"`
	DecimalsOut uint8          `json:"decimals_out"`
}

// IsEmpty reports whether no quote is available.
func (q Quote) IsEmpty() bool {
	return q.AmountIn == nil || q.AmountOut == nil
}

// AmountOutText is the output amount as a decimal string, empty for the empty quote.
func (q Quote) AmountOutText() string {
	if q.IsEmpty() {
		return ""
	}
	return units.FromSmallest(q.AmountOut, q.DecimalsOut)
}

// Rate is amountOut / amountIn in token units; zero when undefined.
func (q Quote) Rate() decimal.Decimal {
	if q.IsEmpty() || q.AmountIn.Sign() == 0 {
		return decimal.Zero
	}
	in := units.ToDecimal(q.AmountIn, q.DecimalsIn)
	out := units.ToDecimal(q.AmountOut, q.DecimalsOut)
	return out.DivRound(in, 18)
}

// RateLine renders "1 FROM ≈ r TO", or NoValue when no positive rate exists.
func (q Quote) RateLine() string {
	rate := q.Rate()
	if !rate.IsPositive() {
		return NoValue
	}
	return fmt.Sprintf("1 %s ≈ %s %s", q.Direction.From, units.Display(rate), q.Direction.To)
}

// NoValue is the placeholder shown for cleared display fields.
const NoValue = "—"
