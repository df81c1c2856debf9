package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Slippage is a percentage tolerance, either fixed or "auto" resolving to a configured default.
type Slippage struct {
	Auto bool
	Pct  float64
}

// AutoSlippage resolves to the configured default.
var AutoSlippage = Slippage{Auto: true}

// ParseSlippage accepts "auto" or a percentage such as "0.5".
func ParseSlippage(input string) (Slippage, error) {
	raw := strings.ToLower(strings.TrimSpace(input))
	if raw == "" || raw == "auto" {
		return AutoSlippage, nil
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return Slippage{}, fmt.Errorf("invalid slippage: %s", input)
	}
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return Slippage{}, fmt.Errorf("slippage out of range: %s", input)
	}
	return Slippage{Pct: pct}, nil
}

// Percent resolves the effective percentage.
func (s Slippage) Percent(defaultPct float64) float64 {
	if s.Auto {
		return defaultPct
	}
	return s.Pct
}

// BasisPoints is round(pct * 100).
func (s Slippage) BasisPoints(defaultPct float64) int64 {
	return int64(math.Round(s.Percent(defaultPct) * 100))
}

func (s Slippage) String() string {
	if s.Auto {
		return "auto"
	}
	return strconv.FormatFloat(s.Pct, 'f', -1, 64)
}
