package faucet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"neuraswap/internal/contracts"
)

// Cooldown is the time left before a claim. Unknown is distinct from zero.
type Cooldown struct {
	Known   bool   `json:"known"`
	Seconds uint64 `json:"seconds"`
}

// Unknown is returned when the faucet exposes neither eligibility nor timing reads.
var Unknown = Cooldown{}

// Ready is a known, elapsed cooldown.
var Ready = Cooldown{Known: true}

// Active reports a known cooldown that has not elapsed.
func (c Cooldown) Active() bool {
	return c.Known && c.Seconds > 0
}

// Message is the user-facing cooldown notice.
func (c Cooldown) Message() string {
	return fmt.Sprintf("Cooldown active. Wait %dm %ds then claim again.", c.Seconds/60, c.Seconds%60)
}

func (c Cooldown) String() string {
	switch {
	case !c.Known:
		return "unknown"
	case c.Seconds == 0:
		return "ready"
	default:
		return fmt.Sprintf("%dm %ds", c.Seconds/60, c.Seconds%60)
	}
}

// Calculator works out the remaining faucet cooldown for an account.
type Calculator struct {
	now    func() time.Time
	logger *zap.Logger
}

func NewCalculator(now func() time.Time, logger *zap.Logger) *Calculator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{now: now, logger: logger}
}

// Remaining prefers the faucet's eligibility check, then falls back to
// max(0, lastClaim + cooldown - now). Read failures yield Unknown.
func (c *Calculator) Remaining(ctx context.Context, f contracts.Faucet, account common.Address) Cooldown {
	ok, err := f.CanClaim(ctx, account)
	switch {
	case err == nil && ok:
		return Ready
	case err != nil && !errors.Is(err, contracts.ErrUnsupported):
		c.logger.Debug("faucet eligibility read failed", zap.String("account", account.Hex()), zap.Error(err))
	}

	period, err := f.Cooldown(ctx)
	if err != nil {
		c.logDebug(account, err)
		return Unknown
	}
	last, err := f.LastClaim(ctx, account)
	if err != nil {
		c.logDebug(account, err)
		return Unknown
	}

	next := new(big.Int).Add(last, period)
	left := next.Sub(next, big.NewInt(c.now().Unix()))
	if left.Sign() <= 0 {
		return Ready
	}
	if !left.IsUint64() {
		return Unknown
	}
	return Cooldown{Known: true, Seconds: left.Uint64()}
}

func (c *Calculator) logDebug(account common.Address, err error) {
	if errors.Is(err, contracts.ErrUnsupported) {
		return
	}
	c.logger.Debug("faucet cooldown read failed", zap.String("account", account.Hex()), zap.Error(err))
}
