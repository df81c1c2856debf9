package pricing

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"neuraswap/internal/chain"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
	"neuraswap/internal/units"
)

// Sessions yields the live session.
type Sessions interface {
	Require() (*session.Session, error)
}

// View is the swap form as the UI renders it.
type View struct {
	Direction model.TradeDirection `json:"direction"`
	AmountIn  string               `json:"amount_in"`
	AmountOut string               `json:"amount_out"`
	RateLine  string               `json:"rate_line"`
	Quote     model.Quote          `json:"-"`
}

// Engine quotes swaps and holds the swap form's direction and input amount.
type Engine struct {
	sessions Sessions
	logger   *zap.Logger

	mu        sync.Mutex
	direction model.TradeDirection
	amount    string
	last      model.Quote
	seq       uint64
}

func NewEngine(sessions Sessions, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{sessions: sessions, logger: logger, direction: model.DefaultDirection()}
}

// Compute prices amount in the given direction. Unlike Quote it reports why no quote exists.
func (e *Engine) Compute(ctx context.Context, dir model.TradeDirection, amount string) (model.Quote, error) {
	if !dir.Valid() {
		return model.Quote{}, fmt.Errorf("invalid direction %s", dir)
	}
	if !units.IsPositive(amount) {
		return model.Quote{}, model.NewError(model.KindInsufficientInput, "enter amount > 0", nil)
	}
	s, err := e.sessions.Require()
	if err != nil {
		return model.Quote{}, err
	}

	decIn := s.Decimals(dir.From)
	decOut := s.Decimals(dir.To)
	amountIn, err := units.ToSmallest(amount, decIn)
	if err != nil {
		return model.Quote{}, model.NewError(model.KindInsufficientInput, err.Error(), err)
	}
	if amountIn.Sign() <= 0 {
		return model.Quote{}, model.NewError(model.KindInsufficientInput, "enter amount > 0", nil)
	}

	amountOut, err := s.Contracts.Pool.GetAmountOut(ctx, amountIn, dir.AToB())
	if err != nil {
		return model.Quote{}, model.NewError(model.KindQuoteUnavailable, chain.ErrorMessage(err), err)
	}
	return model.Quote{
		Direction:   dir,
		AmountIn:    amountIn,
		AmountOut:   amountOut,
		DecimalsIn:  decIn,
		DecimalsOut: decOut,
	}, nil
}

// Quote is the best-effort form of Compute: any failure yields the empty quote.
func (e *Engine) Quote(ctx context.Context, dir model.TradeDirection, amount string) model.Quote {
	q, err := e.Compute(ctx, dir, amount)
	if err != nil {
		if !model.IsKind(err, model.KindInsufficientInput) {
			e.logger.Debug("quote unavailable",
				zap.String("direction", dir.String()),
				zap.String("amount_in", amount),
				zap.Error(err),
			)
		}
		return model.Quote{Direction: dir}
	}
	return q
}

// SetAmount records the typed input and requotes.
func (e *Engine) SetAmount(ctx context.Context, amount string) View {
	e.mu.Lock()
	e.amount = amount
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// Flip swaps the direction, keeps the typed amount and requotes.
func (e *Engine) Flip(ctx context.Context) View {
	e.mu.Lock()
	e.direction = e.direction.Flip()
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// SetDirection selects the token being sold and requotes.
func (e *Engine) SetDirection(ctx context.Context, dir model.TradeDirection) (View, error) {
	if !dir.Valid() {
		return View{}, fmt.Errorf("invalid direction %s", dir)
	}
	e.mu.Lock()
	e.direction = dir
	e.mu.Unlock()
	return e.Refresh(ctx), nil
}

// Refresh requotes the current form. A result overtaken by a newer edit is discarded
// and the newer state is returned.
func (e *Engine) Refresh(ctx context.Context) View {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	dir, amount := e.direction, e.amount
	e.last = model.Quote{Direction: dir}
	e.mu.Unlock()

	q := e.Quote(ctx, dir, amount)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq == e.seq {
		e.last = q
	}
	return e.viewLocked()
}

// Current returns the form without requoting.
func (e *Engine) Current() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Direction returns the current trade direction.
func (e *Engine) Direction() model.TradeDirection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.direction
}

// Amount returns the typed input.
func (e *Engine) Amount() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.amount
}

// Reset clears the form and restores HOUSE -> BICY.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.seq++
	e.direction = model.DefaultDirection()
	e.amount = ""
	e.last = model.Quote{Direction: e.direction}
	e.mu.Unlock()
}

func (e *Engine) viewLocked() View {
	last := e.last
	if last.Direction != e.direction {
		last = model.Quote{Direction: e.direction}
	}
	return View{
		Direction: e.direction,
		AmountIn:  e.amount,
		AmountOut: last.AmountOutText(),
		RateLine:  last.RateLine(),
		Quote:     last,
	}
}
