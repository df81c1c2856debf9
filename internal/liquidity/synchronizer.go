package liquidity

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"neuraswap/internal/contracts"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
	"neuraswap/internal/units"
)

// Sessions yields the live session.
type Sessions interface {
	Require() (*session.Session, error)
}

// RatioState says what the ratio line currently reflects.
type RatioState string

const (
	RatioNone        RatioState = "none"
	RatioUnavailable RatioState = "unavailable"
	RatioEmptyPool   RatioState = "empty_pool"
	RatioLive        RatioState = "live"
)

const (
	unavailableText = "unavailable"
	emptyPoolText   = "empty pool (set initial amounts)"
)

// View is the liquidity form as the UI renders it.
type View struct {
	Draft    model.LiquidityDraft    `json:"draft"`
	State    RatioState              `json:"state"`
	Ratio    string                  `json:"ratio"`
	Preview  *model.LiquidityPreview `json:"preview,omitempty"`
	Reserves *model.PoolReserves     `json:"-"`
}

// PreviewText renders the "You will add" line.
func (v View) PreviewText() string {
	return v.Preview.String()
}

// WriteFunc observes programmatic writes into a form field.
type WriteFunc func(ref model.TokenRef, value string)

// Synchronizer keeps the two liquidity fields proportional to the pool's live balances.
// Programmatic writes happen with syncInFlight set. While it is set, Input ignores
// notifications for the field being written; edits to the other field are kept and
// synchronized once the write finishes.
type Synchronizer struct {
	sessions Sessions
	logger   *zap.Logger

	syncInFlight atomic.Bool

	mu      sync.Mutex
	draft   model.LiquidityDraft
	view    View
	onWrite WriteFunc
	writing model.TokenRef
	queued  bool
}

func NewSynchronizer(sessions Sessions, logger *zap.Logger) *Synchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Synchronizer{sessions: sessions, logger: logger, draft: model.EmptyDraft()}
	s.view = s.clearedView(s.draft)
	return s
}

// OnWrite registers the observer of programmatic writes. It may call Input reentrantly.
func (s *Synchronizer) OnWrite(fn WriteFunc) {
	s.mu.Lock()
	s.onWrite = fn
	s.mu.Unlock()
}

// Syncing reports whether a programmatic write is in progress.
func (s *Synchronizer) Syncing() bool {
	return s.syncInFlight.Load()
}

// Draft returns a copy of the form.
func (s *Synchronizer) Draft() model.LiquidityDraft {
	s.mu.Lock()
	d := s.draft
	s.mu.Unlock()
	d.SyncInFlight = s.syncInFlight.Load()
	return d
}

// Current returns the last computed view.
func (s *Synchronizer) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Draft = s.draft
	v.Draft.SyncInFlight = s.syncInFlight.Load()
	return v
}

// Input records a user edit of one field and runs one synchronization pass.
// Notifications that arrive during a programmatic write are ignored.
func (s *Synchronizer) Input(ctx context.Context, ref model.TokenRef, value string) (View, error) {
	if !ref.Valid() {
		return View{}, fmt.Errorf("unknown token: %s", ref)
	}
	s.mu.Lock()
	if s.syncInFlight.Load() {
		if ref != s.writing {
			s.draft = s.draft.With(ref, value)
			s.draft.LastEdited = ref
			s.queued = true
		}
		s.mu.Unlock()
		return s.Current(), nil
	}
	s.draft = s.draft.With(ref, value)
	s.draft.LastEdited = ref
	s.mu.Unlock()
	return s.Sync(ctx), nil
}

// Sync recomputes the non-edited field from the live pool ratio.
func (s *Synchronizer) Sync(ctx context.Context) View {
	draft := s.Draft()

	if !units.IsPositive(draft.House) && !units.IsPositive(draft.Bicy) {
		return s.publish(s.clearedView(draft))
	}

	sess, err := s.sessions.Require()
	if err != nil {
		return s.publish(s.clearedView(draft))
	}

	reserves, err := ReadReserves(ctx, sess.Contracts)
	if err != nil {
		s.logger.Debug("pool reserves unavailable", zap.Error(err))
		return s.publish(View{Draft: draft, State: RatioUnavailable, Ratio: unavailableText})
	}

	if reserves.Empty() {
		v := View{Draft: draft, State: RatioEmptyPool, Ratio: emptyPoolText, Reserves: &reserves}
		house, bicy := strings.TrimSpace(draft.House), strings.TrimSpace(draft.Bicy)
		if house != "" && bicy != "" {
			v.Preview = &model.LiquidityPreview{House: house, Bicy: bicy}
		}
		return s.publish(v)
	}

	v := View{
		Draft:    draft,
		State:    RatioLive,
		Ratio:    ratioLine(reserves, sess),
		Reserves: &reserves,
	}

	edited := draft.LastEdited
	if !edited.Valid() {
		edited = model.HOUSE
	}
	other := edited.Other()
	raw := draft.Value(edited)

	if !units.IsPositive(raw) {
		s.write(other, "", edited, raw)
		if s.takeQueued() {
			return s.Sync(ctx)
		}
		v.Draft = s.Draft()
		return s.publish(v)
	}

	amount, err := units.ToSmallest(raw, sess.Decimals(edited))
	if err != nil {
		s.logger.Debug("liquidity amount not representable", zap.String("token", edited.String()), zap.Error(err))
		return s.publish(v)
	}

	counter := Proportional(amount, reserves.Of(other), reserves.Of(edited))
	text := units.FromSmallest(counter, sess.Decimals(other))
	if !s.write(other, text, edited, raw) {
		return s.Current()
	}
	if s.takeQueued() {
		return s.Sync(ctx)
	}

	v.Draft = s.Draft()
	v.Preview = &model.LiquidityPreview{House: v.Draft.House, Bicy: v.Draft.Bicy}
	return s.publish(v)
}

// write sets ref to value unless the edited field changed since the pass began.
func (s *Synchronizer) write(ref model.TokenRef, value string, edited model.TokenRef, editedValue string) bool {
	s.mu.Lock()
	if s.draft.Value(edited) != editedValue {
		s.mu.Unlock()
		return false
	}
	s.draft = s.draft.With(ref, value)
	s.writing = ref
	s.syncInFlight.Store(true)
	hook := s.onWrite
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.syncInFlight.Store(false)
		s.writing = ""
		s.mu.Unlock()
	}()
	if hook != nil {
		hook(ref, value)
	}
	return true
}

// takeQueued reports and clears a user edit that arrived during the last write.
func (s *Synchronizer) takeQueued() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	queued := s.queued
	s.queued = false
	return queued
}

// Clear empties both fields and the ratio display.
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	s.draft = model.EmptyDraft()
	s.queued = false
	s.view = s.clearedView(s.draft)
	s.mu.Unlock()
}

func (s *Synchronizer) publish(v View) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.Draft = s.draft
	s.view = v
	return v
}

func (s *Synchronizer) clearedView(d model.LiquidityDraft) View {
	return View{Draft: d, State: RatioNone, Ratio: model.NoValue}
}

// Proportional is floor(amount * numerator / denominator).
func Proportional(amount, numerator, denominator *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, numerator)
	return out.Quo(out, denominator)
}

// ReadReserves reads the pool's HOUSE and BICY balances.
func ReadReserves(ctx context.Context, bundle *contracts.Bundle) (model.PoolReserves, error) {
	pool := bundle.Pool.Address()
	house, err := bundle.House.BalanceOf(ctx, pool)
	if err != nil {
		return model.PoolReserves{}, fmt.Errorf("read HOUSE reserve: %w", err)
	}
	bicy, err := bundle.Bicy.BalanceOf(ctx, pool)
	if err != nil {
		return model.PoolReserves{}, fmt.Errorf("read BICY reserve: %w", err)
	}
	return model.PoolReserves{House: house, Bicy: bicy}, nil
}

func ratioLine(r model.PoolReserves, sess *session.Session) string {
	house := units.ToDecimal(r.House, sess.Decimals(model.HOUSE))
	bicy := units.ToDecimal(r.Bicy, sess.Decimals(model.BICY))
	if !house.IsPositive() {
		return model.NoValue
	}
	ratio := bicy.DivRound(house, 18)
	if !ratio.IsPositive() {
		return model.NoValue
	}
	return fmt.Sprintf("1 HOUSE ≈ %s BICY", units.Display(ratio))
}
