package pricing

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuraswap/internal/contracts/contractstest"
	"neuraswap/internal/model"
	"neuraswap/internal/session"
	"neuraswap/internal/wallet/wallettest"
)

var trader = common.HexToAddress("0x00000000000000000000000000000000000000c3")

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func connected(t *testing.T) (*session.Controller, *contractstest.Deployment) {
	t.Helper()
	d := contractstest.NewDeployment(trader)
	target := model.NetworkSpec{ChainID: big.NewInt(267), Name: "Neura Testnet"}
	c := session.NewController(wallettest.NewProvider(267, trader), target, d.Binder, nil)
	require.NoError(t, c.Connect(context.Background()))
	return c, d
}

// 0.995 output per input unit.
func fixedRate(amountIn *big.Int, _ bool) (*big.Int, error) {
	out := new(big.Int).Mul(amountIn, big.NewInt(995))
	return out.Div(out, big.NewInt(1000)), nil
}

func TestQuoteScenario(t *testing.T) {
	c, d := connected(t)
	d.Pool.QuoteFn = fixedRate
	e := NewEngine(c, nil)

	view := e.SetAmount(context.Background(), "10")
	assert.Equal(t, "9.95", view.AmountOut)
	assert.Equal(t, "1 HOUSE ≈ 0.995 BICY", view.RateLine)
	assert.Equal(t, e18(10), view.Quote.AmountIn)
	assert.True(t, d.Pool.LastAToB)
}

func TestFlipRequotesWithOppositeFlag(t *testing.T) {
	c, d := connected(t)
	d.Pool.QuoteFn = fixedRate
	e := NewEngine(c, nil)
	e.SetAmount(context.Background(), "10")

	view := e.Flip(context.Background())
	assert.Equal(t, model.TradeDirection{From: model.BICY, To: model.HOUSE}, view.Direction)
	assert.False(t, d.Pool.LastAToB)
	assert.Equal(t, "10", view.AmountIn)
	assert.Equal(t, "1 BICY ≈ 0.995 HOUSE", view.RateLine)
}

func TestQuoteInvalidInputIsEmpty(t *testing.T) {
	c, d := connected(t)
	d.Pool.QuoteFn = fixedRate
	e := NewEngine(c, nil)

	for _, in := range []string{"", "0", "-1", "abc", "NaN"} {
		q := e.Quote(context.Background(), model.DefaultDirection(), in)
		assert.True(t, q.IsEmpty(), in)
	}
	assert.Equal(t, 0, d.Pool.Quotes)

	view := e.SetAmount(context.Background(), "0")
	assert.Equal(t, "", view.AmountOut)
	assert.Equal(t, model.NoValue, view.RateLine)
}

func TestQuoteSwallowsPoolFailure(t *testing.T) {
	c, d := connected(t)
	d.Pool.QuoteFn = func(*big.Int, bool) (*big.Int, error) { return nil, errors.New("execution reverted: K") }
	e := NewEngine(c, nil)

	view := e.SetAmount(context.Background(), "1")
	assert.Equal(t, "", view.AmountOut)
	assert.Equal(t, model.NoValue, view.RateLine)

	_, err := e.Compute(context.Background(), model.DefaultDirection(), "1")
	assert.True(t, model.IsKind(err, model.KindQuoteUnavailable))
}

func TestQuoteRoundTripsDecimals(t *testing.T) {
	c, d := connected(t)
	d.Pool.QuoteFn = func(in *big.Int, _ bool) (*big.Int, error) { return new(big.Int).Set(in), nil }
	e := NewEngine(c, nil)

	for _, in := range []string{"1", "0.000000000000000001", "123456.789", "42.5"} {
		q, err := e.Compute(context.Background(), model.DefaultDirection(), in)
		require.NoError(t, err)
		assert.Equal(t, in, q.AmountOutText())
	}

	_, err := e.Compute(context.Background(), model.DefaultDirection(), "0.0000000000000000001")
	assert.True(t, model.IsKind(err, model.KindInsufficientInput))
}

func TestQuoteWithoutSession(t *testing.T) {
	d := contractstest.NewDeployment(trader)
	c := session.NewController(wallettest.NewProvider(267, trader), model.NetworkSpec{ChainID: big.NewInt(267)}, d.Binder, nil)
	e := NewEngine(c, nil)

	_, err := e.Compute(context.Background(), model.DefaultDirection(), "1")
	assert.True(t, model.IsKind(err, model.KindNotConnected))
	assert.True(t, e.Quote(context.Background(), model.DefaultDirection(), "1").IsEmpty())
}

func TestResetRestoresDefaults(t *testing.T) {
	c, d := connected(t)
	d.Pool.QuoteFn = fixedRate
	e := NewEngine(c, nil)
	e.SetAmount(context.Background(), "3")
	e.Flip(context.Background())

	e.Reset()
	view := e.Current()
	assert.Equal(t, model.DefaultDirection(), view.Direction)
	assert.Equal(t, "", view.AmountIn)
	assert.Equal(t, model.NoValue, view.RateLine)
}
