package api

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuraswap/internal/contracts/contractstest"
	"neuraswap/internal/faucet"
	"neuraswap/internal/liquidity"
	"neuraswap/internal/model"
	"neuraswap/internal/pricing"
	"neuraswap/internal/session"
	"neuraswap/internal/storage"
	"neuraswap/internal/trade"
	"neuraswap/internal/wallet/wallettest"
)

var user = common.HexToAddress("0x0000000000000000000000000000000000000a01")

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

type fixture struct {
	handler http.Handler
	dep     *contractstest.Deployment
	ctrl    *session.Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dep := contractstest.NewDeployment(user)
	dep.Pool.QuoteFn = func(in *big.Int, _ bool) (*big.Int, error) {
		out := new(big.Int).Mul(in, big.NewInt(995))
		return out.Quo(out, big.NewInt(1000)), nil
	}
	dep.Faucet.CooldownVal = big.NewInt(3600)
	dep.Faucet.LastClaims = map[common.Address]*big.Int{user: big.NewInt(time.Now().Unix())}

	target := model.NetworkSpec{ChainID: big.NewInt(267), Name: "Neura Testnet"}
	ctrl := session.NewController(wallettest.NewProvider(267, user), target, dep.Binder, nil)

	journal := storage.NewJsonlJournal(filepath.Join(t.TempDir(), "activity.jsonl"))
	recorder := storage.NewRecorder(journal, 267, nil)
	quotes := pricing.NewEngine(ctrl, nil)
	liq := liquidity.NewSynchronizer(ctrl, nil)

	srv := NewServer(":0", Deps{
		Session:   ctrl,
		Quotes:    quotes,
		Liquidity: liq,
		Trades:    trade.NewExecutor(ctrl, quotes, liq, trade.Options{DefaultSlippagePct: 0.5, Recorder: recorder}),
		Faucet:    faucet.NewService(ctrl, nil, recorder, nil),
		History:   journal,
	}, nil)
	return &fixture{handler: srv.Handler(), dep: dep, ctrl: ctrl}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disconnected", body["status"])
	assert.Equal(t, "0x10b", body["chain_id"])

	rec, body = f.do(t, http.MethodPost, "/api/session/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "connected", body["status"])
	assert.Equal(t, user.Hex(), body["account"])

	rec, body = f.do(t, http.MethodPost, "/api/session/disconnect", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disconnected", body["status"])
	assert.Nil(t, body["account"])
}

func TestQuoteAndSwap(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/session/connect", nil)

	rec, body := f.do(t, http.MethodPost, "/api/quote", map[string]string{"amount": "10"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9.95", body["amount_out"])
	assert.Equal(t, "1 HOUSE ≈ 0.995 BICY", body["rate_line"])

	rec, _ = f.do(t, http.MethodPost, "/api/swap", map[string]string{"slippage": "1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.dep.Pool.Swaps, 1)
	assert.Equal(t, e18(10), f.dep.Pool.Swaps[0].AmountIn)

	rec, body = f.do(t, http.MethodPost, "/api/quote/flip", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1 BICY ≈ 0.995 HOUSE", body["rate_line"])

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/activity", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var records []model.ActivityRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, model.ActivitySwap, records[0].Kind)
	assert.Equal(t, model.ActivityApprove, records[1].Kind)
}

func TestSwapValidation(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/swap", map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(model.KindNotConnected), body["kind"])

	f.do(t, http.MethodPost, "/api/session/connect", nil)
	rec, body = f.do(t, http.MethodPost, "/api/swap", map[string]string{"amount": "0"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "enter amount > 0", body["error"])

	rec, _ = f.do(t, http.MethodPost, "/api/swap", map[string]string{"amount": "1", "slippage": "abc"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.dep.Pool.Swaps)
}

func TestLiquidityInputAndAdd(t *testing.T) {
	f := newFixture(t)
	f.dep.SetReserves(e18(1000), e18(2000))
	f.do(t, http.MethodPost, "/api/session/connect", nil)

	rec, body := f.do(t, http.MethodPost, "/api/liquidity/input", map[string]string{"token": "house", "value": "5"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := body["view"].(map[string]interface{})
	assert.Equal(t, "10", view["draft"].(map[string]interface{})["bicy"])
	assert.Equal(t, "You will add: 5 HOUSE + 10 BICY", body["preview_text"])

	rec, _ = f.do(t, http.MethodPost, "/api/liquidity/input", map[string]string{"token": "eth", "value": "5"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/liquidity/add", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, f.dep.Pool.Adds, 1)
}

func TestFaucetEndpoints(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/session/connect", nil)

	rec, body := f.do(t, http.MethodGet, "/api/faucet/cooldown", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cd := body["cooldown"].(map[string]interface{})
	assert.Equal(t, true, cd["known"])

	rec, body = f.do(t, http.MethodPost, "/api/faucet/claim", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(model.KindCooldownActive), body["kind"])
	assert.Zero(t, f.dep.Faucet.Claims)

	f.dep.Faucet.LastClaims[user] = big.NewInt(0)
	rec, _ = f.do(t, http.MethodPost, "/api/faucet/claim", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.dep.Faucet.Claims)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/session/connect", nil)
	f.do(t, http.MethodPost, "/api/quote", map[string]string{"amount": "3"})
	f.do(t, http.MethodPost, "/api/quote/flip", nil)

	rec, body := f.do(t, http.MethodPost, "/api/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quote := body["quote"].(map[string]interface{})
	assert.Equal(t, "", quote["amount_in"])
	assert.Equal(t, "HOUSE", quote["direction"].(map[string]interface{})["from"])
}
