package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"neuraswap/internal/model"
	"neuraswap/internal/session"
)

type sessionResponse struct {
	Status   string         `json:"status"`
	Account  string         `json:"account,omitempty"`
	ChainID  string         `json:"chain_id"`
	Network  string         `json:"network"`
	Verified bool           `json:"chain_verified"`
	Error    string         `json:"error,omitempty"`
	Balances model.Balances `json:"balances"`
}

type amountRequest struct {
	Amount   *string `json:"amount"`
	Slippage string  `json:"slippage"`
}

type liquidityInputRequest struct {
	Token string `json:"token" binding:"required"`
	Value string `json:"value"`
}

type errorResponse struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind"`
}

func (s *Server) sessionView() sessionResponse {
	target := s.deps.Session.Target()
	status, lastErr := s.deps.Session.Status()
	out := sessionResponse{
		Status:   status.String(),
		ChainID:  target.ChainIDHex(),
		Network:  target.Name,
		Balances: s.deps.Session.Balances(),
	}
	if lastErr != nil {
		out.Error = lastErr.Error()
	}
	if sess, ok := s.deps.Session.Current(); ok {
		out.Account = sess.Account.Hex()
		out.Verified = sess.ChainVerified
	}
	return out
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.sessionView())
}

func (s *Server) connect(c *gin.Context) {
	if err := s.deps.Session.Connect(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	ctx := c.Request.Context()
	s.deps.Session.Invalidate(ctx)
	c.JSON(http.StatusOK, s.sessionView())
}

func (s *Server) disconnect(c *gin.Context) {
	s.deps.Session.Disconnect()
	c.JSON(http.StatusOK, s.sessionView())
}

func (s *Server) reset(c *gin.Context) {
	s.deps.Quotes.Reset()
	s.deps.Liquidity.Clear()
	s.deps.Session.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"session":   s.sessionView(),
		"quote":     s.deps.Quotes.Current(),
		"liquidity": s.deps.Liquidity.Current(),
	})
}

func (s *Server) getBalances(c *gin.Context) {
	balances, err := s.deps.Session.RefreshBalances(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

func (s *Server) getQuote(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Quotes.Current())
}

func (s *Server) setQuoteAmount(c *gin.Context) {
	var req amountRequest
	if !bindOptional(c, &req) {
		return
	}
	amount := ""
	if req.Amount != nil {
		amount = *req.Amount
	}
	c.JSON(http.StatusOK, s.deps.Quotes.SetAmount(c.Request.Context(), amount))
}

func (s *Server) flip(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Quotes.Flip(c.Request.Context()))
}

func (s *Server) swap(c *gin.Context) {
	var req amountRequest
	if !bindOptional(c, &req) {
		return
	}
	slippage, err := model.ParseSlippage(req.Slippage)
	if err != nil {
		writeError(c, model.NewError(model.KindInsufficientInput, err.Error(), err))
		return
	}
	amount := s.deps.Quotes.Amount()
	if req.Amount != nil {
		amount = *req.Amount
	}

	ctx := c.Request.Context()
	res, err := s.deps.Trades.Swap(ctx, s.deps.Quotes.Direction(), amount, slippage)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":   res,
		"quote":    s.deps.Quotes.Current(),
		"balances": s.deps.Session.Balances(),
	})
}

func (s *Server) getLiquidity(c *gin.Context) {
	v := s.deps.Liquidity.Current()
	c.JSON(http.StatusOK, gin.H{"view": v, "preview_text": v.PreviewText()})
}

func (s *Server) liquidityInput(c *gin.Context) {
	var req liquidityInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, model.NewError(model.KindInsufficientInput, err.Error(), err))
		return
	}
	ref, err := model.ParseTokenRef(req.Token)
	if err != nil {
		writeError(c, model.NewError(model.KindInsufficientInput, err.Error(), err))
		return
	}
	v, err := s.deps.Liquidity.Input(c.Request.Context(), ref, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"view": v, "preview_text": v.PreviewText()})
}

func (s *Server) addLiquidity(c *gin.Context) {
	res, err := s.deps.Trades.AddLiquidity(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "balances": s.deps.Session.Balances()})
}

func (s *Server) getCooldown(c *gin.Context) {
	cd, err := s.deps.Faucet.Remaining(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cooldown": cd, "text": cd.String()})
}

func (s *Server) claim(c *gin.Context) {
	res, err := s.deps.Faucet.Claim(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "balances": s.deps.Session.Balances()})
}

func (s *Server) getActivity(c *gin.Context) {
	if s.deps.History == nil {
		c.JSON(http.StatusOK, []model.ActivityRecord{})
		return
	}
	limit := 50
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, model.NewError(model.KindInsufficientInput, "limit must be a positive integer", err))
			return
		}
		limit = n
	}
	account := c.Query("account")
	if account == "" {
		if sess, ok := s.deps.Session.Current(); ok {
			account = sess.Account.Hex()
		}
	}
	records, err := s.deps.History.Recent(c.Request.Context(), account, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []model.ActivityRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c *gin.Context, out interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(out); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, model.NewError(model.KindInsufficientInput, err.Error(), err))
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	kind := model.KindOf(err)
	switch {
	case errors.Is(err, session.ErrConnectInProgress), errors.Is(err, session.ErrSuperseded):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Kind: kind})
		return
	case errors.Is(err, session.ErrReloadRequired):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: kind})
		return
	}
	c.JSON(statusFor(kind), errorResponse{Error: err.Error(), Kind: kind})
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindInsufficientInput, model.KindQuoteUnavailable:
		return http.StatusUnprocessableEntity
	case model.KindNotConnected, model.KindCooldownActive:
		return http.StatusConflict
	case model.KindUserRejected:
		return http.StatusForbidden
	case model.KindMissingWallet, model.KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	case model.KindTransactionReverted, model.KindChainMismatch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
