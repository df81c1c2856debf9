package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neuraswap/internal/faucet"
	"neuraswap/internal/liquidity"
	"neuraswap/internal/pricing"
	"neuraswap/internal/session"
	"neuraswap/internal/storage"
	"neuraswap/internal/trade"
)

// Deps are the components the API drives.
type Deps struct {
	Session   *session.Controller
	Quotes    *pricing.Engine
	Liquidity *liquidity.Synchronizer
	Trades    *trade.Executor
	Faucet    *faucet.Service
	History   storage.Reader
}

// Server exposes the client over a local JSON API.
type Server struct {
	deps       Deps
	router     *gin.Engine
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{deps: deps, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	g := router.Group("/api")
	g.GET("/session", s.getSession)
	g.POST("/session/connect", s.connect)
	g.POST("/session/disconnect", s.disconnect)
	g.POST("/reset", s.reset)
	g.GET("/balances", s.getBalances)
	g.GET("/quote", s.getQuote)
	g.POST("/quote", s.setQuoteAmount)
	g.POST("/quote/flip", s.flip)
	g.POST("/swap", s.swap)
	g.GET("/liquidity", s.getLiquidity)
	g.POST("/liquidity/input", s.liquidityInput)
	g.POST("/liquidity/add", s.addLiquidity)
	g.GET("/faucet/cooldown", s.getCooldown)
	g.POST("/faucet/claim", s.claim)
	g.GET("/activity", s.getActivity)

	s.router = router
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("api stopped")
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("api request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
