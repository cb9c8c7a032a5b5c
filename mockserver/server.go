// Package mockserver is a local stand-in for the generation API. It charges
// through x402 (verifying payments offline, settling nothing) and walks each
// task through queued, running and completed on successive status reads.
package mockserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/vitwit/x402gen/settlement"
	"github.com/vitwit/x402gen/types"
	"github.com/vitwit/x402gen/verification"
	"go.uber.org/zap"
)

type Config struct {
	// Networks offered in the 402 accepts list.
	Networks []types.Network
	// Price per generation in atomic token units.
	Price string

	EVMPayTo       string
	SolanaPayTo    string
	SolanaFeePayer string
	TokenName      string
	TokenVersion   string

	// PollsToComplete is the status read on which a task completes.
	PollsToComplete int
	// FailKeyword makes a task fail when its prompt contains it.
	FailKeyword string

	CORS      bool
	Profiling bool
}

func (c *Config) setDefaults() {
	if len(c.Networks) == 0 {
		c.Networks = []types.Network{types.NetworkBase, types.NetworkBaseSepolia, types.NetworkSolana, types.NetworkSolanaDevnet}
	}
	if c.Price == "" {
		c.Price = "100000"
	}
	if c.EVMPayTo == "" {
		c.EVMPayTo = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	}
	if c.SolanaPayTo == "" {
		c.SolanaPayTo = solana.NewWallet().PublicKey().String()
	}
	if c.SolanaFeePayer == "" {
		c.SolanaFeePayer = solana.NewWallet().PublicKey().String()
	}
	if c.TokenName == "" {
		c.TokenName = "USD Coin"
	}
	if c.TokenVersion == "" {
		c.TokenVersion = "2"
	}
	if c.PollsToComplete <= 0 {
		c.PollsToComplete = 3
	}
	if c.FailKeyword == "" {
		c.FailKeyword = "fail"
	}
}

type Server struct {
	cfg      Config
	log      *zap.Logger
	verifier verification.Verifier
	settler  settlement.Settler
	engine   *gin.Engine

	mu    sync.Mutex
	tasks map[string]*task
}

func New(cfg Config, log *zap.Logger) *Server {
	cfg.setDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		verifier: verification.NewExactVerifier(),
		settler:  settlement.SimulatedSettler{},
		tasks:    make(map[string]*task),
	}
	s.engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(ginzap.RecoveryWithZap(s.log, true))
	router.Use(ginzap.Ginzap(s.log, time.RFC3339Nano, true))
	if s.cfg.CORS {
		cfg := cors.DefaultConfig()
		cfg.AllowAllOrigins = true
		cfg.AddAllowHeaders(types.HeaderPayment)
		cfg.AddExposeHeaders(types.HeaderPaymentResponse)
		router.Use(cors.New(cfg))
	}
	if s.cfg.Profiling {
		pprof.Register(router)
	}

	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/generation/create", s.createTask)
	router.GET("/generation/:id/status", s.taskStatus)
	router.GET("/v/:id", s.sharePage)
	return router
}

func (s *Server) Handler() http.Handler { return s.engine }

// Config returns the effective configuration, defaults applied.
func (s *Server) Config() Config { return s.cfg }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mock generation API listening", zap.String("addr", addr), zap.Strings("networks", networkNames(s.cfg.Networks)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func networkNames(ns []types.Network) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.String()
	}
	return out
}
