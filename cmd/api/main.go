package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	httpadp "cryptolend-backend/internal/adapter/http"
	"cryptolend-backend/internal/adapter/middleware"
	"cryptolend-backend/internal/adapter/repository/mysql"
	"cryptolend-backend/internal/adapter/wallet"
	"cryptolend-backend/internal/coinrabbit"
	"cryptolend-backend/internal/config"
	"cryptolend-backend/internal/infrastructure/cache"
	"cryptolend-backend/internal/infrastructure/db"
	"cryptolend-backend/internal/infrastructure/logger"
	"cryptolend-backend/internal/session"
	"cryptolend-backend/internal/usecase/confirm"
	"cryptolend-backend/internal/usecase/deposit"
	"cryptolend-backend/internal/usecase/loans"
	syncuc "cryptolend-backend/internal/usecase/sync"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	live := coinrabbit.NewClient(cfg.CoinRabbitBaseURL, cfg.CoinRabbitAPIKey)
	api := &coinrabbit.ModeSwitch{
		Live:        live,
		Mock:        coinrabbit.NewMock(),
		MockGetLoan: cfg.GetLoanMode == "mock",
		MockConfirm: cfg.ConfirmMode == "mock",
	}

	sessions := session.NewRedisProvider(rdb, api, cfg.SessionTokenTTL, zlog)
	repo := mysql.NewLoanRepository(gdb)

	syncSvc := syncuc.NewService(repo, api, sessions, zlog)
	loansSvc := loans.NewService(repo, api, sessions, cfg.GetLoanMode == "mock", zlog)
	resolver := deposit.NewResolver(api)
	payments := wallet.NewClient(cfg.WalletBridgeURL)
	confirmSvc := confirm.NewService(repo, api, sessions, resolver, payments, cfg.ConfirmMode == "mock", zlog)

	verifier := middleware.NewHTTPTokenVerifier(cfg.AuthBaseURL)

	h := httpadp.NewHandler(cfg.AppEnv)
	loanH := httpadp.NewLoanHandler(loansSvc, syncSvc)
	confirmH := httpadp.NewConfirmHandler(confirmSvc)
	pledgeH := httpadp.NewPledgeHandler(loansSvc)
	watchH := httpadp.NewWatchHandler(loansSvc, api, sessions, cfg.PollInterval, zlog)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	e.GET("/health", h.Health)

	g := e.Group("/api", middleware.RequireUser(verifier))
	idemp := middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, zlog)

	g.GET("/loans", loanH.ListLoans)
	g.POST("/loans", loanH.CreateLoan, idemp)
	g.GET("/loans/:loan_id", loanH.GetLoan)
	g.GET("/loans/:loan_id/record", loanH.GetLoanRecord)
	g.GET("/loans/:loan_id/watch", watchH.Watch)
	g.POST("/loans/:loan_id/deposit", loanH.RefreshDepositAddress)
	g.POST("/loans/:loan_id/confirm", confirmH.ConfirmLoan, idemp)
	g.POST("/loans/:loan_id/confirm-and-pay", confirmH.ConfirmAndPay, idemp)
	g.GET("/loans/:loan_id/increase/estimate", pledgeH.IncreaseEstimate)
	g.POST("/loans/:loan_id/increase", pledgeH.CreateIncrease, idemp)
	g.PUT("/loans/:loan_id/increase/fallback-tx", pledgeH.SaveIncreaseFallbackTx, idemp)
	g.GET("/loans/:loan_id/pledge/estimate", pledgeH.PledgeEstimate)
	g.POST("/loans/:loan_id/pledge", pledgeH.CreatePledgeRedemption, idemp)
	g.POST("/validate-address", loanH.ValidateAddress)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
