package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	authhttp "github.com/Skotchmaster/ethnic_shop/internal/auth/httpserver"
	authrepo "github.com/Skotchmaster/ethnic_shop/internal/auth/repo"
	authsvc "github.com/Skotchmaster/ethnic_shop/internal/auth/service"
	carthttp "github.com/Skotchmaster/ethnic_shop/internal/cart/httpserver"
	cartrepo "github.com/Skotchmaster/ethnic_shop/internal/cart/repo"
	cartsvc "github.com/Skotchmaster/ethnic_shop/internal/cart/service"
	cataloghttp "github.com/Skotchmaster/ethnic_shop/internal/catalog/httpserver"
	catalogrepo "github.com/Skotchmaster/ethnic_shop/internal/catalog/repo"
	catalogsvc "github.com/Skotchmaster/ethnic_shop/internal/catalog/service"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	"github.com/Skotchmaster/ethnic_shop/internal/models"
	orderhttp "github.com/Skotchmaster/ethnic_shop/internal/order/httpserver"
	"github.com/Skotchmaster/ethnic_shop/internal/order/pricing"
	orderrepo "github.com/Skotchmaster/ethnic_shop/internal/order/repo"
	ordersvc "github.com/Skotchmaster/ethnic_shop/internal/order/service"
	"github.com/Skotchmaster/ethnic_shop/internal/payment/gateway"
	paymenthttp "github.com/Skotchmaster/ethnic_shop/internal/payment/httpserver"
	paymentsvc "github.com/Skotchmaster/ethnic_shop/internal/payment/service"
	httpserver "github.com/Skotchmaster/ethnic_shop/internal/transport/http"
	"github.com/Skotchmaster/ethnic_shop/pkg/config"
	"github.com/Skotchmaster/ethnic_shop/pkg/db"
	"github.com/Skotchmaster/ethnic_shop/pkg/idempotency"
	"github.com/Skotchmaster/ethnic_shop/pkg/logging"
	"github.com/Skotchmaster/ethnic_shop/pkg/mykafka"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	if err := models.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rule, err := pricing.NewRule(cfg.TaxRate, cfg.FreeShippingThreshold, cfg.ShippingFee)
	if err != nil {
		return fmt.Errorf("pricing rule: %w", err)
	}

	var idem idempotency.Store = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		idem = idempotency.NewRedisStore(rdb, cfg.IdempotencyTTL)
	}

	events := mykafka.New(cfg.KafkaBrokers, cfg.OrderEventsTopic)

	var gw gateway.Gateway
	if cfg.RazorpayKeyID != "" && cfg.RazorpayKeySecret != "" {
		gw = gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	} else {
		logger.Warn("razorpay_disabled", "reason", "RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET not set")
	}

	catalogRepo := &catalogrepo.GormRepo{DB: gdb}
	authService := &authsvc.AuthService{
		Repo:          &authrepo.GormRepo{DB: gdb},
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("admin bootstrap: %w", err)
	}
	cartService := &cartsvc.CartService{
		Repo:     &cartrepo.GormRepo{DB: gdb},
		Products: catalogRepo,
	}
	orderService := &ordersvc.OrderService{
		Repo:      &orderrepo.GormRepo{DB: gdb},
		Cart:      cartService,
		Users:     authService,
		Products:  catalogRepo,
		Pricing:   rule,
		Idem:      idem,
		Events:    events,
		StatsDays: cfg.StatsWindowDays,
	}
	paymentService := &paymentsvc.PaymentService{
		Gateway:         gw,
		KeyID:           cfg.RazorpayKeyID,
		KeySecret:       []byte(cfg.RazorpayKeySecret),
		Orders:          orderService,
		DefaultCurrency: cfg.DefaultCurrency,
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(httpserver.Common(httpserver.CommonConfig{
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		CookieSecure: cfg.CookieSecure,
	})...)

	httpserver.Register(e, &httpserver.Deps{
		DB: gdb,
		Auth: &authmw.AutoRefreshMiddleware{
			JWTSecret:    cfg.JWTAccessSecret,
			Refresher:    authService,
			CookieSecure: cfg.CookieSecure,
		},
		AuthHandler:    &authhttp.AuthHTTP{Svc: authService, CookieSecure: cfg.CookieSecure},
		CatalogHandler: &cataloghttp.CatalogHTTP{Svc: &catalogsvc.CatalogService{Repo: catalogRepo}},
		CartHandler:    &carthttp.CartHTTP{Svc: cartService},
		OrderHandler:   &orderhttp.OrderHTTP{Svc: orderService},
		PaymentHandler: &paymenthttp.PaymentHTTP{Svc: paymentService},
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("http_listen", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_error", "error", err)
	}
	if err := events.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_error", "error", err)
		}
	}
	logger.Info("shutdown_complete")
	return nil
}
