package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotspot-pix-portal/internal/config"
	"hotspot-pix-portal/internal/domain/ports/adapter"
	"hotspot-pix-portal/internal/domain/ports/repository"
	payAdapters "hotspot-pix-portal/internal/infra/adapters/payment"
	routerAdapters "hotspot-pix-portal/internal/infra/adapters/router"
	"hotspot-pix-portal/internal/infra/api"
	pg "hotspot-pix-portal/internal/infra/db/postgres"
	"hotspot-pix-portal/internal/infra/logging"
	"hotspot-pix-portal/internal/infra/memstore"
	"hotspot-pix-portal/internal/infra/metrics"
	red "hotspot-pix-portal/internal/infra/redis"
	"hotspot-pix-portal/internal/infra/sched"
	"hotspot-pix-portal/internal/infra/web"
	"hotspot-pix-portal/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "development mode (noop gateway and router)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled: noop payment gateway and router provisioner")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Stores ----
	var (
		sessionStore repository.SessionStore
		planRepo     repository.AccessPlanRepository
		settingsRepo repository.SettingsRepository
	)
	if cfg.Database.URL != "" {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()
		sessionStore = pg.NewSessionRepo(pool)
		planRepo = pg.NewPlanRepo(pool)
		settingsRepo = pg.NewSettingsRepo(pool)
		logger.Info().Msg("using postgres session store")
	} else {
		sessionStore = memstore.NewSessionStore()
		planRepo = memstore.NewPlanRepo()
		settingsRepo = memstore.NewSettingsRepo()
		logger.Info().Msg("using in-memory session store")
	}

	// ---- Session locks ----
	var locker repository.SessionLocker
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient, cfg.Redis.LockTTL)
		logger.Info().Msg("using redis session locks")
	} else {
		locker = memstore.NewLocker()
	}

	// ---- Collaborators ----
	var gateway adapter.PaymentGateway
	var provisioner adapter.RouterProvisioner
	var pinger web.RouterPinger
	if cfg.Runtime.Dev {
		gateway = payAdapters.NewNoopPaymentGateway()
		provisioner = routerAdapters.NewNoopProvisioner()
	} else {
		gateway, err = payAdapters.NewMercadoPagoGateway(cfg.Payment.MercadoPago.AccessToken, cfg.Payment.MercadoPago.PayerEmail)
		if err != nil {
			log.Fatalf("mercadopago gateway: %v", err)
		}
		mk, err := routerAdapters.NewMikrotikProvisioner(cfg.Mikrotik.Address, cfg.Mikrotik.Username, cfg.Mikrotik.Password, cfg.Mikrotik.Profile)
		if err != nil {
			log.Fatalf("mikrotik provisioner: %v", err)
		}
		provisioner = mk
		pinger = mk
	}

	// ---- Use cases ----
	sessionUC := usecase.NewSessionUseCase(sessionStore, planRepo, locker, gateway, provisioner, usecase.SessionManagerOptions{
		TTL:           cfg.Session.TTL,
		GrantAttempts: cfg.Session.GrantAttempts,
		CallTimeout:   cfg.Session.CallTimeout,
	}, logger)
	defer sessionUC.Close()
	planUC := usecase.NewPlanUseCase(planRepo)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo)
	statsUC := usecase.NewStatsUseCase(sessionStore)

	// Re-arm expiry timers for sessions that were pending at shutdown.
	if err := sessionUC.Resume(ctx); err != nil {
		logger.Error().Err(err).Msg("resume pending sessions failed")
	}

	// ---- Portal API + webhook ----
	portal := api.NewServer(sessionUC, planUC, sessionStore, gateway, cfg.Payment.MercadoPago.WebhookSecret, cfg.Portal.WebhookPath, logger)
	portalSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Portal.Port),
		Handler: portal.Router(),
	}
	go func() {
		logger.Info().Str("addr", portalSrv.Addr).Msg("portal api listening")
		if err := portalSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("portal server error")
		}
	}()

	// ---- Admin API ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL)
	admin := web.NewServer(planUC, statsUC, settingsUC, pinger, auth, cfg.Admin.Password, logger)
	adminMux := http.NewServeMux()
	admin.RegisterRoutes(adminMux)
	adminSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
		Handler: adminMux,
	}
	go func() {
		logger.Info().Str("addr", adminSrv.Addr).Msg("admin api listening")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Background workers ----
	sweeper := sched.NewSweepWorker(cfg.Session.SweepInterval, cfg.Session.Retention, sessionStore, logger)
	go func() { _ = sweeper.Run(ctx) }()

	reconciler := sched.NewChargeReconciler(sessionUC, sessionStore, gateway, cfg.Session.ReconcileEvery, cfg.Session.ReconcileEvery, logger)
	go func() { _ = reconciler.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = portalSrv.Shutdown(shutdownCtx)
	_ = adminSrv.Shutdown(shutdownCtx)
}
