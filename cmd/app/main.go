// File: cmd/app/main.go
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

	"membership-portal/internal/config"
	pg "membership-portal/internal/infra/db/postgres"
	"membership-portal/internal/infra/i18n"
	"membership-portal/internal/infra/logging"
	"membership-portal/internal/infra/membership"
	"membership-portal/internal/infra/metrics"
	red "membership-portal/internal/infra/redis"
	"membership-portal/internal/infra/web"
	"membership-portal/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	draftRepo := red.NewDraftRepo(redisClient, cfg.Redis.TTL)
	sessionRepo := red.NewSessionRepo(redisClient, cfg.Session.TTL)
	attemptRepo := pg.NewAttemptRepo(pool)
	txManager := pg.NewTxManager(pool)
	locker := red.NewLocker(redisClient)

	// ---- Upstream membership adapters ----
	directory, err := membership.NewDirectory(cfg.Membership, logger)
	if err != nil {
		log.Fatalf("membership directory: %v", err)
	}
	registrar, err := membership.NewRegistrar(cfg.Membership, logger)
	if err != nil {
		log.Fatalf("membership registrar: %v", err)
	}

	// ---- Translators ----
	trTH, err := i18n.NewTranslator(i18n.LocalesFS, "th")
	if err != nil {
		log.Fatalf("i18n th: %v", err)
	}
	trEN, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		log.Fatalf("i18n en: %v", err)
	}

	// ---- Use cases ----
	viewUC := usecase.NewViewUseCase(sessionRepo, cfg.Portal.SuccessDelay, logger)
	fieldUC := usecase.NewFieldUseCase(draftRepo, directory, attemptRepo, trTH, trEN, logger)
	regUC := usecase.NewRegistrationUseCase(draftRepo, directory, registrar, attemptRepo, txManager, locker, trTH, trEN, logger)
	dashUC := usecase.NewDashboardUseCase(sessionRepo, cfg.Portal.CardReadyAfter, trTH, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Session.Secret, !cfg.Runtime.Dev, "", cfg.Session.TTL)
	srv := web.NewServer(viewUC, regUC, fieldUC, dashUC, auth, trTH, trEN, cfg.Portal.MaxUploadBytes, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("portal listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
