// Command server runs the donation portal API.
//
// Wiring only: every dependency is constructed here and injected down. With
// DATABASE_URL set the stores run on postgres, otherwise in memory; REDIS_URL
// additionally enables the server-side token revocation list.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	adminhandler "givebridge/internal/admin/handler"
	"givebridge/internal/audit"
	donationhandler "givebridge/internal/donation/handler"
	donationmetrics "givebridge/internal/donation/metrics"
	donationservice "givebridge/internal/donation/service"
	donationstore "givebridge/internal/donation/store"
	memberhandler "givebridge/internal/member/handler"
	membermetrics "givebridge/internal/member/metrics"
	"givebridge/internal/member/secrets"
	memberservice "givebridge/internal/member/service"
	memberstore "givebridge/internal/member/store"
	"givebridge/internal/platform/config"
	"givebridge/internal/platform/httpserver"
	"givebridge/internal/platform/logger"
	"givebridge/internal/platform/middleware"
	"givebridge/internal/platform/postgres"
	platformredis "givebridge/internal/platform/redis"
	"givebridge/internal/token"
	"givebridge/internal/token/revocation"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Postgres when configured, in-memory otherwise.
	var (
		members   memberstore.Store   = memberstore.NewInMemory()
		donations donationstore.Store = donationstore.NewInMemory()
		audits    audit.Store         = audit.NewInMemoryStore()
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		members = memberstore.NewPostgres(db)
		donations = donationstore.NewPostgres(db)
		audits = audit.NewPostgresStore(db)
		log.Info("storage: postgres")
	} else {
		log.Info("storage: in-memory")
	}

	// Optional token revocation list.
	var (
		revoker     memberservice.TokenRevoker
		revocations middleware.RevocationChecker
	)
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		store := revocation.NewRedis(redisClient.Client)
		revoker = store
		revocations = store
		log.Info("token revocation: enabled")
	}

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	hasher := secrets.NewHasher(cfg.BcryptCost)
	auditLog := audit.NewService(audits)

	memberOpts := []memberservice.Option{
		memberservice.WithLogger(log),
		memberservice.WithMetrics(membermetrics.New()),
	}
	if revoker != nil {
		memberOpts = append(memberOpts, memberservice.WithRevoker(revoker))
	}
	accounts := memberservice.NewService(members, tokens, hasher, auditLog, memberOpts...)

	finance := donationservice.NewService(donations, members, auditLog,
		donationservice.WithLogger(log),
		donationservice.WithMetrics(donationmetrics.New()),
	)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))

	memberhandler.New(accounts, tokens, revocations, log).Register(router)
	donationhandler.New(finance, tokens, revocations, log).Register(router)
	adminhandler.New(accounts, finance, tokens, revocations, log).Register(router)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	api := httpserver.New(cfg.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", "addr", cfg.Addr)
		if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
