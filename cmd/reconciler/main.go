package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/booking"
	"github.com/ariefcatur/go-table-booking/internal/config"
	"github.com/ariefcatur/go-table-booking/internal/httpx"
	kafkax "github.com/ariefcatur/go-table-booking/internal/kafka"
	"github.com/ariefcatur/go-table-booking/internal/logx"
	"github.com/ariefcatur/go-table-booking/internal/postgres"
	"github.com/ariefcatur/go-table-booking/internal/reconcile"
	"github.com/ariefcatur/go-table-booking/internal/redisx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := getenv("RECONCILER_NAME", "booking-reconciler")
	log := logx.New(service, cfg.LogLevel)

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.WithError(err).Fatal("migrate")
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	repo := &reconcile.Repo{DB: db}
	svc := &reconcile.Service{
		Repo:  repo,
		Dedup: reconcile.NewRedisDeduper(rdb, service),
		Log:   log,
	}

	group := getenv("RECONCILER_GROUP", "booking-reconciler")
	workers := mustAtoi(os.Getenv("RECONCILER_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, booking.TopicBookingEvents, workers, log)

	router := httpx.NewRouter()
	(&httpx.SnapshotsHandler{Repo: repo, Log: log}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("workers", workers).Info("consumer started")
		return cons.Start(gctx, svc.HandleBookingEvent)
	})
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		select {
		case s := <-sig:
			log.WithField("signal", s.String()).Info("shutting down...")
		case <-gctx.Done():
		}
		cancel()
		shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("reconciler exit")
		os.Exit(1)
	}
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
