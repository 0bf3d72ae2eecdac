package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-table-booking/internal/api"
	"github.com/ariefcatur/go-table-booking/internal/app"
	"github.com/ariefcatur/go-table-booking/internal/booking"
	"github.com/ariefcatur/go-table-booking/internal/config"
	kafkax "github.com/ariefcatur/go-table-booking/internal/kafka"
	"github.com/ariefcatur/go-table-booking/internal/logx"
	"github.com/ariefcatur/go-table-booking/internal/redisx"
	"github.com/ariefcatur/go-table-booking/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code; cleanup runs in its defers.
func realMain() int {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(cfg.ServiceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer closeStore()

	var sink app.EventSink = app.NopSink{}
	if len(cfg.KafkaBrokers) > 0 {
		prod := kafkax.NewProducer(cfg.KafkaBrokers, booking.TopicBookingEvents, 64, log)
		prod.Start(ctx)
		defer func() {
			prod.Close()
			prod.WaitClosed()
		}()
		sink = kafkax.NewSink(prod)
	}

	sess := session.NewManager(store)
	backend := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	c := &cli{
		svc:  app.New(backend, sess, sink, cfg.ServiceName, log),
		sess: sess,
		out:  os.Stdout,
	}

	if err := c.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, notice(err))
		return 1
	}
	return 0
}

func openStore(cfg config.Config) (session.Store, func(), error) {
	switch cfg.SessionBackend {
	case "", "file":
		return session.NewFileStore(cfg.SessionFile), func() {}, nil
	case "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "redis":
		rdb := redisx.New(cfg.RedisAddr)
		return session.NewRedisStore(rdb, cfg.DeviceID, cfg.SessionTTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_BACKEND %q (want file, redis or memory)", cfg.SessionBackend)
	}
}
