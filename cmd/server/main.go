package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/api"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/config"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/events/eventlog"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/events/kafka"
	interfaces "github.com/georgesmithishere/prepo-monorepo-fork/internal/interfaces"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/logging"
	memstore "github.com/georgesmithishere/prepo-monorepo-fork/internal/storage/memory"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/storage/postgres"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/strategy"
	"github.com/georgesmithishere/prepo-monorepo-fork/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addrs, err := cfg.Addresses()
	if err != nil {
		return err
	}

	var store interfaces.StrategyStore = memstore.NewMemoryStrategyStore()
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		pg := postgres.NewPostgresStrategyStore(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg
		log.Info("using postgres store")
	}

	var publisher interfaces.EventPublisher = eventlog.NewPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		log.WithField("brokers", cfg.KafkaBrokers).Info("publishing events to kafka")
	} else {
		log.Info("no kafka brokers configured, logging events")
	}

	// The owner deploys both tokens; the strategy is the base token's minter.
	baseToken := token.New(addrs.BaseToken, "Fake USD", addrs.Owner)
	vaultToken := token.New(addrs.VaultToken, "Collateral Token", addrs.Owner)
	if err := baseToken.SetMinter(ctx, addrs.Owner, addrs.Strategy); err != nil {
		return err
	}
	tokens := token.NewRegistry(baseToken, vaultToken)

	s, err := strategy.Open(ctx, strategy.Config{
		ID:         cfg.StrategyID,
		Address:    addrs.Strategy,
		Owner:      addrs.Owner,
		Controller: addrs.Controller,
	}, strategy.Deps{
		Token:     baseToken,
		Supply:    tokens,
		Store:     store,
		Publisher: publisher,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(s, tokens, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
