package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pickban/draft-server/internal/config"
	"github.com/pickban/draft-server/internal/httpapi"
	"github.com/pickban/draft-server/internal/registry"
	"github.com/pickban/draft-server/internal/snapshot"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *snapshot.Store
	if cfg.DatabaseURL != "" {
		store, err = snapshot.Open(cfg.DatabaseURL, log.Named("snapshot"))
		if err != nil {
			log.Fatal("failed to open snapshot store", zap.Error(err))
		}
		defer store.Close()
	} else {
		log.Info("no DATABASE_URL set, room persistence disabled")
	}

	reg := registry.New(ctx, registry.Config{
		StartCountdown: cfg.StartCountdown,
		ActionTimeout:  cfg.ActionTimeout,
		GracePeriod:    cfg.GracePeriod,
		Store:          store,
		Log:            log.Named("registry"),
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(reg, store, log.Named("http")),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
