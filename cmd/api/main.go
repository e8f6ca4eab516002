package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/app"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/config"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

const purgeInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// init logger
	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Infow("starting service-staff-records", "env", cfg.Env, "driver", cfg.Database.Driver)
	if cfg.GeneratedSecret {
		sugar.Warn("SESSION_SECRET not set; sessions will not survive a restart")
	}

	if err := run(cfg, sugar); err != nil {
		sugar.Errorw("service stopped with error", "err", err)
		_ = lg.Sync()
		os.Exit(1)
	}
	sugar.Info("goodbye")
}

func run(cfg config.Config, sugar *zap.SugaredLogger) error {
	// init db
	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	db := sqlx.NewDb(sqlDB, cfg.Database.Driver)
	defer db.Close()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, db, sugar)
	if err := a.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	handler, err := a.Handler(nil)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sugar.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := a.Sessions.PurgeExpired(gctx)
				if err != nil {
					sugar.Warnw("purge expired sessions", "err", err)
					continue
				}
				if n > 0 {
					sugar.Debugw("expired sessions purged", "count", n)
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("shutting down")

		// give a short grace period for in-flight requests
		doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(doneCtx); err != nil {
			sugar.Warnf("http server shutdown failed: %v", err)
		}
		return nil
	})
	return g.Wait()
}
