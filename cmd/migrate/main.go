// Command migrate creates the tables and seeds the first administrator, then
// exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/app"
	"github.com/ovaphlow/pitchfork/service-staff-records/internal/config"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/database"
	"github.com/ovaphlow/pitchfork/service-staff-records/pkg/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.Init(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	sqlDB, err := database.Connect(cfg.Database)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	db := sqlx.NewDb(sqlDB, cfg.Database.Driver)
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := app.New(cfg, db, sugar).EnsureSchema(ctx); err != nil {
		sugar.Errorw("migrate failed", "err", err)
		_ = lg.Sync()
		os.Exit(1)
	}
	sugar.Infow("schema up to date", "driver", cfg.Database.Driver)
}
