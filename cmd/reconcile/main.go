package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	appinventory "github.com/wms/backend/internal/application/inventory"
	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// Replays the transaction log against the stored ledger entries and reports
// every divergence. With -repair the stored counters are restated from the
// log; without it the run is read-only. Intended to run from cron or by hand
// after an incident.
func main() {
	var (
		repair   bool
		timeout  time.Duration
		logLevel string
	)
	flag.BoolVar(&repair, "repair", false, "Restate drifted ledger entries from the transaction log")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Maximum run duration")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	txScope := persistence.NewGormTransactionScope(db.DB)
	service := appinventory.NewReconcileService(txScope, log)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := service.Run(ctx, repair)
	if err != nil {
		log.Fatal("Reconciliation failed", zap.Error(err))
	}

	log.Info("Reconciliation finished",
		zap.Int("entries_checked", report.EntriesChecked),
		zap.Int("transactions_folded", report.TransactionsFolded),
		zap.Int("drifts", len(report.Drifts)),
		zap.Bool("repaired", repair),
	)

	for _, drift := range report.Drifts {
		log.Warn("ledger drift",
			zap.String("item_id", drift.ItemID.String()),
			zap.String("bin_id", drift.BinID.String()),
			zap.String("stored_on_hand", drift.StoredOnHand.String()),
			zap.String("recomputed_on_hand", drift.RecomputedOnHand.String()),
			zap.Bool("repaired", drift.Repaired),
		)
	}

	if len(report.Drifts) > 0 && !repair {
		os.Exit(1)
	}
}
