// Command ledger-report prints report views of a user's ledger as JSON and
// exports monthly statements.
//
// Commands:
//
//	summary             Balance, month totals and recent transactions
//	income-vs-expense   Two-bucket chart of the month
//	by-category         Per-category totals for one transaction type
//	monthly             Trailing monthly totals
//	transactions        Filtered, sorted, paginated transaction list
//	statement           Export the month as xlsx or pdf
//	reconcile           Compare stored balances with the transaction log
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finledger/internal/cache"
	"finledger/internal/cli"
	"finledger/internal/config"
	"finledger/internal/core"
	"finledger/internal/ledger"
	"finledger/internal/log"
	"finledger/internal/reports"
	"finledger/internal/storage"
	"finledger/internal/worker"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}
	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Stderr, os.Getenv("LOG_LEVEL"), log.ComponentReports)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := cli.OpenBackend(ctx, logger, cfg)
	a := newApp(res.Store, cfg, logger)

	err := a.run(ctx, os.Stdout, os.Args[1], os.Args[2:])
	a.close()
	if cerr := res.Cleanup(); cerr != nil {
		logger.Warn("Cleanup failed", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// app wires the ledger, the aggregator and the reconciler over one store.
type app struct {
	ledger  *ledger.Service
	reports *reports.Aggregator
	recon   *worker.LedgerWorker
	caches  *cache.Manager
}

func newApp(store *storage.Repository, cfg *config.Config, logger *log.Logger) *app {
	views := cache.NewNamespaced(cache.NewLRUCache[any](cfg.ReportCacheSize, cfg.ReportCacheTTL))
	manager := cache.NewManager()
	manager.Register(views)
	manager.StartCleanup(time.Minute)

	agg := reports.NewAggregator(store, reports.Options{
		Cache:    views,
		Window:   cfg.MonthlyWindow,
		Location: cfg.Location(),
		Logger:   logger,
	})
	svc := ledger.NewService(store, ledger.Options{Cache: agg, Logger: logger})

	return &app{
		ledger:  svc,
		reports: agg,
		recon:   worker.NewLedgerWorker(svc, nil),
		caches:  manager,
	}
}

func (a *app) close() {
	a.caches.Stop()
}

func exitCode(err error) int {
	if errors.Is(err, errUsage) {
		return 2
	}
	switch core.KindOf(err) {
	case core.KindValidation:
		return 2
	case core.KindNotFound:
		return 3
	case core.KindForbidden:
		return 4
	default:
		return 1
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  ledger-report <command> --user <id> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  summary             [--month YYYY-MM]")
	fmt.Println("  income-vs-expense   [--month YYYY-MM]")
	fmt.Println("  by-category         --type income|expense [--month YYYY-MM]")
	fmt.Println("  monthly             [--month YYYY-MM] [--window N]")
	fmt.Println("  transactions        [--type T] [--account ID] [--category ID] [--year Y | --month YYYY-MM]")
	fmt.Println("                      [--q TEXT] [--sort date|amount|description] [--order asc|desc]")
	fmt.Println("                      [--page N] [--size N]")
	fmt.Println("  statement           --format xlsx|pdf [--month YYYY-MM] [--out FILE]")
	fmt.Println("  reconcile")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_DRIVER, SQLITE_DB_PATH, DATABASE_URL   Ledger store")
	fmt.Println("  REPORT_CACHE_TTL, REPORT_CACHE_SIZE       Report cache")
	fmt.Println("  MONTHLY_WINDOW, TIMEZONE                  Report defaults")
}
