package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/cartera/internal/analytics"
	"github.com/MrJamesThe3rd/cartera/internal/catalog"
	catalogStore "github.com/MrJamesThe3rd/cartera/internal/catalog/store"
	"github.com/MrJamesThe3rd/cartera/internal/client"
	clientStore "github.com/MrJamesThe3rd/cartera/internal/client/store"
	"github.com/MrJamesThe3rd/cartera/internal/config"
	"github.com/MrJamesThe3rd/cartera/internal/database"
	carteraHttp "github.com/MrJamesThe3rd/cartera/internal/http"
	catalogHandler "github.com/MrJamesThe3rd/cartera/internal/http/catalog"
	clientHandler "github.com/MrJamesThe3rd/cartera/internal/http/client"
	importHandler "github.com/MrJamesThe3rd/cartera/internal/http/importcsv"
	paymentHandler "github.com/MrJamesThe3rd/cartera/internal/http/payment"
	txHandler "github.com/MrJamesThe3rd/cartera/internal/http/transaction"
	"github.com/MrJamesThe3rd/cartera/internal/importer"
	"github.com/MrJamesThe3rd/cartera/internal/payment"
	"github.com/MrJamesThe3rd/cartera/internal/statement"
	"github.com/MrJamesThe3rd/cartera/internal/transaction"
	txStore "github.com/MrJamesThe3rd/cartera/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now, err := cfg.Clock()
	if err != nil {
		return err
	}

	policy, err := transaction.ParsePaidPolicy(cfg.Ledger.PaidPolicy)
	if err != nil {
		return err
	}

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	gormDB, err := database.NewGorm(db)
	if err != nil {
		return fmt.Errorf("opening analytics store: %w", err)
	}

	txRepo := txStore.New(db)

	var (
		transactionService = transaction.NewService(txRepo, transaction.WithPaidPolicy(policy), transaction.WithClock(now))
		paymentService     = payment.NewService(txRepo, payment.WithPaidPolicy(policy), payment.WithClock(now))
		clientService      = client.NewService(clientStore.New(db), transactionService)
		catalogService     = catalog.NewService(catalogStore.New(db))
		statementService   = statement.NewService(clientService, transactionService, cfg.Statement.Company, now)
		importService      = importer.NewService(clientService)
		tracker            = analytics.NewTracker(analytics.NewGormStore(gormDB))
	)

	router := carteraHttp.New(cfg.Server.CORSOrigins, carteraHttp.Handlers{
		Clients:      clientHandler.NewHandler(clientService, statementService, tracker),
		Transactions: txHandler.NewHandler(transactionService, paymentService, catalogService, tracker),
		Payments:     paymentHandler.NewHandler(paymentService, tracker),
		Catalog:      catalogHandler.NewHandler(catalogService),
		Import:       importHandler.NewHandler(importService, tracker),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "paid_policy", policy)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
