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
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/config"
	"github.com/MrJamesThe3rd/icpledger/internal/export"
	icpHttp "github.com/MrJamesThe3rd/icpledger/internal/http"
	accessHandler "github.com/MrJamesThe3rd/icpledger/internal/http/access"
	exportHandler "github.com/MrJamesThe3rd/icpledger/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/icpledger/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/icpledger/internal/http/ledger"
	personHandler "github.com/MrJamesThe3rd/icpledger/internal/http/person"
	"github.com/MrJamesThe3rd/icpledger/internal/importer"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/logging"
	"github.com/MrJamesThe3rd/icpledger/internal/metrics"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
	"github.com/MrJamesThe3rd/icpledger/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.NewLogger(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.Name, cfg.App.Env))

	if cfg.Auth.JWTSecret == "" {
		slog.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	if cfg.Auth.AdminToken == "" {
		slog.Warn("ADMIN_TOKEN is empty, admin bootstrap is disabled")
	}

	decimal.MarshalJSONWithoutQuotes = true

	repos, err := storage.Open(cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer repos.Close()

	var (
		accessService = access.NewService(repos.Access, cfg.Auth.AdminToken)
		personService = person.NewService(repos.Persons, accessService)
		ledgerService = ledger.NewService(repos.Entries, accessService)
		importService = importer.NewService()
		exportService = export.NewService(ledgerService)
	)

	var (
		personH = personHandler.NewHandler(personService, ledgerService)
		ledgerH = ledgerHandler.NewHandler(ledgerService)
		accessH = accessHandler.NewHandler(accessService)
		importH = importHandler.NewHandler(importService, ledgerService)
		exportH = exportHandler.NewHandler(exportService)
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := icpHttp.New(icpHttp.Options{
		Logger:      slog.Default(),
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     metrics.New(registry),
		Gatherer:    registry,
	}, personH, ledgerH, accessH, importH, exportH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "port", srv.Addr, "store", cfg.Store.Driver)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}
