package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"btwbuddy/internal/amqp"
	"btwbuddy/internal/cli"
	"btwbuddy/internal/export"
	gsheet "btwbuddy/internal/export/google"
	apphttp "btwbuddy/internal/http"
	"btwbuddy/internal/services"
	"btwbuddy/internal/update"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	txService := services.NewTransactionService(repo)
	defer txService.Close()

	// Google Sheets ledger is optional; without a spreadsheet the monthly
	// export only writes local files.
	var ledger export.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}
	exporter := export.NewExporter(cfg.ExportDir, ledger)

	// AMQP publishing is optional; a nil client disables it.
	var eventClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		eventClient = client
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	exportService := services.NewExportService(repo, exporter, eventClient)

	feed, err := update.NewFeedClient(cfg.FeedProvider, cfg.FeedOwner, cfg.FeedRepo)
	if err != nil {
		logger.Error("Failed to configure release feed", "error", err)
		os.Exit(1)
	}
	downloader := update.NewDownloader(cfg.DownloadDir)
	updater := update.New(feed, downloader, update.Config{
		CurrentVersion: cfg.AppVersion,
		AutoDownload:   cfg.AutoDownload,
		StartupDelay:   cfg.StartupCheckDelay,
	})
	versions := update.NewVersionManager(feed, downloader, cfg.AppVersion, nil)

	srv := apphttp.NewServer(":"+cfg.Port, txService, exportService, updater, versions)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var stopStartupCheck func()
	if cfg.UpdatesEnabled() {
		stopStartupCheck = updater.Start(ctx)
		logger.Info("Update checks enabled",
			"owner", cfg.FeedOwner, "repo", cfg.FeedRepo,
			"auto_download", cfg.AutoDownload, "startup_delay", cfg.StartupCheckDelay)
	} else {
		logger.Info("Update checks disabled, no feed owner and repo configured")
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Forward update status events to AMQP so external consumers can follow
	// the update workflow.
	if eventClient != nil {
		statusEvents := updater.Events()
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case status, ok := <-statusEvents:
					if !ok {
						return nil
					}
					if err := eventClient.PublishUpdateStatus(gCtx, status); err != nil {
						slog.Warn("Failed to publish update status", "type", status.Type, "error", err)
					}
				}
			}
		})
	}

	g.Go(func() error {
		logger.Info("Starting btwbuddy server", "port", cfg.Port, "version", cfg.AppVersion)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		if stopStartupCheck != nil {
			stopStartupCheck()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
