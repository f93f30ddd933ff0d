package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"btwbuddy/internal/amqp"
	"btwbuddy/internal/cli"
	"btwbuddy/internal/export"
	gsheet "btwbuddy/internal/export/google"
	"btwbuddy/internal/services"
)

func main() {
	now := time.Now()
	year := flag.Int("year", now.Year(), "year to export")
	month := flag.Int("month", int(now.Month()), "month to export (1-12)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if *month < 1 || *month > 12 {
		logger.Error("Invalid month", "month", *month)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var ledger export.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		ledger = client
	}

	var eventClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		eventClient = client
	}

	exporter := export.NewExporter(cfg.ExportDir, ledger)
	exportService := services.NewExportService(repo, exporter, eventClient)

	files, err := exportService.ExportMonth(ctx, *year, *month)
	if err != nil {
		logger.Error("Export failed", "year", *year, "month", *month, "error", err)
		os.Exit(1)
	}

	logger.Info("Export completed", "year", *year, "month", *month, "files", len(files))
	for _, f := range files {
		fmt.Println(f)
	}
}
