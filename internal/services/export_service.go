package services

import (
	"context"
	"fmt"
	"log/slog"

	"btwbuddy/internal/amqp"
	"btwbuddy/internal/export"
	"btwbuddy/internal/storage"
)

// ExportService produces the monthly export artifacts and notifies
// external consumers. The AMQP client is optional.
type ExportService struct {
	storage    *storage.SQLiteRepository
	exporter   *export.Exporter
	amqpClient *amqp.Client
}

func NewExportService(storage *storage.SQLiteRepository, exporter *export.Exporter, amqpClient *amqp.Client) *ExportService {
	return &ExportService{
		storage:    storage,
		exporter:   exporter,
		amqpClient: amqpClient,
	}
}

// ExportMonth writes the artifacts for one month and publishes a completion
// notification. A publish failure does not fail the export.
func (s *ExportService) ExportMonth(ctx context.Context, year, month int) ([]string, error) {
	transactions, err := s.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	files, err := s.exporter.WriteMonth(ctx, transactions, year, month)
	if err != nil {
		return nil, fmt.Errorf("export month: %w", err)
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.PublishExportCompleted(ctx, year, month, files); err != nil {
			slog.ErrorContext(ctx, "Failed to publish export notification",
				"year", year, "month", month, "error", err)
			// Export succeeded; the notification is best effort
		}
	}
	return files, nil
}
