package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/fars-census-service/internal/config"
	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// MonthlyCount is the payload of one published summary cell.
type MonthlyCount struct {
	ReportID    string    `json:"report_id"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	Accidents   int       `json:"accidents"`
	GeneratedAt time.Time `json:"generated_at"`
}

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes monthly summaries to a Kafka topic.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSummaryTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishSummary writes one message per populated (year, month) cell in a
// single WriteMessages call. Null cells are not published. All messages share a
// fresh report id, which is returned.
func (w *Writer) PublishSummary(ctx context.Context, table domain.SummaryTable) (string, error) {
	reportID := uuid.NewString()
	msgs, err := serializeSummary(reportID, table)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		w.logger.Info("empty summary not published", "report_id", reportID)
		return reportID, nil
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return "", fmt.Errorf("publish summary: %w", err)
	}
	w.logger.Info("summary published", "report_id", reportID, "messages", len(msgs))
	return reportID, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeSummary flattens the wide table into keyed cell messages.
func serializeSummary(reportID string, table domain.SummaryTable) ([]kafkago.Message, error) {
	generatedAt := []byte(table.GeneratedAt.Format(time.RFC3339))
	var msgs []kafkago.Message
	for _, row := range table.Rows {
		for i, n := range row.Counts {
			if n == nil {
				continue
			}
			cell := MonthlyCount{
				ReportID:    reportID,
				Year:        table.Years[i],
				Month:       row.Month,
				Accidents:   *n,
				GeneratedAt: table.GeneratedAt,
			}
			data, err := json.Marshal(cell)
			if err != nil {
				return nil, fmt.Errorf("serialize monthly count: %w", err)
			}
			msgs = append(msgs, kafkago.Message{
				Key:   []byte(fmt.Sprintf("%d-%02d", cell.Year, cell.Month)),
				Value: data,
				Headers: []kafkago.Header{
					{Key: "report_id", Value: []byte(reportID)},
					{Key: "generated_at", Value: generatedAt},
				},
			})
		}
	}
	return msgs, nil
}
