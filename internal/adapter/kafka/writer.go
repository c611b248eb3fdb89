package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/sinkhole-risk/internal/config"
	"github.com/couchcryptid/sinkhole-risk/internal/domain"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes scored region reports to a Kafka topic, one message per
// region keyed by region key. It implements pipeline.ReportPublisher.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaReportTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, clock: clockwork.NewRealClock(), logger: logger}
}

// PublishReports serializes and publishes the whole region table in a
// single WriteMessages call.
func (w *Writer) PublishReports(ctx context.Context, cycleID string, summaries []domain.RegionSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	generatedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(cycleID, generatedAt, summaries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write region reports: %w", err)
	}
	w.logger.Debug("region reports published", "cycle_id", cycleID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RegionSummary into a Kafka message.
func serializeToMessage(cycleID string, generatedAt time.Time, s domain.RegionSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_trend", Value: []byte(s.RiskTrend)},
			{Key: "cycle_id", Value: []byte(cycleID)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
