package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/urbancanopy/ground-temp-etl/internal/config"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// Writer produces point results to the sink Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes point results to the sink topic in a
// single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.PointResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a PointResult into a Kafka message. The key is
// the point ID so consumers can compact per point; the job ID travels in a
// header.
func serializeToMessage(result domain.PointResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize point result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(result.PointID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "job_id", Value: []byte(result.JobID)},
			{Key: "solved_at", Value: []byte(result.SolvedAt.Format(time.RFC3339))},
		},
	}, nil
}
