package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/urbancanopy/ground-temp-etl/internal/config"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// drainTimeout bounds how long ExtractBatch waits for additional jobs once
// the first one arrived. Solve jobs are heavyweight, so a short drain keeps
// latency low without starving the batch.
const drainTimeout = 250 * time.Millisecond

// Reader consumes solve-job messages from the source Kafka topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch blocks for the first available job, then drains whatever else
// arrives within the drain window, up to batchSize. Offsets are committed by
// the pipeline through each job's Commit after a successful load.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawJob, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	jobs := []domain.RawJob{r.mapMessageToRawJob(first)}

	drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for len(jobs) < batchSize {
		msg, err := r.reader.FetchMessage(drainCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return nil, err
		}
		jobs = append(jobs, r.mapMessageToRawJob(msg))
	}
	return jobs, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawJob converts a Kafka message into the domain representation,
// carrying a commit closure bound to this reader's consumer group.
func (r *Reader) mapMessageToRawJob(msg kafkago.Message) domain.RawJob {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawJob{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}
