//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbancanopy/ground-temp-etl/internal/adapter/kafka"
	"github.com/urbancanopy/ground-temp-etl/internal/config"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
	"github.com/urbancanopy/ground-temp-etl/internal/observability"
	"github.com/urbancanopy/ground-temp-etl/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
)

// solvedMessage holds a deserialized point result read from the sink topic.
type solvedMessage struct {
	Result  domain.PointResult
	Key     string
	Headers map[string]string
}

// readSolved reads a single message from the sink consumer and deserializes it.
func readSolved(ctx context.Context, t *testing.T, consumer *kafkago.Reader) solvedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var result domain.PointResult
	require.NoError(t, json.Unmarshal(msg.Value, &result), "unmarshal sink message")

	return solvedMessage{
		Result:  result,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a solve job through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-reader-%d", time.Now().UnixNano()),
	}

	// Publish a solve job to the source topic.
	job := solveJob("job-rt", sunlitAsphaltPoint("pt-1"))
	payload, err := json.Marshal(job)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(job.JobID),
		Value: payload,
	}))

	// Extract via kafka.Reader.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	batch, err := reader.ExtractBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("job-rt"), raw.Key)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	// Solve the job.
	transformer := pipeline.NewTransformer(syntheticYear(), pipeline.EquilibriumSolver{}, 2,
		discardLogger(), observability.NewMetricsForTesting())
	results, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, results))

	// Read from the sink topic and verify key, headers, and payload.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readSolved(ctx, t, consumer)
	assert.Equal(t, "pt-1", sm.Key)
	assert.Equal(t, "job-rt", sm.Headers["job_id"])
	_, err = time.Parse(time.RFC3339, sm.Headers["solved_at"])
	assert.NoError(t, err, "solved_at should be valid RFC3339")

	assert.Equal(t, "pt-1", sm.Result.PointID)
	assert.True(t, sm.Result.Converged)
	require.Len(t, sm.Result.TempsC, domain.HoursPerDay)
	assert.Greater(t, sm.Result.MaxC, sm.Result.MinC)
}

// TestPipelineEndToEnd wires the full pipeline (reader, transformer, writer)
// against real Kafka and verifies every point of a multi-point job comes back
// solved.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()),
	}

	// Two sunlit points share an equivalence class; the shaded one solves
	// separately.
	shaded := sunlitAsphaltPoint("pt-shade")
	shaded.Shadow = make([]float64, domain.HoursPerDay)
	job := solveJob("job-e2e", sunlitAsphaltPoint("pt-a"), sunlitAsphaltPoint("pt-b"), shaded)
	payload, err := json.Marshal(job)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(job.JobID),
		Value: payload,
	}))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	solver := pipeline.NewCachedGroupSolver(pipeline.EquilibriumSolver{}, 16, metrics)
	transformer := pipeline.NewTransformer(syntheticYear(), solver, 2, discardLogger(), metrics)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 10)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]solvedMessage{}
	for len(received) < 3 {
		sm := readSolved(ctx, t, consumer)
		received[sm.Result.PointID] = sm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)

	for _, id := range []string{"pt-a", "pt-b", "pt-shade"} {
		sm, ok := received[id]
		require.True(t, ok, "missing result for %s", id)
		assert.Equal(t, "job-e2e", sm.Result.JobID)
		assert.True(t, sm.Result.Converged)
	}

	// Equivalence classes share bitwise-identical series.
	assert.Equal(t, received["pt-a"].Result.TempsC, received["pt-b"].Result.TempsC)
	assert.Greater(t, received["pt-a"].Result.MeanC, received["pt-shade"].Result.MeanC)
}

// TestPipelineTransformError verifies that an invalid job (poison pill) is
// skipped and the pipeline continues processing valid jobs.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaSinkTopic:   testSinkTopic,
		KafkaGroupID:     fmt.Sprintf("test-poison-%d", time.Now().UnixNano()),
	}

	job := solveJob("job-ok", sunlitAsphaltPoint("pt-1"))
	validPayload, err := json.Marshal(job)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	transformer := pipeline.NewTransformer(syntheticYear(), pipeline.EquilibriumSolver{}, 2,
		discardLogger(), metrics)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, transformer, writer, discardLogger(), metrics, 10)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readSolved(ctx, t, consumer)
	assert.Equal(t, "job-ok", sm.Result.JobID)
	assert.Equal(t, "pt-1", sm.Result.PointID)

	// No second message: the poison pill was skipped, not solved.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
