//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/urbancanopy/ground-temp-etl/internal/domain"
)

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial kafka")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syntheticYear builds a two-day weather record with a midsummer target day,
// matching the fixtures used by the unit tests.
func syntheticYear() []domain.WeatherRecord {
	var records []domain.WeatherRecord
	for h := 1; h <= domain.HoursPerDay; h++ {
		records = append(records, domain.WeatherRecord{
			Month: 1, Day: 1, Hour: h,
			DryBulbC: -2, RelHumidity: 85,
		})
	}
	for h := 1; h <= domain.HoursPerDay; h++ {
		r := domain.WeatherRecord{
			Month: 6, Day: 21, Hour: h,
			DryBulbC:    23 + 7*math.Sin(math.Pi*(float64(h)-9)/12),
			RelHumidity: 55,
		}
		if h >= 6 && h <= 20 {
			r.GlobalHorizRad = math.Max(800*math.Sin(math.Pi*(float64(h)-6)/14), 0)
		}
		records = append(records, r)
	}
	return records
}

func solveJob(jobID string, points ...domain.JobPoint) domain.JobRequest {
	return domain.JobRequest{
		JobID:     jobID,
		Day:       21,
		Month:     6,
		UTCOffset: 1,
		AltitudeM: 170,
		Points:    points,
	}
}

func sunlitAsphaltPoint(id string) domain.JobPoint {
	shadow := make([]float64, domain.HoursPerDay)
	for h := 6; h <= 19; h++ {
		shadow[h] = 1
	}
	return domain.JobPoint{
		ID: id, Lon: 4.85, Lat: 45.75,
		Material: domain.SurfaceMaterial{
			Name: "asphalt", Albedo: 0.08, Emissivity: 0.95,
			HeatCapacity: 2.0e6, Conductivity: 0.75, Thickness: 0.20,
		},
		Shadow: shadow,
	}
}
