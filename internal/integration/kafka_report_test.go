//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/sinkhole-risk/internal/adapter/kafka"
	"github.com/couchcryptid/sinkhole-risk/internal/config"
	"github.com/couchcryptid/sinkhole-risk/internal/domain"
	"github.com/couchcryptid/sinkhole-risk/internal/observability"
	"github.com/couchcryptid/sinkhole-risk/internal/pipeline"
)

const testReportTopic = "test-region-reports"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("sinkhole-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type staticFetcher map[domain.Dataset][][]byte

func (f staticFetcher) Fetch(_ context.Context, ds domain.Dataset) ([][]byte, error) {
	return f[ds], nil
}

// TestLoaderPublishesRegionReports runs a load cycle against a real broker
// and reads the region reports back from the topic.
func TestLoaderPublishesRegionReports(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	fetcher := staticFetcher{
		domain.DatasetAccident: {[]byte(`{"body":[
			{"ACDNT_NO":"1","CTPV":"Seoul","SGG":"Jongno-gu","OCRN_YMD":"20250301"},
			{"ACDNT_NO":"2","CTPV":"Seoul","SGG":"Jongno-gu","OCRN_YMD":"20250302"},
			{"ACDNT_NO":"3","CTPV":"Busan","SGG":"Jung-gu","OCRN_YMD":"20250101"}
		]}`)},
	}
	loader := pipeline.New(fetcher, nil, writer, pipeline.Options{}, discardLogger(), observability.NewMetricsForTesting())

	snap, err := loader.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Summaries, 2)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testReportTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]domain.RegionSummary)
	for range snap.Summaries {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from report topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, snap.CycleID, headers["cycle_id"])
		assert.NotEmpty(t, headers["generated_at"])

		var s domain.RegionSummary
		require.NoError(t, json.Unmarshal(msg.Value, &s))
		assert.Equal(t, string(s.RiskTrend), headers["risk_trend"])
		got[string(msg.Key)] = s
	}

	require.Contains(t, got, "Seoul Jongno-gu")
	assert.Equal(t, 2, got["Seoul Jongno-gu"].TotalAccidents)
	require.Contains(t, got, "Busan Jung-gu")
	assert.Equal(t, 1, got["Busan Jung-gu"].TotalAccidents)
}
