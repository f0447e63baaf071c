package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"energyguard/internal/observability/metrics"
	"energyguard/internal/telemetry/application"
	telemetry "energyguard/internal/telemetry/domain"
)

// Consumer reads telemetry samples from the gateway topic and feeds them to
// the ingest service. Messages carry the same JSON payload as the webhook.
type Consumer struct {
	reader  *kafka.Reader
	service *application.IngestService
	logger  zerolog.Logger
}

// NewConsumer constructs a consumer for the given brokers and topic.
func NewConsumer(brokers []string, topic, groupID string, service *application.IngestService, logger zerolog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("telemetry consumer: no brokers")
	}
	if topic == "" {
		return nil, errors.New("telemetry consumer: empty topic")
	}
	if service == nil {
		return nil, errors.New("telemetry consumer: nil service")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: time.Second,
	})
	return &Consumer{reader: reader, service: service, logger: logger}, nil
}

// Run consumes until the context is cancelled. Malformed messages are logged
// and skipped so one bad payload cannot wedge the partition.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		message, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if err := c.handle(ctx, message.Value); err != nil {
			c.logger.Warn().Err(err).
				Int64("offset", message.Offset).
				Msg("telemetry message dropped")
		}
		if err := c.reader.CommitMessages(ctx, message); err != nil {
			c.logger.Error().Err(err).Msg("commit failed")
		}
	}
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

type samplePayload struct {
	EngineID  string             `json:"engine_id"`
	Timestamp int64              `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

func (c *Consumer) handle(ctx context.Context, raw []byte) error {
	var payload samplePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		metrics.IncIngestError("invalid_json")
		return err
	}
	if payload.EngineID == "" || payload.Timestamp <= 0 {
		metrics.IncIngestError("invalid_payload")
		return errors.New("telemetry consumer: missing engine_id or timestamp")
	}
	ts := time.Unix(payload.Timestamp, 0).UTC()
	if payload.Timestamp > 1_000_000_000_000 {
		ts = time.UnixMilli(payload.Timestamp).UTC()
	}
	sample := telemetry.Sample{
		EngineID:       payload.EngineID,
		Time:           ts,
		PowerKW:        payload.Values["power"],
		TempExhaust:    payload.Values["temp"],
		GasConsumption: payload.Values["gas"],
		Vibration:      payload.Values["vibration"],
		GasPressure:    payload.Values["gas_pressure"],
	}
	return c.service.Ingest(ctx, sample)
}
