package interfaces

import (
	"context"
	"errors"

	alertapp "energyguard/internal/alerting/application"
	"energyguard/internal/eventing"
	telemetryevents "energyguard/internal/telemetry/application/events"
)

// SampleReceivedConsumer adapts telemetry bus events into the alert evaluator.
type SampleReceivedConsumer struct {
	evaluator *alertapp.Evaluator
}

// NewSampleReceivedConsumer constructs a consumer.
func NewSampleReceivedConsumer(evaluator *alertapp.Evaluator) (*SampleReceivedConsumer, error) {
	if evaluator == nil {
		return nil, errors.New("alerting consumer: nil evaluator")
	}
	return &SampleReceivedConsumer{evaluator: evaluator}, nil
}

// Register subscribes the consumer on the bus.
func (c *SampleReceivedConsumer) Register(bus eventing.Bus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventing.TypeNameOf[telemetryevents.SampleReceived](), c.Consume)
}

// Consume handles one sample received event.
func (c *SampleReceivedConsumer) Consume(ctx context.Context, event any) error {
	received, ok := event.(telemetryevents.SampleReceived)
	if !ok {
		return errors.New("alerting consumer: unexpected event type")
	}
	return c.evaluator.OnSample(ctx, received.Sample)
}
