package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"energyguard/internal/eventing"
	"energyguard/internal/observability/metrics"
	"energyguard/internal/telemetry/application/events"
	telemetry "energyguard/internal/telemetry/domain"
)

// SampleStore is the persistence surface for telemetry samples.
type SampleStore interface {
	Insert(ctx context.Context, sample telemetry.Sample) error
	LatestByEngine(ctx context.Context) (map[string]telemetry.Sample, error)
	Latest(ctx context.Context, engineID string) (*telemetry.Sample, error)
	History(ctx context.Context, engineID string, window time.Duration, limit int) ([]telemetry.Sample, error)
	Averages(ctx context.Context, engineID string, window time.Duration) (avgPower, avgTemp, avgGas float64, err error)
}

// EngineChecker reports whether an engine is known to the fleet.
type EngineChecker interface {
	Exists(ctx context.Context, engineID string) (bool, error)
}

// IngestService validates and persists telemetry samples, then publishes a
// SampleReceived event for downstream consumers.
type IngestService struct {
	store   SampleStore
	engines EngineChecker
	bus     eventing.Bus
	logger  zerolog.Logger
}

// NewIngestService constructs the service. engines may be nil, in which case
// samples are accepted for any engine id.
func NewIngestService(store SampleStore, engines EngineChecker, bus eventing.Bus, logger zerolog.Logger) *IngestService {
	return &IngestService{store: store, engines: engines, bus: bus, logger: logger}
}

// Ingest persists one sample and fans it out on the bus. The sample's own
// timestamp is authoritative; callers must not substitute receive time.
func (s *IngestService) Ingest(ctx context.Context, sample telemetry.Sample) error {
	if s == nil || s.store == nil {
		return errors.New("ingest: nil store")
	}
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if err := sample.Validate(); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("invalid_sample")
		return err
	}
	if s.engines != nil {
		known, err := s.engines.Exists(ctx, sample.EngineID)
		if err != nil {
			result = metrics.ResultError
			metrics.IncIngestError("engine_lookup")
			return err
		}
		if !known {
			result = metrics.ResultError
			metrics.IncIngestError("unknown_engine")
			return errors.New("ingest: unknown engine " + sample.EngineID)
		}
	}

	if err := s.store.Insert(ctx, sample); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("storage")
		return err
	}

	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.SampleReceived{Sample: sample}); err != nil {
			// The sample is stored; a consumer failure must not fail the
			// ingest, only surface in logs.
			s.logger.Error().Err(err).
				Str("engine_id", sample.EngineID).
				Msg("sample consumer failed")
		}
	}
	return nil
}

// LatestByEngine returns the most recent sample per engine.
func (s *IngestService) LatestByEngine(ctx context.Context) (map[string]telemetry.Sample, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("ingest: nil store")
	}
	return s.store.LatestByEngine(ctx)
}

// Latest returns the most recent sample for one engine, or (nil, nil).
func (s *IngestService) Latest(ctx context.Context, engineID string) (*telemetry.Sample, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("ingest: nil store")
	}
	return s.store.Latest(ctx, engineID)
}

// History returns samples for an engine over the given window, oldest first.
func (s *IngestService) History(ctx context.Context, engineID string, window time.Duration, limit int) ([]telemetry.Sample, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("ingest: nil store")
	}
	if window <= 0 {
		window = time.Hour
	}
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	return s.store.History(ctx, engineID, window, limit)
}

// Averages returns mean power, exhaust temperature and gas consumption for an
// engine over the given window.
func (s *IngestService) Averages(ctx context.Context, engineID string, window time.Duration) (avgPower, avgTemp, avgGas float64, err error) {
	if s == nil || s.store == nil {
		return 0, 0, 0, errors.New("ingest: nil store")
	}
	if window <= 0 {
		window = time.Hour
	}
	return s.store.Averages(ctx, engineID, window)
}
