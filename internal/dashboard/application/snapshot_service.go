package application

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"energyguard/internal/cache"
	dashboard "energyguard/internal/dashboard/domain"
	events "energyguard/internal/events/domain"
	fleet "energyguard/internal/fleet/domain"
	telemetry "energyguard/internal/telemetry/domain"
)

const (
	snapshotCacheKey = "dashboard:snapshot"
	eventFeedLimit   = 20
)

// EngineSource lists the fleet.
type EngineSource interface {
	List(ctx context.Context) ([]fleet.Engine, error)
}

// TelemetrySource provides the latest sample per engine.
type TelemetrySource interface {
	LatestByEngine(ctx context.Context) (map[string]telemetry.Sample, error)
}

// EventSource provides the recent operational event feed.
type EventSource interface {
	Latest(ctx context.Context, limit int) ([]events.Event, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// SnapshotService computes dashboard snapshots cache-aside: a cached snapshot
// is served as-is; on a miss the snapshot is aggregated from storage and
// written back with a TTL. Cache failures degrade to direct storage reads.
type SnapshotService struct {
	engines   EngineSource
	telemetry TelemetrySource
	events    EventSource
	cache     cache.Cache
	ttl       time.Duration
	clock     Clock
	logger    zerolog.Logger
}

// NewSnapshotService constructs the service. cache may be nil, in which case
// every call aggregates from storage.
func NewSnapshotService(
	engines EngineSource,
	telemetrySource TelemetrySource,
	eventSource EventSource,
	snapshotCache cache.Cache,
	ttl time.Duration,
	clock Clock,
	logger zerolog.Logger,
) *SnapshotService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SnapshotService{
		engines:   engines,
		telemetry: telemetrySource,
		events:    eventSource,
		cache:     snapshotCache,
		ttl:       ttl,
		clock:     clock,
		logger:    logger,
	}
}

// Current returns the dashboard snapshot, from cache when fresh.
func (s *SnapshotService) Current(ctx context.Context) (*dashboard.Snapshot, error) {
	if s == nil || s.engines == nil || s.telemetry == nil {
		return nil, errors.New("snapshot: nil sources")
	}

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, snapshotCacheKey); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot cache read failed, falling back to storage")
		} else if ok {
			var snapshot dashboard.Snapshot
			decodeErr := json.Unmarshal(raw, &snapshot)
			if decodeErr == nil {
				return &snapshot, nil
			}
			s.logger.Warn().Err(decodeErr).Msg("dropping undecodable cached snapshot")
		}
	}

	snapshot, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if raw, err := json.Marshal(snapshot); err == nil {
			if err := s.cache.Set(ctx, snapshotCacheKey, raw, s.ttl); err != nil {
				s.logger.Warn().Err(err).Msg("snapshot cache write failed")
			}
		}
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (s *SnapshotService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, snapshotCacheKey); err != nil {
		s.logger.Warn().Err(err).Msg("snapshot cache invalidation failed")
	}
}

func (s *SnapshotService) compute(ctx context.Context) (*dashboard.Snapshot, error) {
	engines, err := s.engines.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.telemetry.LatestByEngine(ctx)
	if err != nil {
		return nil, err
	}
	var feed []events.Event
	if s.events != nil {
		feed, err = s.events.Latest(ctx, eventFeedLimit)
		if err != nil {
			return nil, err
		}
	}
	snapshot := Aggregate(engines, latest, feed, s.clock.Now())
	return &snapshot, nil
}
