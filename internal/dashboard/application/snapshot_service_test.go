package application

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"energyguard/internal/cache"
	dashboard "energyguard/internal/dashboard/domain"
	fleet "energyguard/internal/fleet/domain"
	telemetry "energyguard/internal/telemetry/domain"
)

type snapshotFixture struct {
	fleet   *stubFleetSource
	cache   *cache.Memory
	service *SnapshotService
	logs    *bytes.Buffer
}

func newSnapshotFixture(t *testing.T) *snapshotFixture {
	t.Helper()
	fleetSource := &stubFleetSource{engines: []fleet.Engine{
		{ID: "gpu-1", Model: "J420", Status: fleet.StatusOK, PlannedPowerKW: fleet.PlannedPowerKW},
		{ID: "gpu-2", Model: "J420", Status: fleet.StatusOK, PlannedPowerKW: fleet.PlannedPowerKW},
	}}
	telemetrySource := &stubTelemetrySource{latest: map[string]telemetry.Sample{
		"gpu-1": {EngineID: "gpu-1", PowerKW: 1000, GasConsumption: 260},
		"gpu-2": {EngineID: "gpu-2", PowerKW: 1100, GasConsumption: 280},
	}}
	logs := &bytes.Buffer{}
	memory := cache.NewMemory()
	service := NewSnapshotService(fleetSource, telemetrySource, stubEventSource{}, memory,
		time.Minute, fixedBroadcastClock{}, zerolog.New(logs))
	return &snapshotFixture{fleet: fleetSource, cache: memory, service: service, logs: logs}
}

func TestCurrentServesCachedSnapshot(t *testing.T) {
	f := newSnapshotFixture(t)

	cached := dashboard.Snapshot{Summary: dashboard.Summary{EnginesTotal: 42}}
	raw, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := f.cache.Set(context.Background(), snapshotCacheKey, raw, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	snapshot, err := f.service.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if snapshot.Summary.EnginesTotal != 42 {
		t.Fatalf("engines total = %d, want cached 42", snapshot.Summary.EnginesTotal)
	}
	if calls := f.fleet.listCalls(); calls != 0 {
		t.Fatalf("fleet list calls = %d, want 0 on cache hit", calls)
	}
}

func TestCurrentRecomputesOnCorruptCache(t *testing.T) {
	f := newSnapshotFixture(t)

	if err := f.cache.Set(context.Background(), snapshotCacheKey, []byte("{not json"), time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	snapshot, err := f.service.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if snapshot.Summary.EnginesTotal != 2 {
		t.Fatalf("engines total = %d, want recomputed 2", snapshot.Summary.EnginesTotal)
	}
	if calls := f.fleet.listCalls(); calls != 1 {
		t.Fatalf("fleet list calls = %d, want 1", calls)
	}

	// The dropped-snapshot log must carry the decode error, not a nil one.
	logged := f.logs.String()
	if !strings.Contains(logged, "dropping undecodable cached snapshot") {
		t.Fatalf("missing drop log, got %q", logged)
	}
	if !strings.Contains(logged, "invalid character") {
		t.Fatalf("drop log does not carry the decode error: %q", logged)
	}
}
