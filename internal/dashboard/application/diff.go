package application

import (
	dashboard "energyguard/internal/dashboard/domain"
	events "energyguard/internal/events/domain"
)

// Update kinds on the wire.
const (
	UpdateFull = "full"
	UpdateDiff = "diff"
)

// Update is one broadcast message. A full update carries the whole snapshot;
// a diff carries only the engine records that changed since the previous
// broadcast, plus the summary when it moved.
type Update struct {
	Kind     string                    `json:"kind"`
	Seq      uint64                    `json:"seq"`
	Snapshot *dashboard.Snapshot       `json:"snapshot,omitempty"`
	Engines  []dashboard.EngineMetrics `json:"engines,omitempty"`
	Summary  *dashboard.Summary        `json:"summary,omitempty"`
	Events   []events.Event            `json:"events,omitempty"`
}

// ComputeUpdate decides between a full and a partial update. A partial update
// is only sent when the previous snapshot exists, the events feed is
// unchanged, and fewer than threshold of the engines moved. Diffs are only
// meaningful against a client holding the prior full state, so callers must
// send a full snapshot first to every new subscriber.
func ComputeUpdate(prev, next *dashboard.Snapshot, threshold float64) Update {
	if next == nil {
		return Update{Kind: UpdateFull}
	}
	if prev == nil || len(prev.Engines) == 0 {
		return Update{Kind: UpdateFull, Snapshot: next}
	}
	if eventsChanged(prev.Events, next.Events) {
		return Update{Kind: UpdateFull, Snapshot: next}
	}

	prevByID := make(map[string]dashboard.EngineMetrics, len(prev.Engines))
	for _, m := range prev.Engines {
		prevByID[m.ID] = m
	}
	var changed []dashboard.EngineMetrics
	for _, m := range next.Engines {
		if old, ok := prevByID[m.ID]; !ok || old != m {
			changed = append(changed, m)
		}
	}
	if len(next.Engines) != len(prev.Engines) ||
		float64(len(changed)) >= threshold*float64(len(next.Engines)) {
		return Update{Kind: UpdateFull, Snapshot: next}
	}

	update := Update{Kind: UpdateDiff, Engines: changed}
	if prev.Summary != next.Summary {
		summary := next.Summary
		update.Summary = &summary
	}
	return update
}

func eventsChanged(prev, next []events.Event) bool {
	if len(prev) != len(next) {
		return true
	}
	for i := range prev {
		if prev[i].ID != next[i].ID {
			return true
		}
	}
	return false
}
