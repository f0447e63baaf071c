// Package events defines the integration events published by telemetry
// ingestion.
package events

import (
	telemetry "energyguard/internal/telemetry/domain"
)

// SampleReceived is published after a telemetry sample has been persisted.
// The alert evaluator and the event recorder consume it.
type SampleReceived struct {
	Sample telemetry.Sample
}
