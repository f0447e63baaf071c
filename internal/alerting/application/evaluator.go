package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	alerting "energyguard/internal/alerting/domain"
	events "energyguard/internal/events/domain"
	fleet "energyguard/internal/fleet/domain"
	"energyguard/internal/observability/metrics"
	telemetry "energyguard/internal/telemetry/domain"
)

// RuleSource provides the enabled rule set. The evaluator snapshots it once
// per tick so one evaluation pass never mixes stale and fresh rules.
type RuleSource interface {
	ListEnabled(ctx context.Context) ([]alerting.AlertRule, error)
}

// AlertWriter persists newly opened alerts.
type AlertWriter interface {
	Insert(ctx context.Context, alert *alerting.Alert) error
}

// EngineStatusWriter writes derived engine status back to the registry.
type EngineStatusWriter interface {
	UpdateStatus(ctx context.Context, engineID, status string) error
}

// EventRecorder appends operational events to the dashboard feed.
// Recording is best-effort; the alerting path never depends on it.
type EventRecorder interface {
	Append(ctx context.Context, event events.Event) error
}

// AlertNotifier delivers opened alerts to external channels per the rule's
// notification flags.
type AlertNotifier interface {
	NotifyOpened(ctx context.Context, rule alerting.AlertRule, alert alerting.Alert)
}

type stateKey struct {
	ruleID   string
	engineID string
}

// conditionState tracks condition persistence per (rule, engine) pair. It is
// process-local: a restart starts over with all conditions assumed false,
// which is the documented trade-off for sub-threshold pending state.
type conditionState struct {
	trueSince   time.Time
	openAlertID string
}

// Evaluator turns streaming telemetry into stateful alerts with hysteresis.
// Samples for one engine are evaluated strictly in timestamp order; samples
// for different engines evaluate in parallel.
type Evaluator struct {
	rules    RuleSource
	alerts   AlertWriter
	engines  EngineStatusWriter
	feed     EventRecorder
	notifier AlertNotifier
	logger   zerolog.Logger

	mu          sync.Mutex
	engineLocks map[string]*sync.Mutex
	lastSeen    map[string]time.Time
	state       map[stateKey]*conditionState
}

// NewEvaluator constructs an evaluator. feed and notifier may be nil.
func NewEvaluator(rules RuleSource, alerts AlertWriter, engines EngineStatusWriter, feed EventRecorder, notifier AlertNotifier, logger zerolog.Logger) (*Evaluator, error) {
	if rules == nil {
		return nil, fmt.Errorf("evaluator: nil rule source")
	}
	if alerts == nil {
		return nil, fmt.Errorf("evaluator: nil alert writer")
	}
	if engines == nil {
		return nil, fmt.Errorf("evaluator: nil engine status writer")
	}
	return &Evaluator{
		rules:       rules,
		alerts:      alerts,
		engines:     engines,
		feed:        feed,
		notifier:    notifier,
		logger:      logger,
		engineLocks: make(map[string]*sync.Mutex),
		lastSeen:    make(map[string]time.Time),
		state:       make(map[stateKey]*conditionState),
	}, nil
}

// OnSample evaluates every applicable enabled rule against one telemetry
// sample and recomputes the engine's status. It is the ingestion entry point
// of the alerting core and is safe for concurrent use.
func (e *Evaluator) OnSample(ctx context.Context, sample telemetry.Sample) error {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveEvaluation(result, time.Since(start))
	}()

	if err := sample.Validate(); err != nil {
		result = metrics.ResultError
		return err
	}

	lock := e.engineLock(sample.EngineID)
	lock.Lock()
	defer lock.Unlock()

	if !e.advanceClock(sample.EngineID, sample.Time) {
		e.logger.Warn().
			Str("engine_id", sample.EngineID).
			Time("sample_time", sample.Time).
			Msg("dropping out-of-order sample")
		return nil
	}

	rules, err := e.rules.ListEnabled(ctx)
	if err != nil {
		result = metrics.ResultError
		return fmt.Errorf("evaluator: list rules: %w", err)
	}

	for _, rule := range rules {
		if !rule.AppliesTo(sample.EngineID) {
			continue
		}
		e.evaluateRule(ctx, rule, sample)
	}

	status := fleet.StatusForExhaustTemp(sample.TempExhaust)
	if err := e.engines.UpdateStatus(ctx, sample.EngineID, status); err != nil {
		// Status write failure does not abort the tick; the next sample
		// recomputes it anyway.
		e.logger.Error().Err(err).Str("engine_id", sample.EngineID).Msg("engine status update failed")
		result = metrics.ResultError
	}
	return nil
}

// ResetState drops all condition tracking, as happens on process restart.
// All conditions are assumed false afterwards.
func (e *Evaluator) ResetState() {
	e.mu.Lock()
	e.state = make(map[stateKey]*conditionState)
	e.lastSeen = make(map[string]time.Time)
	e.mu.Unlock()
}

func (e *Evaluator) evaluateRule(ctx context.Context, rule alerting.AlertRule, sample telemetry.Sample) {
	value, ok := sample.MetricValue(rule.Metric)
	if !ok {
		e.logger.Warn().
			Str("rule_id", rule.ID).
			Str("metric", rule.Metric).
			Msg("rule references unknown metric, skipping")
		return
	}

	st := e.conditionState(rule.ID, sample.EngineID)

	if !rule.Operator.Compare(value, rule.Threshold) {
		// Condition cleared. The open alert, if any, stays with a human;
		// only the tracking resets so a re-trigger opens a fresh alert.
		st.trueSince = time.Time{}
		st.openAlertID = ""
		return
	}

	if st.trueSince.IsZero() {
		st.trueSince = sample.Time
	}
	if sample.Time.Sub(st.trueSince) < rule.Duration() || st.openAlertID != "" {
		return
	}

	alert := &alerting.Alert{
		ID:          uuid.NewString(),
		EngineID:    sample.EngineID,
		RuleID:      rule.ID,
		Severity:    rule.Severity,
		Status:      alerting.StatusActive,
		Title:       rule.Name,
		Message:     fmt.Sprintf("%s %s %s %.2f for %ds (actual %.2f)", sample.EngineID, rule.Metric, rule.Operator, rule.Threshold, rule.DurationSeconds, value),
		Metric:      rule.Metric,
		Threshold:   rule.Threshold,
		ActualValue: value,
		CreatedAt:   sample.Time,
	}

	if err := e.insertWithRetry(ctx, alert); err != nil {
		// Not fatal: the condition persists, so the next tick re-attempts.
		e.logger.Error().Err(err).Str("rule_id", rule.ID).Str("engine_id", sample.EngineID).Msg("alert insert failed")
		return
	}
	st.openAlertID = alert.ID
	metrics.IncAlertOpened(alert.Severity)
	e.logger.Info().
		Str("alert_id", alert.ID).
		Str("rule_id", rule.ID).
		Str("engine_id", sample.EngineID).
		Str("severity", alert.Severity).
		Float64("actual_value", value).
		Msg("alert opened")
	e.recordEvent(ctx, alert)
	if e.notifier != nil {
		e.notifier.NotifyOpened(ctx, rule, *alert)
	}
}

func (e *Evaluator) insertWithRetry(ctx context.Context, alert *alerting.Alert) error {
	if err := e.alerts.Insert(ctx, alert); err == nil {
		return nil
	}
	return e.alerts.Insert(ctx, alert)
}

func (e *Evaluator) recordEvent(ctx context.Context, alert *alerting.Alert) {
	if e.feed == nil {
		return
	}
	level := events.LevelWarning
	if alert.Severity == alerting.SeverityCritical {
		level = events.LevelError
	} else if alert.Severity == alerting.SeverityInfo {
		level = events.LevelInfo
	}
	event := events.Event{
		ID:       uuid.NewString(),
		Time:     alert.CreatedAt,
		Level:    level,
		Message:  fmt.Sprintf("%s: %s", alert.EngineID, alert.Title),
		EngineID: alert.EngineID,
	}
	if err := e.feed.Append(ctx, event); err != nil {
		e.logger.Warn().Err(err).Str("alert_id", alert.ID).Msg("event append failed")
	}
}

func (e *Evaluator) engineLock(engineID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.engineLocks[engineID]
	if !ok {
		lock = &sync.Mutex{}
		e.engineLocks[engineID] = lock
	}
	return lock
}

// advanceClock records the newest sample timestamp per engine and reports
// whether the sample is in order. Called under the engine lock.
func (e *Evaluator) advanceClock(engineID string, ts time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.lastSeen[engineID]; ok && ts.Before(last) {
		return false
	}
	e.lastSeen[engineID] = ts
	return true
}

func (e *Evaluator) conditionState(ruleID, engineID string) *conditionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := stateKey{ruleID: ruleID, engineID: engineID}
	st, ok := e.state[key]
	if !ok {
		st = &conditionState{}
		e.state[key] = st
	}
	return st
}
