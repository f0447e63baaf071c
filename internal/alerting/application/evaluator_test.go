package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	alerting "energyguard/internal/alerting/domain"
	alertmemory "energyguard/internal/alerting/infrastructure/memory"
	events "energyguard/internal/events/domain"
	eventsmemory "energyguard/internal/events/infrastructure/memory"
	fleet "energyguard/internal/fleet/domain"
	fleetmemory "energyguard/internal/fleet/infrastructure/memory"
	telemetry "energyguard/internal/telemetry/domain"
)

var evalBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func overheatRule(duration int) alerting.AlertRule {
	return alerting.AlertRule{
		ID:              "rule-overheat",
		Name:            "Exhaust overheat",
		Metric:          telemetry.MetricTempExhaust,
		Operator:        alerting.OperatorGreater,
		Threshold:       500,
		DurationSeconds: duration,
		Severity:        alerting.SeverityCritical,
		Enabled:         true,
		CreatedAt:       evalBase,
		UpdatedAt:       evalBase,
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	rules  []alerting.AlertRule
	alerts []alerting.Alert
}

func (n *recordingNotifier) NotifyOpened(_ context.Context, rule alerting.AlertRule, alert alerting.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rules = append(n.rules, rule)
	n.alerts = append(n.alerts, alert)
}

func (n *recordingNotifier) notified(t *testing.T) []alerting.Alert {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]alerting.Alert(nil), n.alerts...)
}

type evalFixture struct {
	evaluator *Evaluator
	alerts    *alertmemory.AlertRepository
	rules     *alertmemory.RuleRepository
	engines   *fleetmemory.EngineRepository
	feed      *eventsmemory.EventRepository
	notifier  *recordingNotifier
}

func newEvalFixture(t *testing.T, rules ...alerting.AlertRule) *evalFixture {
	t.Helper()
	ruleRepo := alertmemory.NewRuleRepository()
	for i := range rules {
		if err := ruleRepo.Insert(context.Background(), &rules[i]); err != nil {
			t.Fatalf("insert rule: %v", err)
		}
	}
	alertRepo := alertmemory.NewAlertRepository()
	engineRepo := fleetmemory.NewEngineRepository()
	if err := engineRepo.Upsert(context.Background(), fleet.Engine{
		ID: "gpu-2", Model: "Jenbacher J420", Status: fleet.StatusOK, PlannedPowerKW: fleet.PlannedPowerKW,
	}); err != nil {
		t.Fatalf("upsert engine: %v", err)
	}
	feed := eventsmemory.NewEventRepository()
	notifier := &recordingNotifier{}
	evaluator, err := NewEvaluator(ruleRepo, alertRepo, engineRepo, feed, notifier, zerolog.Nop())
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return &evalFixture{evaluator: evaluator, alerts: alertRepo, rules: ruleRepo, engines: engineRepo, feed: feed, notifier: notifier}
}

func (f *evalFixture) sample(t *testing.T, offsetSeconds int, temp float64) {
	t.Helper()
	err := f.evaluator.OnSample(context.Background(), telemetry.Sample{
		EngineID:    "gpu-2",
		Time:        evalBase.Add(time.Duration(offsetSeconds) * time.Second),
		TempExhaust: temp,
		PowerKW:     1000,
	})
	if err != nil {
		t.Fatalf("on sample: %v", err)
	}
}

func (f *evalFixture) openAlerts(t *testing.T) []alerting.Alert {
	t.Helper()
	alerts, err := f.alerts.List(context.Background(), alerting.Filters{Limit: 100})
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	return alerts
}

func TestEvaluatorRequiresSustainedCondition(t *testing.T) {
	f := newEvalFixture(t, overheatRule(60))

	f.sample(t, 0, 530)
	f.sample(t, 30, 540)
	if got := len(f.openAlerts(t)); got != 0 {
		t.Fatalf("expected no alert before duration elapses, got %d", got)
	}

	f.sample(t, 60, 545)
	alerts := f.openAlerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert after 60s sustained, got %d", len(alerts))
	}
	if alerts[0].Status != alerting.StatusActive {
		t.Fatalf("expected active alert, got %s", alerts[0].Status)
	}
	if !alerts[0].CreatedAt.Equal(evalBase.Add(60 * time.Second)) {
		t.Fatalf("alert must carry the sample timestamp, got %v", alerts[0].CreatedAt)
	}
	if alerts[0].ActualValue != 545 {
		t.Fatalf("expected actual value 545, got %v", alerts[0].ActualValue)
	}
}

func TestEvaluatorDoesNotDuplicateOpenAlert(t *testing.T) {
	f := newEvalFixture(t, overheatRule(60))

	f.sample(t, 0, 530)
	f.sample(t, 60, 540)
	f.sample(t, 120, 550)
	f.sample(t, 180, 560)

	if got := len(f.openAlerts(t)); got != 1 {
		t.Fatalf("expected a single alert while condition persists, got %d", got)
	}
}

func TestEvaluatorReTriggersAfterClear(t *testing.T) {
	f := newEvalFixture(t, overheatRule(60))

	f.sample(t, 0, 530)
	f.sample(t, 60, 540)
	if got := len(f.openAlerts(t)); got != 1 {
		t.Fatalf("expected first alert, got %d", got)
	}

	// Condition clears, then returns. The tracking must restart from zero and
	// the second sustained breach opens a second alert.
	f.sample(t, 90, 480)
	f.sample(t, 120, 530)
	f.sample(t, 150, 535)
	if got := len(f.openAlerts(t)); got != 1 {
		t.Fatalf("expected no new alert 30s into second breach, got %d", got)
	}
	f.sample(t, 180, 540)

	alerts := f.openAlerts(t)
	if len(alerts) != 2 {
		t.Fatalf("expected a second alert after re-trigger, got %d", len(alerts))
	}
}

func TestEvaluatorConditionClearDoesNotResolveAlert(t *testing.T) {
	f := newEvalFixture(t, overheatRule(0))

	f.sample(t, 0, 530)
	f.sample(t, 10, 480)

	alerts := f.openAlerts(t)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	if alerts[0].Status != alerting.StatusActive {
		t.Fatalf("clearing the condition must not resolve the alert, got %s", alerts[0].Status)
	}
}

func TestEvaluatorDropsOutOfOrderSamples(t *testing.T) {
	f := newEvalFixture(t, overheatRule(60))

	f.sample(t, 0, 530)
	f.sample(t, 60, 540)
	// A stale sample below threshold must not reset the condition tracking.
	f.sample(t, 30, 400)
	f.sample(t, 90, 480)
	f.sample(t, 120, 530)

	if got := len(f.openAlerts(t)); got != 1 {
		t.Fatalf("expected exactly one alert, got %d", got)
	}
}

func TestEvaluatorSkipsUnknownMetric(t *testing.T) {
	rule := overheatRule(0)
	rule.ID = "rule-bad"
	rule.Metric = "oil_pressure"
	f := newEvalFixture(t, rule)

	f.sample(t, 0, 530)
	if got := len(f.openAlerts(t)); got != 0 {
		t.Fatalf("rule with unknown metric must not fire, got %d alerts", got)
	}
}

func TestEvaluatorSkipsRulesForOtherEngines(t *testing.T) {
	rule := overheatRule(0)
	rule.EngineID = "gpu-5"
	f := newEvalFixture(t, rule)

	f.sample(t, 0, 530)
	if got := len(f.openAlerts(t)); got != 0 {
		t.Fatalf("rule scoped to another engine must not fire, got %d alerts", got)
	}
}

func TestEvaluatorUpdatesEngineStatus(t *testing.T) {
	f := newEvalFixture(t)

	f.sample(t, 0, 510)
	engine, err := f.engines.Get(context.Background(), "gpu-2")
	if err != nil {
		t.Fatalf("get engine: %v", err)
	}
	if engine.Status != fleet.StatusWarning {
		t.Fatalf("expected warning status at 510C, got %s", engine.Status)
	}

	f.sample(t, 10, 530)
	engine, _ = f.engines.Get(context.Background(), "gpu-2")
	if engine.Status != fleet.StatusError {
		t.Fatalf("expected error status at 530C, got %s", engine.Status)
	}

	f.sample(t, 20, 450)
	engine, _ = f.engines.Get(context.Background(), "gpu-2")
	if engine.Status != fleet.StatusOK {
		t.Fatalf("expected ok status at 450C, got %s", engine.Status)
	}
}

func TestEvaluatorRecordsEventOnAlert(t *testing.T) {
	f := newEvalFixture(t, overheatRule(0))

	f.sample(t, 0, 530)
	feed, err := f.feed.Latest(context.Background(), 10)
	if err != nil {
		t.Fatalf("feed latest: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("expected one feed event, got %d", len(feed))
	}
	if feed[0].Level != events.LevelError {
		t.Fatalf("critical alert must record an error event, got %s", feed[0].Level)
	}
}

func TestEvaluatorNotifiesOnAlertOpen(t *testing.T) {
	rule := overheatRule(0)
	rule.NotifyPush = true
	f := newEvalFixture(t, rule)

	f.sample(t, 0, 530)
	notified := f.notifier.notified(t)
	if len(notified) != 1 {
		t.Fatalf("expected one notification, got %d", len(notified))
	}
	if notified[0].EngineID != "gpu-2" || notified[0].Severity != alerting.SeverityCritical {
		t.Fatalf("unexpected notified alert: %+v", notified[0])
	}
	f.notifier.mu.Lock()
	gotRule := f.notifier.rules[0]
	f.notifier.mu.Unlock()
	if !gotRule.NotifyPush {
		t.Fatal("notifier must receive the rule with its delivery flags")
	}

	// While the alert stays open no further notifications go out.
	f.sample(t, 10, 540)
	if got := len(f.notifier.notified(t)); got != 1 {
		t.Fatalf("expected no repeat notification, got %d", got)
	}
}

func TestEvaluatorResetStateRestartsTracking(t *testing.T) {
	f := newEvalFixture(t, overheatRule(60))

	f.sample(t, 0, 530)
	f.evaluator.ResetState()

	// Tracking restarts: the breach must be sustained for the full duration
	// again, measured from the first post-reset sample.
	f.sample(t, 30, 540)
	f.sample(t, 60, 545)
	if got := len(f.openAlerts(t)); got != 0 {
		t.Fatalf("expected no alert 30s after reset, got %d", got)
	}
	f.sample(t, 90, 550)
	if got := len(f.openAlerts(t)); got != 1 {
		t.Fatalf("expected alert once duration is met after reset, got %d", got)
	}
}

func TestEvaluatorRejectsInvalidSample(t *testing.T) {
	f := newEvalFixture(t)
	err := f.evaluator.OnSample(context.Background(), telemetry.Sample{EngineID: "gpu-2"})
	if err == nil {
		t.Fatal("expected error for zero-timestamp sample")
	}
}
