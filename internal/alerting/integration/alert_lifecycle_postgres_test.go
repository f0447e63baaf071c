package integration_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	alerting "energyguard/internal/alerting/domain"
	alertpostgres "energyguard/internal/alerting/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if !tableExists(db, "alerts") {
		t.Skip("missing tables; run migrations")
	}
	return db
}

func tableExists(db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)", name).Scan(&exists)
	return err == nil && exists
}

func seedAlert(t *testing.T, db *sql.DB, repo *alertpostgres.AlertRepository, id string) {
	t.Helper()
	ctx := context.Background()
	_, _ = db.ExecContext(ctx, "DELETE FROM alerts WHERE id = $1", id)
	err := repo.Insert(ctx, &alerting.Alert{
		ID:        id,
		EngineID:  "gpu-it",
		Severity:  alerting.SeverityCritical,
		Status:    alerting.StatusActive,
		Title:     "Exhaust overheat",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		t.Fatalf("insert alert: %v", err)
	}
	t.Cleanup(func() { _, _ = db.ExecContext(context.Background(), "DELETE FROM alerts WHERE id = $1", id) })
}

func TestAlertLifecycle_Postgres(t *testing.T) {
	db := openTestDB(t)
	repo := alertpostgres.NewAlertRepository(db)
	ctx := context.Background()

	seedAlert(t, db, repo, "it-alert-1")

	now := time.Now().UTC().Truncate(time.Microsecond)
	ok, err := repo.Acknowledge(ctx, "it-alert-1", "operator-7", now)
	if err != nil || !ok {
		t.Fatalf("acknowledge: ok=%v err=%v", ok, err)
	}
	// A second acknowledge must lose the conditional update.
	ok, err = repo.Acknowledge(ctx, "it-alert-1", "operator-8", now)
	if err != nil || ok {
		t.Fatalf("double acknowledge: ok=%v err=%v", ok, err)
	}

	ok, err = repo.Resolve(ctx, "it-alert-1", "operator-7", now.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	alert, err := repo.GetByID(ctx, "it-alert-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if alert.Status != alerting.StatusResolved || alert.AcknowledgedBy != "operator-7" {
		t.Fatalf("unexpected final state: %+v", alert)
	}
}

func TestResolveBackfillsAcknowledgement_Postgres(t *testing.T) {
	db := openTestDB(t)
	repo := alertpostgres.NewAlertRepository(db)
	ctx := context.Background()

	seedAlert(t, db, repo, "it-alert-2")

	at := time.Now().UTC().Truncate(time.Microsecond)
	ok, err := repo.Resolve(ctx, "it-alert-2", "operator-3", at)
	if err != nil || !ok {
		t.Fatalf("resolve: ok=%v err=%v", ok, err)
	}
	alert, err := repo.GetByID(ctx, "it-alert-2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if alert.AcknowledgedBy != "operator-3" || alert.AcknowledgedAt.IsZero() {
		t.Fatalf("resolve must backfill acknowledgement: %+v", alert)
	}
}

func TestConcurrentAcknowledge_Postgres(t *testing.T) {
	db := openTestDB(t)
	repo := alertpostgres.NewAlertRepository(db)

	seedAlert(t, db, repo, "it-alert-3")

	const racers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Acknowledge(context.Background(), "it-alert-3", "racer", time.Now().UTC())
			if err != nil {
				t.Errorf("acknowledge: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one acknowledge to win, got %d", wins)
	}
}
