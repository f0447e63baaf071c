package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	workorders "energyguard/internal/workorders/domain"
	workordermemory "energyguard/internal/workorders/infrastructure/memory"
)

var orderAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type orderClock struct{}

func (orderClock) Now() time.Time { return orderAt }

func newOrderFixture() *WorkOrderService {
	return NewWorkOrderService(workordermemory.NewWorkOrderRepository(), orderClock{}, zerolog.Nop())
}

func validOrderSpec() WorkOrderSpec {
	return WorkOrderSpec{
		EngineID:    "gpu-2",
		Title:       "Replace spark plugs",
		Description: "Cylinder 4 misfire under load",
	}
}

func TestCreateWorkOrderDefaults(t *testing.T) {
	service := newOrderFixture()

	order, err := service.Create(context.Background(), validOrderSpec(), "op")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected generated id")
	}
	if order.Status != workorders.StatusOpen {
		t.Fatalf("status = %s, want open", order.Status)
	}
	if order.Priority != workorders.PriorityMedium {
		t.Fatalf("priority = %s, want default medium", order.Priority)
	}
	if order.CreatedBy != "op" || order.CreatedAt != orderAt {
		t.Fatalf("unexpected provenance: %+v", order)
	}

	stored, err := service.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "Replace spark plugs" {
		t.Fatalf("unexpected stored order: %+v", stored)
	}
}

func TestCreateWorkOrderRejectsInvalidSpec(t *testing.T) {
	service := newOrderFixture()

	spec := validOrderSpec()
	spec.Title = ""
	if _, err := service.Create(context.Background(), spec, "op"); err == nil {
		t.Fatal("expected error for empty title")
	}

	spec = validOrderSpec()
	spec.Priority = "urgent"
	if _, err := service.Create(context.Background(), spec, "op"); err == nil {
		t.Fatal("expected error for unknown priority")
	}
}

func TestTransitionWorkOrder(t *testing.T) {
	service := newOrderFixture()
	order, err := service.Create(context.Background(), validOrderSpec(), "op")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	moved, err := service.Transition(context.Background(), order.ID, workorders.StatusInProgress, "op")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if moved.Status != workorders.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", moved.Status)
	}

	done, err := service.Transition(context.Background(), order.ID, workorders.StatusCompleted, "op")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt.IsZero() {
		t.Fatal("completion must stamp completed_at")
	}
}

func TestTransitionClosedOrderFails(t *testing.T) {
	service := newOrderFixture()
	order, err := service.Create(context.Background(), validOrderSpec(), "op")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Transition(context.Background(), order.ID, workorders.StatusCancelled, "op"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := service.Transition(context.Background(), order.ID, workorders.StatusOpen, "op"); err == nil {
		t.Fatal("cancelled orders must be terminal")
	}
	if _, err := service.Assign(context.Background(), order.ID, "tech-2", "op"); err == nil {
		t.Fatal("cancelled orders must not accept assignment")
	}
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	service := newOrderFixture()
	order, err := service.Create(context.Background(), validOrderSpec(), "op")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Transition(context.Background(), order.ID, "archived", "op"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestAssignWorkOrder(t *testing.T) {
	service := newOrderFixture()
	order, err := service.Create(context.Background(), validOrderSpec(), "op")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assigned, err := service.Assign(context.Background(), order.ID, "tech-2", "op")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.AssignedTo != "tech-2" {
		t.Fatalf("assigned_to = %s, want tech-2", assigned.AssignedTo)
	}
}

func TestWorkOrderNotFound(t *testing.T) {
	service := newOrderFixture()

	if _, err := service.Get(context.Background(), "missing"); !errors.Is(err, workorders.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
	if _, err := service.Transition(context.Background(), "missing", workorders.StatusCompleted, "op"); !errors.Is(err, workorders.ErrNotFound) {
		t.Fatalf("transition: expected ErrNotFound, got %v", err)
	}
	if _, err := service.Assign(context.Background(), "missing", "tech-2", "op"); !errors.Is(err, workorders.ErrNotFound) {
		t.Fatalf("assign: expected ErrNotFound, got %v", err)
	}
}

func TestWorkOrderStats(t *testing.T) {
	service := newOrderFixture()

	first, err := service.Create(context.Background(), validOrderSpec(), "op")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	critical := validOrderSpec()
	critical.Priority = workorders.PriorityCritical
	if _, err := service.Create(context.Background(), critical, "op"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.Transition(context.Background(), first.ID, workorders.StatusInProgress, "op"); err != nil {
		t.Fatalf("transition: %v", err)
	}

	stats, err := service.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Open != 1 || stats.InProgress != 1 || stats.Critical != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
