package services

import (
	"context"
	"testing"
	"time"

	"traffic-insight-api/models"
	"traffic-insight-api/store"
)

func seedReading(t *testing.T, st store.Store, location string, count, accidents int) {
	t.Helper()
	err := st.CreateReading(context.Background(), &models.TrafficReading{
		Location:        location,
		TS:              time.Now().UTC(),
		VehicleCount:    count,
		AccidentReports: accidents,
	})
	if err != nil {
		t.Fatalf("seed reading: %v", err)
	}
}

func TestInsightServiceEnsureMaterializesOnce(t *testing.T) {
	st := store.NewMemory()
	svc := NewInsightService(st)
	ctx := context.Background()

	seedReading(t, st, "broadway", 10, 0)
	seedReading(t, st, "broadway", 30, 6)

	first, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("got %d insights, want 1", len(first))
	}

	// A second call with no new readings must not duplicate records.
	second, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure (second): %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("got %d insights after second Ensure, want 1", len(second))
	}
}

func TestInsightServiceEnsureDoesNotRefresh(t *testing.T) {
	st := store.NewMemory()
	svc := NewInsightService(st)
	ctx := context.Background()

	seedReading(t, st, "broadway", 10, 0)
	if _, err := svc.Ensure(ctx); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	// New readings after materialization are invisible until an explicit
	// recompute.
	seedReading(t, st, "elm-st", 60, 0)
	insights, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("Ensure refreshed lazily: got %d insights, want stale 1", len(insights))
	}

	insights, err = svc.Recompute(ctx)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("got %d insights after Recompute, want 2", len(insights))
	}
}

func TestInsightServiceRecomputeDropsStaleLocations(t *testing.T) {
	st := store.NewMemory()
	svc := NewInsightService(st)
	ctx := context.Background()

	// Insight for a location with no remaining readings must disappear on
	// recompute.
	err := st.UpsertInsights(ctx, []models.PlannerInsight{
		{Location: "ghost-rd", AverageCongestion: models.CongestionHigh},
	})
	if err != nil {
		t.Fatalf("seed insight: %v", err)
	}
	seedReading(t, st, "broadway", 25, 0)

	insights, err := svc.Recompute(ctx)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if len(insights) != 1 || insights[0].Location != "broadway" {
		t.Fatalf("insights = %v, want only broadway", insights)
	}
}

func TestInsightServiceEmptyHistory(t *testing.T) {
	st := store.NewMemory()
	svc := NewInsightService(st)

	insights, err := svc.Ensure(context.Background())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if len(insights) != 0 {
		t.Errorf("got %d insights for empty history, want 0", len(insights))
	}
}
