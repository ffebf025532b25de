package services

import (
	"context"

	"traffic-insight-api/models"
	"traffic-insight-api/store"
)

// InsightService owns the planner-insight cache: lazy materialization on
// first read and explicit recomputation. All writes go through a
// location-keyed upsert, so concurrent callers converge instead of
// duplicating rows.
type InsightService struct {
	store store.Store
}

func NewInsightService(st store.Store) *InsightService {
	return &InsightService{store: st}
}

// Ensure returns the persisted insights, computing and persisting them first
// if none exist yet. It does not refresh existing insights.
func (s *InsightService) Ensure(ctx context.Context) ([]models.PlannerInsight, error) {
	existing, err := s.store.ListInsights(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}
	return s.Recompute(ctx)
}

// Recompute rebuilds every insight from the full reading history and
// persists the result, dropping insights for locations that no longer have
// readings.
func (s *InsightService) Recompute(ctx context.Context) ([]models.PlannerInsight, error) {
	readings, err := s.store.AllReadings(ctx)
	if err != nil {
		return nil, err
	}

	insights := GenerateInsights(readings)

	if err := s.store.ClearInsights(ctx); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInsights(ctx, insights); err != nil {
		return nil, err
	}
	return insights, nil
}
