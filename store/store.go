package store

import (
	"context"
	"errors"
	"time"

	"traffic-insight-api/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store is the persistence handle injected into handlers and services.
// Implementations: Gorm (postgres) for production, Memory for tests.
type Store interface {
	// Readings are append-only facts.
	CreateReading(ctx context.Context, r *models.TrafficReading) error
	LatestReading(ctx context.Context, location string) (models.TrafficReading, error)
	RecentReadings(ctx context.Context, location string, limit int, before *time.Time) ([]models.TrafficReading, error)
	AllReadings(ctx context.Context) ([]models.TrafficReading, error)

	// Insights are a derived cache, upserted by location.
	UpsertInsights(ctx context.Context, insights []models.PlannerInsight) error
	ListInsights(ctx context.Context) ([]models.PlannerInsight, error)
	ClearInsights(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (models.User, error)

	Close() error
}
