package store

import (
	"context"
	"errors"
	"time"

	"traffic-insight-api/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

// Open connects to postgres, verifies the connection and migrates the schema.
func Open(dsn string) (*Gorm, error) {
	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.TrafficReading{}, &models.PlannerInsight{}, &models.User{}); err != nil {
		return nil, err
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) CreateReading(ctx context.Context, r *models.TrafficReading) error {
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *Gorm) LatestReading(ctx context.Context, location string) (models.TrafficReading, error) {
	var r models.TrafficReading
	err := g.db.WithContext(ctx).
		Where("location = ?", location).
		Order("ts DESC").
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.TrafficReading{}, ErrNotFound
	}
	return r, err
}

func (g *Gorm) RecentReadings(ctx context.Context, location string, limit int, before *time.Time) ([]models.TrafficReading, error) {
	query := g.db.WithContext(ctx).
		Model(&models.TrafficReading{}).
		Order("ts DESC").
		Limit(limit)
	if location != "" {
		query = query.Where("location = ?", location)
	}
	if before != nil {
		query = query.Where("ts < ?", *before)
	}

	var rows []models.TrafficReading
	err := query.Find(&rows).Error
	return rows, err
}

func (g *Gorm) AllReadings(ctx context.Context) ([]models.TrafficReading, error) {
	var rows []models.TrafficReading
	err := g.db.WithContext(ctx).Order("ts ASC").Find(&rows).Error
	return rows, err
}

func (g *Gorm) UpsertInsights(ctx context.Context, insights []models.PlannerInsight) error {
	if len(insights) == 0 {
		return nil
	}
	// Keyed by location: concurrent materializations converge on one row
	// per location instead of duplicating.
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "location"}},
			UpdateAll: true,
		}).
		Create(insights).Error
}

func (g *Gorm) ListInsights(ctx context.Context) ([]models.PlannerInsight, error) {
	var rows []models.PlannerInsight
	err := g.db.WithContext(ctx).Order("location").Find(&rows).Error
	return rows, err
}

func (g *Gorm) ClearInsights(ctx context.Context) error {
	return g.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.PlannerInsight{}).Error
}

func (g *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	err := g.db.WithContext(ctx).Create(u).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (g *Gorm) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, ErrNotFound
	}
	return u, err
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
