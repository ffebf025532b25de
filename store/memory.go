package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"traffic-insight-api/models"
)

// Memory is an in-memory Store used by tests.
type Memory struct {
	mu       sync.Mutex
	readings []models.TrafficReading
	insights map[string]models.PlannerInsight
	users    map[string]models.User
	nextID   uint
}

func NewMemory() *Memory {
	return &Memory{
		insights: map[string]models.PlannerInsight{},
		users:    map[string]models.User{},
		nextID:   1,
	}
}

func (m *Memory) CreateReading(ctx context.Context, r *models.TrafficReading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	m.readings = append(m.readings, *r)
	return nil
}

func (m *Memory) LatestReading(ctx context.Context, location string) (models.TrafficReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.TrafficReading
	for i := range m.readings {
		r := &m.readings[i]
		if r.Location != location {
			continue
		}
		if latest == nil || r.TS.After(latest.TS) {
			latest = r
		}
	}
	if latest == nil {
		return models.TrafficReading{}, ErrNotFound
	}
	return *latest, nil
}

func (m *Memory) RecentReadings(ctx context.Context, location string, limit int, before *time.Time) ([]models.TrafficReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TrafficReading
	for _, r := range m.readings {
		if location != "" && r.Location != location {
			continue
		}
		if before != nil && !r.TS.Before(*before) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TS.After(out[j].TS) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) AllReadings(ctx context.Context) ([]models.TrafficReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TrafficReading, len(m.readings))
	copy(out, m.readings)
	return out, nil
}

func (m *Memory) UpsertInsights(ctx context.Context, insights []models.PlannerInsight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, in := range insights {
		m.insights[in.Location] = in
	}
	return nil
}

func (m *Memory) ListInsights(ctx context.Context) ([]models.PlannerInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	locations := make([]string, 0, len(m.insights))
	for loc := range m.insights {
		locations = append(locations, loc)
	}
	sort.Slice(locations, func(i, j int) bool {
		return strings.Compare(locations[i], locations[j]) < 0
	})
	out := make([]models.PlannerInsight, 0, len(locations))
	for _, loc := range locations {
		out = append(out, m.insights[loc])
	}
	return out, nil
}

func (m *Memory) ClearInsights(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = map[string]models.PlannerInsight{}
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.Email]; exists {
		return ErrDuplicate
	}
	u.ID = m.nextID
	m.nextID++
	if u.Role == "" {
		u.Role = "user"
	}
	u.CreatedAt = time.Now().UTC()
	m.users[u.Email] = *u
	return nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) Close() error { return nil }
