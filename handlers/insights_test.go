package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"traffic-insight-api/config"
	"traffic-insight-api/middleware"
	"traffic-insight-api/models"
	"traffic-insight-api/services"
	"traffic-insight-api/store"

	"github.com/gin-gonic/gin"
)

type insightsFixture struct {
	router *gin.Engine
	store  *store.Memory
	auth   *services.AuthService
}

func newInsightsFixture() *insightsFixture {
	gin.SetMode(gin.TestMode)
	st := store.NewMemory()
	auth := services.NewAuthService(config.JWTConfig{Secret: "test-secret", ExpiryHours: 1})
	h := NewInsightsHandler(services.NewInsightService(st), &services.CacheService{})

	router := gin.New()
	router.GET("/planner-insights", h.Get)
	router.POST("/planner-insights/recompute", middleware.RequireAuth(auth), h.Recompute)

	return &insightsFixture{router: router, store: st, auth: auth}
}

func (f *insightsFixture) seed(t *testing.T, location string, count, accidents int) {
	t.Helper()
	err := f.store.CreateReading(context.Background(), &models.TrafficReading{
		Location:        location,
		TS:              time.Now().UTC(),
		VehicleCount:    count,
		AccidentReports: accidents,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (f *insightsFixture) get(t *testing.T) []models.PlannerInsight {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/planner-insights", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /planner-insights: got %d, body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data []models.PlannerInsight `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.Data
}

func TestInsightsLazyMaterialization(t *testing.T) {
	f := newInsightsFixture()
	f.seed(t, "broadway", 10, 0)
	f.seed(t, "broadway", 30, 6)
	f.seed(t, "elm-st", 60, 0)

	insights := f.get(t)
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2", len(insights))
	}

	byLoc := map[string]models.PlannerInsight{}
	for _, in := range insights {
		byLoc[in.Location] = in
	}

	broadway := byLoc["broadway"]
	if broadway.AverageCongestion != models.CongestionMedium {
		t.Errorf("broadway AverageCongestion = %s, want Medium", broadway.AverageCongestion)
	}
	if len(broadway.HighAccidentZones) != 1 || broadway.HighAccidentZones[0] != "broadway" {
		t.Errorf("broadway HighAccidentZones = %v, want [broadway]", broadway.HighAccidentZones)
	}
	if byLoc["elm-st"].AverageCongestion != models.CongestionHigh {
		t.Errorf("elm-st AverageCongestion = %s, want High", byLoc["elm-st"].AverageCongestion)
	}
}

func TestInsightsRepeatedGetDoesNotDuplicate(t *testing.T) {
	f := newInsightsFixture()
	f.seed(t, "broadway", 10, 0)

	first := f.get(t)
	second := f.get(t)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("insight counts = %d then %d, want 1 and 1", len(first), len(second))
	}
}

func TestInsightsGetIsStaleUntilRecompute(t *testing.T) {
	f := newInsightsFixture()
	f.seed(t, "broadway", 10, 0)
	f.get(t)

	f.seed(t, "elm-st", 60, 0)
	if insights := f.get(t); len(insights) != 1 {
		t.Fatalf("plain GET picked up new readings: got %d insights, want 1", len(insights))
	}

	token, err := f.auth.GenerateToken(1, "planner@city.gov", "user")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/planner-insights/recompute", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	f.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("recompute: got %d, body %s", rr.Code, rr.Body.String())
	}

	if insights := f.get(t); len(insights) != 2 {
		t.Fatalf("got %d insights after recompute, want 2", len(insights))
	}
}

func TestInsightsRecomputeRequiresAuth(t *testing.T) {
	f := newInsightsFixture()

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/planner-insights/recompute", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d without token, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/planner-insights/recompute", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	f.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("got %d with bad token, want 401", rr.Code)
	}
}

func TestInsightsEmptyHistory(t *testing.T) {
	f := newInsightsFixture()
	if insights := f.get(t); len(insights) != 0 {
		t.Errorf("got %d insights with no readings, want 0", len(insights))
	}
}
