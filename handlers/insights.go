package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"traffic-insight-api/metrics"
	"traffic-insight-api/models"
	"traffic-insight-api/services"

	"github.com/gin-gonic/gin"
)

const insightsCacheKey = "planner:insights"

type InsightsHandler struct {
	insights *services.InsightService
	cache    *services.CacheService
}

func NewInsightsHandler(insights *services.InsightService, cache *services.CacheService) *InsightsHandler {
	return &InsightsHandler{insights: insights, cache: cache}
}

// Get returns the persisted planner insights, materializing them from the
// reading history on first access.
func (h *InsightsHandler) Get(c *gin.Context) {
	var cached struct {
		Data []models.PlannerInsight `json:"data"`
	}
	if err := h.cache.Get(c.Request.Context(), insightsCacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	insights, err := h.insights.Ensure(c.Request.Context())
	if err != nil {
		log.Printf("insight materialization failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load insights"})
		return
	}
	if insights == nil {
		insights = []models.PlannerInsight{}
	}

	resp := gin.H{"data": insights}
	go h.cache.Set(context.Background(), insightsCacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

// Recompute rebuilds insights from the full reading history. It is the
// explicit refresh trigger; plain reads never pick up new readings.
func (h *InsightsHandler) Recompute(c *gin.Context) {
	insights, err := h.insights.Recompute(c.Request.Context())
	if err != nil {
		log.Printf("insight recompute failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to recompute insights"})
		return
	}
	metrics.InsightRecomputes.Inc()

	if insights == nil {
		insights = []models.PlannerInsight{}
	}

	go h.cache.Delete(context.Background(), insightsCacheKey)

	c.JSON(http.StatusOK, gin.H{"data": insights})
}
