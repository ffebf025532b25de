package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"traffic-insight-api/metrics"
	"traffic-insight-api/models"
	"traffic-insight-api/services"
	"traffic-insight-api/store"

	"github.com/gin-gonic/gin"
)

type TrafficHandler struct {
	store     store.Store
	cache     *services.CacheService
	predictor services.SignalPredictor
}

func NewTrafficHandler(st store.Store, cache *services.CacheService, predictor services.SignalPredictor) *TrafficHandler {
	return &TrafficHandler{store: st, cache: cache, predictor: predictor}
}

type IngestRequest struct {
	Location        string `json:"location" binding:"required"`
	VehicleCount    *int   `json:"vehicle_count" binding:"required,gte=0"`
	AccidentReports int    `json:"accident_reports" binding:"gte=0"`
}

// Ingest enriches a raw reading (congestion tier, safety score, signal
// timing from the external predictor) and persists it. The predictor runs
// first: if it fails, nothing is committed.
func (h *TrafficHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	prediction, err := h.predictor.PredictSignalTiming(c.Request.Context(), *req.VehicleCount)
	metrics.PredictorDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PredictorFailures.Inc()
		log.Printf("predictor failed for location %s: %v", req.Location, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signal timing prediction failed"})
		return
	}

	reading := models.TrafficReading{
		Location:        req.Location,
		TS:              time.Now().UTC(),
		VehicleCount:    *req.VehicleCount,
		AccidentReports: req.AccidentReports,
		SignalTiming:    prediction.SignalTiming,
		CongestionLevel: services.ClassifyCongestion(*req.VehicleCount),
		SafetyScore:     services.ComputeSafetyScore(*req.VehicleCount, req.AccidentReports),
	}

	if err := h.store.CreateReading(c.Request.Context(), &reading); err != nil {
		log.Printf("failed to store reading for %s: %v", req.Location, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store reading"})
		return
	}
	metrics.ReadingsIngested.Inc()

	go h.cache.Publish(context.Background(), services.LiveChannel, reading)

	c.JSON(http.StatusCreated, reading)
}

// GetStatus returns the most recent reading for a location.
func (h *TrafficHandler) GetStatus(c *gin.Context) {
	location := c.Param("location")
	cacheKey := fmt.Sprintf("traffic:status:%s", location)

	var cached models.TrafficReading
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Location != "" {
		c.JSON(http.StatusOK, cached)
		return
	}

	reading, err := h.store.LatestReading(c.Request.Context(), location)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "no readings recorded for location " + location})
		return
	}
	if err != nil {
		log.Printf("latest reading query failed for %s: %v", location, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	go h.cache.Set(context.Background(), cacheKey, reading, 5*time.Second)

	c.JSON(http.StatusOK, reading)
}

// GetLive returns the most recent readings across all locations,
// cursor-paginated by timestamp.
func (h *TrafficHandler) GetLive(c *gin.Context) {
	p := ParsePagination(c)
	location := c.Query("location")

	beforeStr := ""
	if p.Before != nil {
		beforeStr = p.Before.Format(time.RFC3339Nano)
	}
	cacheKey := fmt.Sprintf("traffic:live:%s:%d:%s", location, p.Limit, beforeStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	rows, err := h.store.RecentReadings(c.Request.Context(), location, p.Limit+1, p.Before)
	if err != nil {
		log.Printf("recent readings query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = rows[len(rows)-1].TS.Format(time.RFC3339Nano)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 5*time.Second)

	c.JSON(http.StatusOK, resp)
}
