package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traffic-insight-api/config"
	"traffic-insight-api/handlers"
	"traffic-insight-api/middleware"
	"traffic-insight-api/services"
	"traffic-insight-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.Open(cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		// Degraded mode: reads skip the cache and the live websocket is off.
		log.Printf("Redis unavailable, running without cache: %v", err)
	}
	defer cache.Close()

	authService := services.NewAuthService(cfg.JWT)
	predictor := services.NewProcessPredictor(cfg.Predictor)
	insightService := services.NewInsightService(st)

	trafficHandler := handlers.NewTrafficHandler(st, cache, predictor)
	insightsHandler := handlers.NewInsightsHandler(insightService, cache)
	authHandler := handlers.NewAuthHandler(st, authService)

	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "UP",
			"message": "Traffic Insight API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	router.POST("/traffic-data", trafficHandler.Ingest)
	router.GET("/live-traffic", trafficHandler.GetLive)
	// Legacy deployments exposed the status lookup under several names.
	router.GET("/traffic-status/:location", trafficHandler.GetStatus)
	router.GET("/traffic-safety/:location", trafficHandler.GetStatus)
	router.GET("/signal-timings/:location", trafficHandler.GetStatus)

	router.GET("/planner-insights", insightsHandler.Get)
	router.GET("/insights", insightsHandler.Get)
	router.POST("/planner-insights/recompute",
		middleware.RequireAuth(authService), insightsHandler.Recompute)

	router.GET("/live", handlers.LiveWebSocket(cache, authService))

	// Optional scheduled insight refresh.
	if spec := cfg.Insights.RefreshCron; spec != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(spec, func() {
			if _, err := insightService.Recompute(context.Background()); err != nil {
				log.Printf("scheduled insight recompute failed: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Invalid INSIGHT_REFRESH_CRON %q: %v", spec, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("insight refresh scheduled: %s", spec)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
