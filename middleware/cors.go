package middleware

import (
	"strings"
	"time"

	"traffic-insight-api/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupCORS builds the CORS policy for the planner dashboard. Credentials
// are only allowed when the origin list is explicit.
func SetupCORS(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := strings.Split(cfg.AllowedOrigins, ",")

	base := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}

	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		base.AllowAllOrigins = true
		return cors.New(base)
	}

	base.AllowOrigins = allowedOrigins
	base.AllowCredentials = true
	return cors.New(base)
}
