package api

import (
	"strings"
	"time"

	"github.com/andresuchdata/replenishment/internal/api/handlers"
	"github.com/andresuchdata/replenishment/internal/api/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Replenishment handlers.ReplenishmentService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		origins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(origins) > 0 {
			corsConfig.AllowOrigins = origins
		}
	}
	router.Use(cors.New(corsConfig))

	if services == nil || services.Replenishment == nil {
		return router
	}

	h := handlers.NewReplenishmentHandler(services.Replenishment)
	router.GET("/health", h.GetHealth)

	group := router.Group("/api/v1/replenishment")
	{
		group.GET("/ranking", h.GetRanking)
		group.GET("/top", h.GetTop)
		group.GET("/unranked", h.GetUnranked)
		group.GET("/monthly", h.GetMonthly)
		group.GET("/dashboard", h.GetDashboard)
		group.POST("/refresh", h.PostRefresh)
	}

	return router
}

// normalizeAllowedOrigins flattens comma-separated entries; "*" allows every origin
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			switch trimmed {
			case "":
			case "*":
				allowAll = true
			default:
				parsed = append(parsed, trimmed)
			}
		}
	}
	return parsed, allowAll
}
