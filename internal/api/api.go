package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/api/handlers"
	"github.com/andresuchdata/autopo-py/planner-go/internal/api/middleware"
	"github.com/andresuchdata/autopo-py/planner-go/internal/drive"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Planner  *service.PlannerService
	Sessions *session.Store
	Drive    drive.Source // optional
}

type Options struct {
	AllowedOrigins []string
	UploadRate     string
	MaxUploadMB    int64
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services == nil || services.Planner == nil || services.Sessions == nil {
		return router
	}

	uploadLimit := func(c *gin.Context) { c.Next() }
	if opts.UploadRate != "" {
		limit, err := middleware.RateLimit(opts.UploadRate)
		if err != nil {
			log.Warn().Err(err).Msg("Upload rate limiting disabled")
		} else {
			uploadLimit = limit
		}
	}

	sessionHandler := handlers.NewSessionHandler(services.Sessions, services.Drive, opts.MaxUploadMB)
	planHandler := handlers.NewPlanHandler(services.Sessions, services.Planner)

	sessionGroup := apiGroup.Group("/sessions")
	{
		sessionGroup.POST("", sessionHandler.CreateSession)
		sessionGroup.GET("/:id", sessionHandler.GetSession)
		sessionGroup.DELETE("/:id", sessionHandler.DeleteSession)
		sessionGroup.PUT("/:id/tables/:kind", uploadLimit, sessionHandler.UploadTable)
		sessionGroup.DELETE("/:id/tables/:kind", sessionHandler.RemoveTable)
		sessionGroup.POST("/:id/drive/import", uploadLimit, sessionHandler.ImportDrive)
		sessionGroup.GET("/:id/plan", planHandler.GetPlan)
		sessionGroup.GET("/:id/export", planHandler.Export)
	}
	apiGroup.POST("/eoq/dynamic", planHandler.DynamicEOQ)

	if services.Drive != nil {
		driveRouter := drive.NewHandler(services.Drive).Router("/api/v1/drive")
		apiGroup.Any("/drive/*path", gin.WrapH(driveRouter))
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
