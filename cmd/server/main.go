package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/autopo-py/planner-go/internal/api"
	"github.com/andresuchdata/autopo-py/planner-go/internal/cache"
	"github.com/andresuchdata/autopo-py/planner-go/internal/config"
	"github.com/andresuchdata/autopo-py/planner-go/internal/drive"
	"github.com/andresuchdata/autopo-py/planner-go/internal/service"
	"github.com/andresuchdata/autopo-py/planner-go/internal/session"
	"github.com/andresuchdata/autopo-py/planner-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Log.Level)
	if err := logger.EnableFileSink(logger.FileSink{Dir: cfg.Log.Dir, Name: "planner-server.log"}); err != nil {
		logger.Log.Warn().Err(err).Msg("File logging disabled")
	}
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	planner := service.NewPlannerService(cfg.Planning, cache.NewPlanCache(cfg.Cache))
	sessions := session.NewStore(time.Duration(cfg.App.SessionTTL) * time.Minute)
	go sweepSessions(ctx, sessions)

	services := &api.Services{Planner: planner, Sessions: sessions}
	if cfg.Drive.CredentialsFile != "" {
		driveService, err := drive.NewServiceFromFile(ctx, cfg.Drive.CredentialsFile)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Google Drive disabled")
		} else {
			services.Drive = driveService
		}
	}

	router := api.NewRouter(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadRate:     cfg.Server.UploadRate,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}

// sweepSessions drops idle upload sessions every few minutes.
func sweepSessions(ctx context.Context, sessions *session.Store) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Log.Info().Int("removed", n).Int("active", sessions.Len()).Msg("Expired sessions swept")
			}
		}
	}
}
