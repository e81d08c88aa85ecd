package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mostwatchedlist/internal/auth"
	"mostwatchedlist/internal/config"
	apphttp "mostwatchedlist/internal/http"
	"mostwatchedlist/internal/repository/sqlite"
	"mostwatchedlist/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	tokenTTL, err := time.ParseDuration(cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatalf("parse token ttl: %v", err)
	}
	queryTimeout, err := time.ParseDuration(cfg.Database.QueryTimeout)
	if err != nil {
		logger.Fatalf("parse query timeout: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	movieRepo := sqlite.NewMovieRepository(db)

	if err := movieRepo.Init(ctx); err != nil {
		logger.Fatalf("init movie repository: %v", err)
	}
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	userService := service.NewUserService(userRepo, movieRepo, queryTimeout)
	movieService := service.NewMovieService(movieRepo, queryTimeout)

	if cfg.Database.SeedPath != "" {
		seeded, err := movieService.SeedFromFile(ctx, cfg.Database.SeedPath)
		if err != nil {
			logger.Fatalf("seed catalog: %v", err)
		}
		if seeded > 0 {
			logger.Infof("seeded %d movies from %s", seeded, cfg.Database.SeedPath)
		}
	}

	codec := auth.NewCodec(cfg.Auth.JWTSecret, tokenTTL)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(apphttp.RequestLogger(buildAccessLogger(cfg, logger)))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(static.Serve("/public", static.LocalFile(cfg.Docs.Dir, false)))

	handler := apphttp.NewHandler(userService, movieService, codec, cfg.Docs.Dir)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// buildAccessLogger returns a dedicated logger appending to the configured
// access log file, falling back to the app logger when unset or unopenable.
func buildAccessLogger(cfg config.Config, fallback *logrus.Logger) *logrus.Logger {
	if cfg.Log.AccessPath == "" {
		return fallback
	}

	file, err := os.OpenFile(cfg.Log.AccessPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fallback.Warnf("open access log: %v", err)
		return fallback
	}

	accessLogger := logrus.New()
	accessLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	accessLogger.SetOutput(file)
	return accessLogger
}
