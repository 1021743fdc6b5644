package app

import (
	"net/http"
	"time"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/config"
	"go-leave/internal/shared/connection"
	"go-leave/internal/shared/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the stores and mounts every route on router. The
// returned func releases the connections.
func BuildApp(router *gin.Engine, cfg config.Config) (func(), error) {
	logger := zap.L().Named("app")

	// 1. Setup Infrastructure
	db, err := connectDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("redis connection established")

	cleanup := func() {
		_ = redisClient.Close()
		db.Close()
	}

	// 2. Global middleware
	router.Use(middleware.RequestID())
	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderRequestID, middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{middleware.HeaderRequestID, middleware.HeaderIdempotentHit},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	})

	api := router.Group("/api/v1")
	api.Use(
		middleware.RateLimitByIP(clientRate, clientBurst),
		middleware.AuthMiddleware(cfg.JWTSecret),
		middleware.ExtractUserID(),
		middleware.ContextLogger(logger),
	)

	// 3. Register Modules & Routes
	if err := registerModules(api, cfg, db.sqlDB, db.gormDB, redisClient, logger); err != nil {
		cleanup()
		return nil, err
	}

	return cleanup, nil
}
