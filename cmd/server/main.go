package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/analysis"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/cache"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/config"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/errors"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/middleware"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/monitoring"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/ratelimit"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/security"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
)

var startTime = time.Now()

// server bundles the long-lived dependencies the handlers close over.
type server struct {
	engine      *analysis.Engine
	cache       *cache.Cache
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	limiter     *ratelimit.RateLimiter
	compression *middleware.Compression
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	redisClient, err := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with in-memory rate limiting", "error", err)
	}

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()
	appLogger.SetLevel(cfg.SlogLevel())

	srv := &server{
		engine:  analysis.NewEngine(),
		cache:   cache.NewCache(cfg.Cache.TTL),
		metrics: appMetrics,
		logger:  appLogger,
		limiter: ratelimit.NewRateLimiter(redisClient, ratelimit.Config{
			IPLimitPerMin:   cfg.RateLimit.IPPerMin,
			BurstMultiplier: cfg.RateLimit.BurstMultiplier,
		}, appMetrics),
		compression: middleware.NewCompression(gzip.DefaultCompression),
	}

	r := setupRouter(srv, cfg.CORS.AllowedOrigins)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	errors.SafeClose(redisClient, "redis client")

	slog.Info("Server exited")
}

// setupRouter assembles the middleware chain and routes. Kept separate from
// main so tests can stand up the full stack against httptest.
func setupRouter(s *server, allowedOrigins []string) *gin.Engine {
	r := gin.New()

	// Monitoring first so every request is captured
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))

	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	securityMiddleware := security.NewSecurityMiddleware(security.DefaultSecurityConfig())
	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.LimitBodySize)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	r.Use(s.limiter.IPRateLimitMiddleware())
	r.Use(s.compression.Handler())
	r.Use(s.cache.Middleware(s.metrics))

	r.GET("/health", s.handleHealth)
	r.POST("/calculate", s.handleCalculate)
	r.POST("/calculate/batch", s.handleCalculateBatch)
	r.POST("/reset", s.handleReset)
	r.GET("/history", s.handleHistory)
	r.GET("/history/:userId", s.handleHistory)
	r.GET("/stats", s.handleStats)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)

	return r
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"message":   "survey scoring API is running",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().Format(time.RFC3339),
		"metrics":   s.metrics.GetStats(),
	})
}

func (s *server) handleCalculate(c *gin.Context) {
	start := time.Now()

	var rec types.TelemetryRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		s.metrics.IncrementValidationFailure()
		respondError(c, decodeError(err))
		return
	}

	scores, err := s.engine.Score(&rec, true)
	if err != nil {
		s.metrics.IncrementValidationFailure()
		respondError(c, err)
		return
	}

	s.metrics.IncrementCalculation()
	s.cache.Clear() // history and stats snapshots are stale now

	s.logger.ScoringLogger(rec.Metadata.UserID, rec.Metadata.QuestionID,
		scores.SCI, scores.UEI, scores.SEI, time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"data":     scores,
		"metadata": rec.Metadata,
	})
}

func (s *server) handleCalculateBatch(c *gin.Context) {
	start := time.Now()

	var req types.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.metrics.IncrementValidationFailure()
		respondError(c, decodeError(err))
		return
	}

	if req.Questions == nil {
		s.metrics.IncrementValidationFailure()
		respondError(c, errors.NewValidationError("no questions array provided"))
		return
	}

	// One failed question must not abort the batch; failures are captured
	// in place so results stay aligned with the request order.
	results := make([]gin.H, 0, len(req.Questions))
	failed := 0
	for i := range req.Questions {
		rec := &req.Questions[i]

		scores, err := s.engine.Score(rec, true)
		if err != nil {
			failed++
			appErr := errors.ToAppError(err)
			results = append(results, gin.H{
				"error":    appErr.Error(),
				"metadata": rec.Metadata,
			})
			continue
		}

		results = append(results, gin.H{
			"SCI":      scores.SCI,
			"UEI":      scores.UEI,
			"SEI":      scores.SEI,
			"metadata": rec.Metadata,
		})
	}

	s.metrics.IncrementBatchCalculation()
	s.cache.Clear()
	s.logger.BatchLogger(len(req.Questions), failed, time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   results,
	})
}

func (s *server) handleReset(c *gin.Context) {
	s.engine.Reset()
	s.metrics.IncrementHistoryReset()
	s.cache.Clear()

	s.logger.SystemLogger("history_reset", "session history cleared")

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "History reset successfully",
	})
}

func (s *server) handleHistory(c *gin.Context) {
	entries := s.engine.History(c.Param("userId"))

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   entries,
	})
}

func (s *server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   s.engine.SessionStats(),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics":     s.metrics.GetStats(),
		"rate_limit":  s.limiter.GetStats(),
		"compression": s.compression.GetStats(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}

func (s *server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.cache.Stats())
}

// decodeError classifies a JSON bind failure. A field of the wrong shape
// (hoverCounts as an array, trajectory as a string) is a malformed record;
// anything else is a plain validation failure.
func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return errors.NewMalformedRecordError(field, err)
	}
	return errors.NewValidationError("invalid request body: " + err.Error())
}

func respondError(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, gin.H{
		"status":  "error",
		"message": appErr.Error(),
	})
}
