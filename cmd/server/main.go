package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/safetrek/safety-backend/internal/config"
	"github.com/safetrek/safety-backend/internal/database"
	"github.com/safetrek/safety-backend/internal/handlers"
	"github.com/safetrek/safety-backend/internal/middleware"
	"github.com/safetrek/safety-backend/internal/services"
	"github.com/safetrek/safety-backend/pkg/jwt"
	"github.com/safetrek/safety-backend/pkg/push"
	"github.com/safetrek/safety-backend/pkg/validator"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SafeTrek Safety Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	guardianRepo := database.NewGuardianRepository(db)
	tripRepo := database.NewTripRepository(db)
	alertRepo := database.NewAlertRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	auditLogRepo := database.NewAuditLogRepository(db)

	// Initialize push gateway
	var pushGateway push.Gateway
	if cfg.Push.Mode == "production" {
		logger.Info("Initializing FCM push gateway in production mode...")
		pushGateway = push.NewFCMGateway(push.FCMConfig{
			APIURL:    cfg.Push.APIURL,
			ServerKey: cfg.Push.ServerKey,
			Timeout:   cfg.Push.Timeout,
		})
	} else {
		logger.Info("Push gateway in development mode (no actual pushes will be sent)")
		pushGateway = push.NewLogGateway(logger)
	}

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	phoneValidator := validator.NewPhoneValidator()
	auditService := services.NewAuditService(auditLogRepo, logger, cfg.Security.EnableAuditLog)
	authService := services.NewAuthService(userRepo, logger, cfg.Security.BcryptCost)
	pinService := services.NewPinService(userRepo, logger, cfg.Security.BcryptCost)
	guardianService := services.NewGuardianService(guardianRepo, userRepo, notificationRepo, pushGateway, logger)
	tripService := services.NewTripService(tripRepo, userRepo, logger)
	emergencyService := services.NewEmergencyService(userRepo, guardianRepo, tripRepo, alertRepo, notificationRepo, pushGateway, logger)
	notificationService := services.NewNotificationService(notificationRepo, guardianRepo, logger)

	// Initialize and start the trip overdue watchdog
	watchdog := services.NewTripWatchdogService(
		tripRepo,
		userRepo,
		notificationRepo,
		pushGateway,
		logger,
		cfg.Watchdog.Interval,
		cfg.Watchdog.BatchSize,
	)
	if cfg.Watchdog.Enabled {
		watchdog.Start()
		logger.Info("Trip watchdog started")
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, auditService, jwtService, phoneValidator)
	userHandler := handlers.NewUserHandler(authService, pinService)
	tripHandler := handlers.NewTripHandler(tripService, pinService, auditService)
	emergencyHandler := handlers.NewEmergencyHandler(guardianService, emergencyService, alertRepo, auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, emergencyService)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)

			// Protected routes (require JWT authentication)
			protected := auth.Group("")
			protected.Use(middleware.AuthMiddleware(jwtService))
			{
				protected.GET("/profile", authHandler.GetProfile)
				protected.PATCH("/fcm-token", authHandler.UpdateFCMToken)
			}
		}

		// User routes (protected)
		users := v1.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService))
		{
			users.PATCH("/profile", userHandler.UpdateProfile)
			users.PATCH("/pin", userHandler.ChangePin)
		}

		// Guardian routes (protected)
		guardians := v1.Group("/guardians")
		guardians.Use(middleware.AuthMiddleware(jwtService))
		{
			guardians.GET("", emergencyHandler.ListGuardians)
			guardians.POST("", emergencyHandler.AddGuardian)
			guardians.GET("/protecting", emergencyHandler.ListProtecting)
			guardians.PATCH("/:id/respond", emergencyHandler.RespondToRequest)
			guardians.DELETE("/:id", emergencyHandler.DeleteGuardian)
		}

		// Trip routes (protected)
		trips := v1.Group("/trips")
		trips.Use(middleware.AuthMiddleware(jwtService))
		{
			trips.POST("", tripHandler.StartTrip)
			trips.POST("/verify-pin", tripHandler.VerifyPin)
			trips.GET("/:id", tripHandler.GetTrip)
			trips.GET("/:id/path", tripHandler.GetTripPath)
			trips.PATCH("/:id/end", tripHandler.EndTrip)
		}

		// Emergency routes (protected)
		emergency := v1.Group("/emergency")
		emergency.Use(middleware.AuthMiddleware(jwtService))
		{
			emergency.POST("/panic", emergencyHandler.TriggerPanic)
			emergency.GET("/alerts", emergencyHandler.ListAlerts)
		}

		// Notification routes (protected)
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthMiddleware(jwtService))
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
			notifications.PATCH("/read-all", notificationHandler.MarkAllAsRead)
			notifications.POST("/send", notificationHandler.SendNotification)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Watchdog.Enabled {
		logger.Info("Stopping trip watchdog...")
		watchdog.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, ok := middleware.GetUserContext(c); ok {
			fields["user_id"] = userCtx.UserID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
