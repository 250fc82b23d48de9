package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"docroute/portal-backend/internal/config"
	"docroute/portal-backend/internal/documents"
	"docroute/portal-backend/internal/notifications"
	"docroute/portal-backend/internal/notifications/websocket"
	"docroute/portal-backend/internal/offices"
	"docroute/portal-backend/pkg/supersede"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath, ".env", ".env.local")
	if err != nil {
		bootLogger, _ := zap.NewProduction()
		bootLogger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Remote document system
	remote, err := documents.NewHTTPClient(
		cfg.RemoteAPI.BaseURL,
		cfg.RemoteAPI.Authorization,
		cfg.RemoteAPI.RequestIDHeader,
		cfg.RemoteAPI.Timeout.Std(),
	)
	if err != nil {
		logger.Fatal("Failed to create remote API client", zap.Error(err))
	}

	// Office directory and cluster table
	clusters, err := cfg.Clusters.ClusterMap()
	if err != nil {
		logger.Fatal("Invalid cluster table", zap.Error(err))
	}
	directory := offices.NewDirectoryCache(cfg.Directory.TTL.Std())
	defer directory.Stop()
	checkClusters(ctx, logger, remote, directory, clusters, cfg.Clusters.Strict)

	// Notifications: websocket hub, unread-count poller, refresh fan-out
	hub := websocket.NewManager(logger, cfg.Server.AllowedOrigins)
	defer hub.Close()

	poller := notifications.NewPoller(remote, hub, logger, notifications.PollerConfig{
		IdleInterval:   cfg.Polling.IdleInterval.Std(),
		BurstInterval:  cfg.Polling.BurstInterval.Std(),
		BurstWindow:    cfg.Polling.BurstWindow.Std(),
		RequestTimeout: cfg.Polling.Timeout.Std(),
		MaxConcurrent:  cfg.Polling.MaxConcurrent,
	})
	if err := poller.Start(); err != nil {
		logger.Fatal("Failed to start poller", zap.Error(err))
	}
	defer poller.Stop()

	notificationService := notifications.NewService(cfg.InstanceID, poller, logger)
	notificationService.AddSink("websocket", hub)
	if cfg.Signals.TopicARN != "" {
		snsSink, err := notifications.NewSNSSink(ctx, notifications.SNSOptions{
			Region:          cfg.Signals.Region,
			TopicARN:        cfg.Signals.TopicARN,
			Endpoint:        cfg.Signals.Endpoint,
			AccessKeyID:     cfg.Signals.AccessKeyID,
			SecretAccessKey: cfg.Signals.SecretAccessKey,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create SNS sink", zap.Error(err))
		}
		notificationService.AddRemoteSink("sns", snsSink)
		logger.Info("Cross-instance refresh signals enabled", zap.String("topic_arn", cfg.Signals.TopicARN))
	}
	notificationHandler := notifications.NewHandler(notificationService, hub, logger)

	// Documents workflow
	group := supersede.NewGroup()
	workflowService := documents.NewWorkflowService(remote, notificationService, group, logger)
	documentService := documents.NewService(remote, directory, clusters, group, workflowService, logger)
	documentHandler := documents.NewHandler(documentService, logger)

	// Setup Router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), cors(cfg.Server.AllowedOrigins))

	// Register Routes
	api := router.Group("/api/v1")
	{
		documentHandler.RegisterRoutes(api)
		notificationHandler.RegisterRoutes(api)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"instance_id": notificationService.InstanceID(),
			"connections": hub.GetConnectionCount(),
			"poll_every":  poller.Interval().String(),
			"directory":   directory.Stats(),
			"in_flight":   group.InFlight(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", srv.Addr),
		zap.String("remote_api", cfg.RemoteAPI.BaseURL),
		zap.String("instance_id", notificationService.InstanceID()))

	// Graceful Shutdown
	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

// checkClusters reports directory offices the cluster table does not cover.
// In strict mode a gap stops startup.
func checkClusters(
	ctx context.Context,
	logger *zap.Logger,
	remote documents.RemoteClient,
	directory *offices.DirectoryCache,
	clusters *offices.ClusterMap,
	strict bool,
) {
	loadCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	list, err := directory.GetOrLoad(loadCtx, documents.DirectoryCacheKey, remote.ListOffices)
	if err != nil {
		if strict {
			logger.Fatal("Failed to load office directory for cluster check", zap.Error(err))
		}
		logger.Warn("Skipping cluster check, office directory unavailable", zap.Error(err))
		return
	}

	missing := clusters.Validate(list)
	if len(missing) == 0 {
		return
	}
	if strict {
		logger.Fatal("Offices without a cluster", zap.Strings("codes", missing))
	}
	logger.Warn("Offices without a cluster",
		zap.Strings("codes", missing),
		zap.String("fallback_cluster", clusters.Fallback()))
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("office_id", c.GetHeader(documents.HeaderOfficeID)))
	}
}

// cors allows the configured origins, or any origin when none are configured
func cors(allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(allowed) == 0:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case originAllowed(allowed, origin):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{
			"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin",
			"Cache-Control", "X-Requested-With", documents.HeaderOfficeID, documents.HeaderSessionID,
		}, ", "))
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, a := range allowed {
		if a == origin {
			return true
		}
	}
	return false
}
