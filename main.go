package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"safezonex-be/config"
	"safezonex-be/controllers"
	"safezonex-be/dedup"
	"safezonex-be/models"
	"safezonex-be/realtime"
	"safezonex-be/routes"
	"safezonex-be/scoring"
	"safezonex-be/services"
	"safezonex-be/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	gocache "github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger, err := config.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db := config.ConnectDB()
	if db == nil {
		logger.Fatal("Failed to connect to MongoDB")
	}
	logger.Info("MongoDB connection established")

	config.ConnectRedis()
	logger.Info("Redis connection established")

	alertStore := store.NewMongoAlertStore(db.Collection("alerts"), logger)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := alertStore.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create alert indexes", zap.Error(err))
	}
	if err := ensureIndexes(db); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}
	cancel()

	hub := realtime.NewHub(logger)
	hub.OnUserOnline = func(userID string) { controllers.MarkUserOnline(userID, true) }
	hub.OnUserOffline = func(userID string) { controllers.MarkUserOnline(userID, false) }
	router := realtime.NewRouter(hub, logger)

	guard := dedup.NewGuard(config.RedisClient, dedup.DefaultWindow, logger)

	var classifier scoring.Classifier = scoring.HeuristicClassifier{}
	if path := os.Getenv("CLASSIFIER_PATH"); path != "" {
		classifier = &scoring.ExecClassifier{Path: path, Timeout: 10 * time.Second, Logger: logger}
	}

	alertsCache := gocache.New(24*time.Hour, 10*time.Minute)
	sosCache := gocache.New(gocache.NoExpiration, 0)

	alertService := services.NewAlertService(alertStore, guard, classifier, router, alertsCache, logger)
	sosService := services.NewSOSService(sosCache, router, logger)
	walkStore := store.NewMongoWalkStore(db.Collection("walk_sessions"), logger)
	walkService := services.NewWalkService(walkStore, router, logger)

	controllers.Setup(alertService, sosService, walkService, hub, router, logger)
	controllers.BindSocketHandlers()

	if os.Getenv("GO_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = strings.Split(origins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	routes.AuthRoutes(r)
	routes.AlertRoutes(r)
	routes.SocialRoutes(r)
	r.GET("/ws", controllers.HandleWebSocket)

	r.GET("/", func(c *gin.Context) {
		mobile, dashboard := hub.Counts()
		c.JSON(http.StatusOK, gin.H{
			"message": "SafeZoneX Backend Server",
			"status":  "running",
			"statistics": gin.H{
				"activeAlerts": alertService.ActiveCount(),
				"connectedClients": gin.H{
					"mobile": mobile,
					"web":    dashboard,
				},
			},
			"timestamp": time.Now(),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Info("server started", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	if err := config.DisconnectDB(shutdownCtx); err != nil {
		logger.Error("error closing database connection", zap.Error(err))
	}
	logger.Info("server stopped")
}

func ensureIndexes(db *mongo.Database) error {
	if err := models.EnsureFriendIndex(db.Collection("friends")); err != nil {
		return err
	}
	if err := models.EnsureFeedbackIndex(db.Collection("feedback")); err != nil {
		return err
	}
	if err := models.EnsureWalkSessionIndexes(db.Collection("walk_sessions")); err != nil {
		return err
	}
	return models.EnsureVerificationCodeIndex(db.Collection("verification_codes"))
}
