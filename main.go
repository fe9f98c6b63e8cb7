package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-service/apperrors"
	"marketplace-service/cache"
	"marketplace-service/catalog"
	"marketplace-service/config"
	"marketplace-service/controllers"
	"marketplace-service/database"
	"marketplace-service/events"
	"marketplace-service/logger"
	"marketplace-service/metrics"
	"marketplace-service/middleware"
	"marketplace-service/models"
	aws_pkg "marketplace-service/pkg/aws"
	"marketplace-service/repository"
	"marketplace-service/routes"
	"marketplace-service/services"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	log := logger.Initialize(os.Getenv("APP_ENV"))
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- 1. Stores ---

	categories, err := loadCategories(cfg)
	if err != nil {
		log.Fatal("Failed to load category mapping", zap.Error(err))
	}
	log.Info("Category mapping loaded", zap.String("version", categories.Version()))

	mongoClient, db, err := database.ConnectMongo(rootCtx, cfg.MongoURI, cfg.MongoDB, log)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	requestRepo := repository.NewSellerRequestRepository(db)
	listingRepo := repository.NewSellerProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	for name, ensure := range map[string]func(context.Context) error{
		"seller_requests": requestRepo.EnsureIndexes,
		"seller_products": listingRepo.EnsureIndexes,
		"carts":           cartRepo.EnsureIndexes,
	} {
		if err := ensure(rootCtx); err != nil {
			log.Fatal("Failed to ensure indexes", zap.String("collection", name), zap.Error(err))
		}
	}

	awsCfg, err := aws_pkg.LoadAWSConfig(rootCtx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	productRepo := buildProductRepo(cfg, db, awsCfg, log)

	// Redis and Postgres are optional; the service runs without cache or audit.
	var redisClient *redis.Client
	var catalogCache services.CatalogCache
	var invalidator services.CacheInvalidator
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(rootCtx, cfg.RedisURL, log)
		if err != nil {
			log.Warn("Catalog cache disabled", zap.Error(err))
		} else {
			c := cache.NewCatalogCache(redisClient, cfg.CatalogCacheTTL, log)
			catalogCache, invalidator = c, c
		}
	}

	var auditDB *gorm.DB
	var auditRepo repository.AuditRepo
	if cfg.PostgresDSN != "" {
		auditDB, err = database.ConnectPostgres(cfg.PostgresDSN, log, &models.ModerationAudit{})
		if err != nil {
			log.Warn("Moderation audit disabled", zap.Error(err))
		} else {
			auditRepo = repository.NewAuditRepository(auditDB)
		}
	}

	publisher := buildPublisher(cfg, awsCfg, log)

	// --- 2. Services ---

	sellerOpts := services.DefaultSellerOptions()
	sellerOpts.MaxCredentialAttempts = cfg.CredentialMaxAttempts
	sellerService := services.NewSellerService(requestRepo, services.NewCredentialIssuer(), auditRepo, publisher, sellerOpts, log)
	moderationService := services.NewModerationService(listingRepo, sellerService, categories, invalidator, auditRepo, publisher, log)
	catalogService := services.NewCatalogService(productRepo, moderationService, categories, catalogCache, cfg.CatalogSourceTimeout, log)
	cartService := services.NewCartService(cartRepo, log)
	statsService := services.NewStatsService(requestRepo, listingRepo)
	imageService := services.NewImageService(aws_pkg.NewS3Presigner(awsCfg), sellerService,
		cfg.S3Bucket, cfg.S3Prefix, cfg.S3PublicBase, cfg.PresignExpiry, log)
	sellerTokens := middleware.NewSellerTokenIssuer([]byte(cfg.JWTSecret), cfg.SellerTokenTTL)

	// --- 3. HTTP ---

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.CloudWatchMetrics(aws_pkg.NewMetricsClient(awsCfg, "Marketplace", cfg.CloudWatchEnabled), "marketplace-service"))
	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	r.Use(apperrors.ErrorMiddleware(cfg.ExposeErrorDetails))

	routes.RegisterRoutes(r, routes.Controllers{
		Seller:  controllers.NewSellerController(sellerService, moderationService, imageService, sellerTokens, cfg.RequestTimeout),
		Admin:   controllers.NewAdminController(sellerService, moderationService, statsService, cfg.RequestTimeout),
		Product: controllers.NewProductController(catalogService, cfg.RequestTimeout),
		Cart:    controllers.NewCartController(cartService, cfg.RequestTimeout),
	}, []byte(cfg.JWTSecret), middleware.LoginRateLimit(rootCtx))

	r.GET("/health", healthHandler(mongoClient))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// --- 4. Graceful shutdown ---

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Marketplace service starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down marketplace service...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis", zap.Error(err))
		}
	}
	if auditDB != nil {
		if err := database.ClosePostgres(auditDB); err != nil {
			log.Error("Failed to close Postgres", zap.Error(err))
		}
	}
	database.DisconnectMongo(mongoClient, log)

	log.Info("Marketplace service stopped gracefully")
}

func loadCategories(cfg *config.Config) (*catalog.CategoryMapping, error) {
	if cfg.CategoryMappingFile != "" {
		return catalog.Load(cfg.CategoryMappingFile)
	}
	return catalog.LoadDefault()
}

func buildProductRepo(cfg *config.Config, db *mongo.Database, awsCfg sdkaws.Config, log *zap.Logger) repository.ProductRepo {
	if cfg.FirstPartyBackend == "dynamodb" {
		log.Info("First-party products served from DynamoDB", zap.String("table", cfg.DynamoProductsTable))
		return repository.NewDynamoProductAdapter(dynamodb.NewFromConfig(awsCfg), cfg.DynamoProductsTable)
	}
	return repository.NewProductRepository(db)
}

func buildPublisher(cfg *config.Config, awsCfg sdkaws.Config, log *zap.Logger) events.Publisher {
	switch cfg.EventBus {
	case "kafka":
		log.Info("Publishing moderation events to Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		return events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	case "sns":
		log.Info("Publishing moderation events to SNS", zap.String("topic_arn", cfg.SellerSNSTopicARN))
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.SellerSNSTopicARN)
	default:
		return events.NoopPublisher{}
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:    []string{logger.RequestIDHeader, controllers.CatalogWarningsHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = origins
	return c
}

func healthHandler(client *mongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "mongo": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	}
}
