package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/config"
	"github.com/vbdlis-normalizer/app/controllers"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/internal/bootstrap"
	"github.com/vbdlis-normalizer/internal/history"
	"github.com/vbdlis-normalizer/internal/metrics"
	"github.com/vbdlis-normalizer/internal/normalizer"
	"github.com/vbdlis-normalizer/internal/parser"
	"github.com/vbdlis-normalizer/internal/search"
	"github.com/vbdlis-normalizer/routes"
)

func main() {
	// 1. Load configuration
	bootstrap.LoadConfig()

	// 2. Khởi tạo logger
	logger := bootstrap.InitLogger()
	defer logger.Sync()

	logger.Info("Starting VBDLIS Normalizer Service")

	configFile := viper.GetString("normalizer.config_file")
	if err := config.Load(configFile); err != nil {
		logger.Warn("Không đọc được cấu hình normalizer, dùng mặc định",
			zap.String("file", configFile), zap.Error(err))
	}

	rules, err := config.C.BuildRules()
	if err != nil {
		logger.Fatal("Failed to load keyword rules", zap.Error(err))
	}
	logger.Info("Keyword rules loaded",
		zap.String("version", rules.Version),
		zap.Int("certificate_names", len(rules.CertificateNames)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components := map[string]string{}

	// 3. Kết nối MongoDB
	var mongoDB *mongo.Database
	if viper.GetBool("mongo.enabled") {
		mongoDB, err = bootstrap.InitMongoDB(ctx, viper.GetString("mongo.url"), logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
		components["mongo"] = "healthy"
	}

	// 4. Khởi tạo cache
	cacheService := initCache(ctx, mongoDB, rules.Version, components, logger)
	defer cacheService.Close()

	// 5. Khởi tạo Meilisearch
	var unitSearcher *search.UnitSearcher
	if viper.GetBool("meilisearch.enabled") {
		unitSearcher, err = bootstrap.InitSearcher(logger)
		if err != nil {
			logger.Warn("Meilisearch unavailable, ĐVHC search falls back to MongoDB", zap.Error(err))
			components["meilisearch"] = "unavailable"
		} else {
			components["meilisearch"] = "healthy"
		}
	}

	// 6. Lịch sử tra cứu
	var historyService *services.HistoryService
	if config.C.History.Enabled {
		store, err := history.Open(config.C.History.DBPath, nil, logger)
		if err != nil {
			logger.Fatal("Failed to open search history", zap.Error(err))
		}
		defer store.Close()
		historyService = services.NewHistoryService(store, logger)
		components["history"] = "healthy"
	}

	// 7. Khởi tạo services
	m := metrics.New()
	recordParser := parser.NewRecordParser(rules, normalizer.SystemClock, logger)

	var recorder services.HistoryRecorder
	if historyService != nil {
		recorder = historyService
	}
	recordService := services.NewRecordService(recordParser, cacheService, recorder, m, logger)
	adminService := services.NewAdminService(mongoDB, unitSearcher, cacheService, recordService, historyService, logger)

	// 8. Khởi tạo controllers
	ctrl := routes.Controllers{
		Normalize: controllers.NewNormalizeController(rules, normalizer.SystemClock, m, logger),
		Record:    controllers.NewRecordController(recordService, config.C.Batch.MaxRecords, components, logger),
		Admin:     controllers.NewAdminController(adminService, logger),
	}
	if historyService != nil {
		ctrl.History = controllers.NewHistoryController(historyService, logger)
	}

	// 9. Khởi tạo Gin router
	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupMiddleware(router)
	routes.SetupAllRoutes(router, ctrl)

	// 10. Khởi động server
	port := viper.GetString("app.port")
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("VBDLIS Normalizer Service starting", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initCache chọn cache theo cấu hình: Redis và/hoặc MongoDB, không có thì dùng in-memory
func initCache(ctx context.Context, mongoDB *mongo.Database, rulesVersion string, components map[string]string, logger *zap.Logger) services.ICacheService {
	var l1 services.ICacheService
	if viper.GetBool("redis.enabled") {
		redisCache, err := services.NewRedisCacheService(viper.GetString("redis.url"), config.C.Cache.TTL, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		l1 = redisCache
		components["cache"] = "redis"
	} else {
		memoryCache := services.NewCacheService(config.C.Cache.TTL)
		memoryCache.StartCleanupWorker(ctx, config.C.Cache.CleanupInterval)
		l1 = memoryCache
		components["cache"] = "memory"
	}

	if mongoDB == nil {
		return l1
	}

	mongoCache, err := services.NewMongoCacheService(mongoDB, config.C.Cache.L1Size, logger)
	if err != nil {
		logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
	}

	// Kết quả của bộ từ khóa cũ không còn đúng
	if err := mongoCache.InvalidateByRulesVersion(ctx, rulesVersion); err != nil {
		logger.Warn("Failed to invalidate stale cache", zap.Error(err))
	}
	if err := mongoCache.WarmUp(ctx, rulesVersion, config.C.Cache.L1Size/2); err != nil {
		logger.Warn("Failed to warm up cache", zap.Error(err))
	}

	components["cache"] += "+mongo"
	return services.NewHybridCacheService(l1, mongoCache, logger)
}
