// Package bootstrap khởi tạo cấu hình hạ tầng, logger và các kết nối dùng chung cho các lệnh trong cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/internal/search"
)

const defaultDatabase = "vbdlis_normalizer"

// LoadConfig load configuration từ file và env vars (MONGO_URL ghi đè mongo.url...)
func LoadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	// Set defaults
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("mongo.enabled", false)
	viper.SetDefault("mongo.url", "mongodb://localhost:27017/"+defaultDatabase)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("meilisearch.enabled", false)
	viper.SetDefault("meilisearch.url", "http://localhost:7700")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("meilisearch.index", "admin_units")
	viper.SetDefault("normalizer.config_file", "config/normalizer.yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// InitLogger khởi tạo structured logger theo APP_ENV
func InitLogger() *zap.Logger {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = viper.GetString("app.env")
	}

	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	logger, err := config.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}

	return logger
}

// InitMongoDB kết nối MongoDB; tên database lấy từ URL, mặc định vbdlis_normalizer
func InitMongoDB(ctx context.Context, mongoURL string, logger *zap.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("lỗi kết nối MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("lỗi ping MongoDB: %w", err)
	}

	dbName := DatabaseName(mongoURL)
	logger.Info("Connected to MongoDB", zap.String("database", dbName))

	return client.Database(dbName), nil
}

// DatabaseName tên database trong connection string
func DatabaseName(mongoURL string) string {
	cs, err := connstring.Parse(mongoURL)
	if err != nil || cs.Database == "" {
		return defaultDatabase
	}
	return cs.Database
}

// InitSearcher kết nối Meilisearch theo cấu hình viper
func InitSearcher(logger *zap.Logger) (*search.UnitSearcher, error) {
	searchConfig := search.SearchConfig{
		Host:          viper.GetString("meilisearch.url"),
		APIKey:        viper.GetString("meilisearch.master_key"),
		IndexName:     viper.GetString("meilisearch.index"),
		Timeout:       5 * time.Second,
		MaxCandidates: 20,
	}

	logger.Info("Meilisearch config",
		zap.String("host", searchConfig.Host),
		zap.String("index", searchConfig.IndexName),
		zap.Bool("has_key", searchConfig.APIKey != ""))

	return search.NewUnitSearcher(searchConfig, logger)
}
