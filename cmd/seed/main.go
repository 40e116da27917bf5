package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/internal/bootstrap"
	"github.com/vbdlis-normalizer/internal/search"
)

func main() {
	file := flag.String("file", "data/admin_units.json", "file JSON danh mục ĐVHC")
	version := flag.String("version", "", "phiên bản danh mục, mặc định theo ngày hiện tại")
	rebuild := flag.Bool("rebuild", true, "cập nhật settings index Meilisearch trước khi nạp")
	dryRun := flag.Bool("dry-run", false, "chỉ validate, không ghi")
	legacy := flag.Bool("legacy", false, "file đầu vào theo định dạng address.json cũ (id, parent_id, unit_level)")
	flag.Parse()

	bootstrap.LoadConfig()
	logger := bootstrap.InitLogger()
	defer logger.Sync()

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("Không đọc được file danh mục", zap.String("file", *file), zap.Error(err))
	}

	var units []models.AdminUnit
	if *legacy {
		units, err = services.ParseLegacyUnits(raw)
		if err != nil {
			logger.Fatal("Không chuyển được file địa giới cũ", zap.Error(err))
		}
		logger.Info("Đã chuyển file địa giới cũ", zap.Int("units", len(units)))
	} else if err := json.Unmarshal(raw, &units); err != nil {
		logger.Fatal("File danh mục không phải JSON hợp lệ", zap.Error(err))
	}

	validation := services.ValidateUnits(units)
	for _, w := range validation.Warnings {
		logger.Warn("Cảnh báo dữ liệu", zap.String("detail", w))
	}
	if !validation.Passed {
		for _, e := range validation.Errors {
			logger.Error("Lỗi dữ liệu", zap.String("detail", e))
		}
		logger.Fatal("Validation thất bại", zap.Int("errors", len(validation.Errors)))
	}
	if *dryRun {
		logger.Info("Validation thành công",
			zap.Int("units", len(units)),
			zap.String("estimated_build_time", validation.EstimatedBuildTime))
		return
	}

	datasetVersion := *version
	if datasetVersion == "" {
		datasetVersion = time.Now().Format("2006.01.02")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := bootstrap.InitMongoDB(ctx, viper.GetString("mongo.url"), logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer db.Client().Disconnect(context.Background())

	var searcher *search.UnitSearcher
	if viper.GetBool("meilisearch.enabled") {
		searcher, err = bootstrap.InitSearcher(logger)
		if err != nil {
			logger.Fatal("Failed to connect to Meilisearch", zap.Error(err))
		}
	}

	adminService := services.NewAdminService(db, searcher, nil, nil, nil, logger)
	result, err := adminService.SeedUnits(ctx, datasetVersion, units, *rebuild)
	if err != nil {
		logger.Fatal("Seed thất bại", zap.Error(err))
	}

	logger.Info("Seed ĐVHC thành công",
		zap.String("dataset_version", datasetVersion),
		zap.Int("units_processed", result.UnitsProcessed),
		zap.Int64("units_deleted", result.UnitsDeleted),
		zap.Int("indexes_built", result.IndexesBuilt),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs))
}
