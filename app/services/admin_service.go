package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/normalizer"
	"github.com/vbdlis-normalizer/internal/search"
)

const adminUnitsCollection = "admin_units"

// Export type constants
const (
	ExportAdminUnits  = "admin_units"
	ExportRecordCache = "record_cache"
	ExportHistory     = "history"
)

var (
	// ErrUnsupportedExport loại dữ liệu hoặc định dạng export không hỗ trợ
	ErrUnsupportedExport = errors.New("không hỗ trợ loại dữ liệu hoặc định dạng này")
	// ErrStorageDisabled MongoDB chưa được cấu hình
	ErrStorageDisabled = errors.New("MongoDB chưa được bật")
	// ErrInvalidDataset dữ liệu ĐVHC không hợp lệ
	ErrInvalidDataset = errors.New("dữ liệu ĐVHC không hợp lệ")
)

// AdminService service quản lý danh mục ĐVHC, cache và thống kê
type AdminService struct {
	db       *mongo.Database
	searcher *search.UnitSearcher
	cache    ICacheService
	records  *RecordService
	history  *HistoryService
	logger   *zap.Logger
}

// DatasetValidation kết quả validation danh mục ĐVHC
type DatasetValidation struct {
	Passed             bool     `json:"passed"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
	EstimatedBuildTime string   `json:"estimated_build_time"`
}

// SeedResult kết quả seed danh mục
type SeedResult struct {
	UnitsProcessed   int      `json:"units_processed"`
	UnitsDeleted     int64    `json:"units_deleted"`
	IndexesBuilt     int      `json:"indexes_built"`
	Warnings         []string `json:"warnings,omitempty"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// SystemStats thống kê hệ thống
type SystemStats struct {
	Uptime        string                 `json:"uptime"`
	RulesVersion  string                 `json:"rules_version"`
	Service       map[string]interface{} `json:"service"`
	Cache         *CacheStats            `json:"cache,omitempty"`
	History       map[string]int         `json:"history,omitempty"`
	MemoryUsage   map[string]interface{} `json:"memory_usage"`
	DatabaseStats *DatabaseStats         `json:"database_stats,omitempty"`
}

// DatabaseStats thống kê MongoDB
type DatabaseStats struct {
	AdminUnits  int64 `json:"admin_units"`
	RecordCache int64 `json:"record_cache"`
}

// NewAdminService tạo mới AdminService. db, searcher, cache và history có thể nil.
func NewAdminService(db *mongo.Database, searcher *search.UnitSearcher, cache ICacheService, records *RecordService, history *HistoryService, logger *zap.Logger) *AdminService {
	return &AdminService{
		db:       db,
		searcher: searcher,
		cache:    cache,
		records:  records,
		history:  history,
		logger:   logger,
	}
}

// ValidateUnits kiểm tra danh mục: lỗi làm hỏng seed, cảnh báo thì không
func ValidateUnits(data []models.AdminUnit) *DatasetValidation {
	v := &DatasetValidation{Errors: []string{}, Warnings: []string{}}

	if len(data) == 0 {
		v.Errors = append(v.Errors, "Không có dữ liệu để validate")
		v.EstimatedBuildTime = "0s"
		return v
	}

	codes := make(map[string]bool, len(data))
	for _, unit := range data {
		codes[unit.Code] = true
	}

	seen := make(map[string]bool, len(data))
	for i, unit := range data {
		switch {
		case unit.Code == "":
			v.Errors = append(v.Errors, fmt.Sprintf("Thiếu mã tại vị trí %d", i))
		case seen[unit.Code]:
			v.Errors = append(v.Errors, fmt.Sprintf("Trùng mã: %s", unit.Code))
		}
		seen[unit.Code] = true

		if unit.Name == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Thiếu tên tại vị trí %d", i))
		}
		if !unit.IsValidLevel() {
			v.Errors = append(v.Errors, fmt.Sprintf("Cấp %d không hợp lệ tại vị trí %d", unit.Level, i))
			continue
		}
		if unit.Level > models.LevelProvince && unit.ParentCode == "" {
			v.Errors = append(v.Errors, fmt.Sprintf("Thiếu mã đơn vị cha của %s", unit.Code))
		}
		if unit.ParentCode != "" && !codes[unit.ParentCode] {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Đơn vị cha %s của %s không có trong dữ liệu", unit.ParentCode, unit.Code))
		}
		if unit.Type != "" && !unit.IsValidType() {
			v.Warnings = append(v.Warnings, fmt.Sprintf("Loại '%s' không khớp cấp %d tại %s", unit.Type, unit.Level, unit.Code))
		}
	}

	// Khoảng 100 đơn vị mỗi giây
	estimatedSeconds := len(data) / 100
	if estimatedSeconds < 1 {
		estimatedSeconds = 1
	}
	v.EstimatedBuildTime = fmt.Sprintf("%ds", estimatedSeconds)
	v.Passed = len(v.Errors) == 0
	return v
}

// PrepareUnits điền tên không dấu, đường dẫn mã và phiên bản cho từng đơn vị
func PrepareUnits(datasetVersion string, data []models.AdminUnit, now time.Time) []models.AdminUnit {
	byCode := make(map[string]models.AdminUnit, len(data))
	for _, unit := range data {
		byCode[unit.Code] = unit
	}

	prepared := make([]models.AdminUnit, len(data))
	for i, unit := range data {
		if unit.NormalizedName == "" {
			unit.NormalizedName = normalizer.SearchKey(unit.Name)
		}
		if len(unit.Path) == 0 {
			unit.Path = codePath(unit, byCode)
		}
		unit.DatasetVersion = datasetVersion
		unit.CreatedAt = now
		unit.UpdatedAt = now
		prepared[i] = unit
	}
	return prepared
}

// codePath đi ngược theo mã cha; dừng khi gặp vòng lặp hoặc đơn vị cha không có trong dữ liệu
func codePath(unit models.AdminUnit, byCode map[string]models.AdminUnit) []string {
	path := []string{unit.Code}
	visited := map[string]bool{unit.Code: true}

	for parent := unit.ParentCode; parent != ""; {
		if visited[parent] {
			break
		}
		visited[parent] = true
		path = append([]string{parent}, path...)

		next, ok := byCode[parent]
		if !ok {
			break
		}
		parent = next.ParentCode
	}
	return path
}

// SeedUnits thay danh mục cùng phiên bản trong MongoDB và nạp vào Meilisearch
func (as *AdminService) SeedUnits(ctx context.Context, datasetVersion string, data []models.AdminUnit, rebuildIndexes bool) (*SeedResult, error) {
	if as.db == nil {
		return nil, ErrStorageDisabled
	}
	startTime := time.Now()

	validation := ValidateUnits(data)
	if !validation.Passed {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, validation.Errors)
	}

	units := PrepareUnits(datasetVersion, data, time.Now())
	collection := as.db.Collection(adminUnitsCollection)

	deleteResult, err := collection.DeleteMany(ctx, bson.M{"dataset_version": datasetVersion})
	if err != nil {
		return nil, fmt.Errorf("lỗi xóa dữ liệu cũ: %w", err)
	}

	as.logger.Info("Deleted old admin units",
		zap.String("dataset_version", datasetVersion),
		zap.Int64("deleted_count", deleteResult.DeletedCount))

	documents := make([]interface{}, len(units))
	for i, unit := range units {
		documents[i] = unit
	}
	if _, err := collection.InsertMany(ctx, documents); err != nil {
		return nil, fmt.Errorf("lỗi insert dữ liệu mới: %w", err)
	}

	indexesBuilt := 0
	if as.searcher != nil {
		if rebuildIndexes {
			if err := as.searcher.BuildIndexes(); err != nil {
				as.logger.Warn("Lỗi build Meilisearch indexes", zap.Error(err))
			} else {
				indexesBuilt++
			}
		}

		if err := as.searcher.SeedData(units); err != nil {
			as.logger.Warn("Lỗi seed data vào Meilisearch", zap.Error(err))
		} else {
			indexesBuilt++
		}
	}

	processingTime := time.Since(startTime)
	as.logger.Info("Admin unit seed completed",
		zap.String("dataset_version", datasetVersion),
		zap.Int("units_processed", len(units)),
		zap.Int("indexes_built", indexesBuilt),
		zap.Duration("processing_time", processingTime))

	return &SeedResult{
		UnitsProcessed:   len(units),
		UnitsDeleted:     deleteResult.DeletedCount,
		IndexesBuilt:     indexesBuilt,
		Warnings:         validation.Warnings,
		ProcessingTimeMs: processingTime.Milliseconds(),
	}, nil
}

// SearchUnits tìm ĐVHC; ưu tiên Meilisearch, không có thì tìm theo tên không dấu trong MongoDB
func (as *AdminService) SearchUnits(ctx context.Context, query string, level int, parentCode string, limit int) ([]models.AdminUnit, error) {
	if as.searcher != nil {
		return as.searcher.SearchUnits(ctx, query, level, parentCode, limit)
	}
	if as.db == nil {
		return nil, ErrStorageDisabled
	}

	filter := bson.M{}
	if key := normalizer.SearchKey(query); key != "" {
		filter["normalized_name"] = bson.M{"$regex": key}
	}
	if level > 0 {
		filter["level"] = level
	}
	if parentCode != "" {
		filter["parent_code"] = parentCode
	}
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().SetLimit(int64(limit)).SetSort(bson.D{bson.E{Key: "code", Value: 1}})
	cursor, err := as.db.Collection(adminUnitsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm ĐVHC trong MongoDB: %w", err)
	}
	defer cursor.Close(ctx)

	units := []models.AdminUnit{}
	if err := cursor.All(ctx, &units); err != nil {
		return nil, fmt.Errorf("lỗi decode ĐVHC: %w", err)
	}
	return units, nil
}

// GetUnit lấy ĐVHC theo mã; ưu tiên Meilisearch, không có thì đọc MongoDB
func (as *AdminService) GetUnit(ctx context.Context, code string) (*models.AdminUnit, error) {
	if as.searcher != nil {
		return as.searcher.GetUnit(ctx, code)
	}
	if as.db == nil {
		return nil, ErrStorageDisabled
	}

	var unit models.AdminUnit
	err := as.db.Collection(adminUnitsCollection).FindOne(ctx, bson.M{"code": code}).Decode(&unit)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", search.ErrUnitNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc ĐVHC: %w", err)
	}
	return &unit, nil
}

// InvalidateCache xóa cache kết quả; rulesVersion rỗng là xóa toàn bộ
func (as *AdminService) InvalidateCache(ctx context.Context, rulesVersion string) error {
	if as.cache == nil {
		return nil
	}
	if rulesVersion == "" {
		return as.cache.Clear(ctx)
	}
	return as.cache.InvalidateByRulesVersion(ctx, rulesVersion)
}

// GetSystemStats lấy thống kê hệ thống
func (as *AdminService) GetSystemStats(ctx context.Context) (*SystemStats, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &SystemStats{
		Uptime:       time.Since(as.records.GetStartTime()).Round(time.Second).String(),
		RulesVersion: as.records.RulesVersion(),
		Service:      as.records.GetStats(),
		MemoryUsage: map[string]interface{}{
			"alloc_mb":       bToMb(m.Alloc),
			"total_alloc_mb": bToMb(m.TotalAlloc),
			"sys_mb":         bToMb(m.Sys),
			"num_gc":         m.NumGC,
		},
	}

	if as.cache != nil {
		cacheStats, err := as.cache.GetStats(ctx)
		if err != nil {
			as.logger.Warn("Không lấy được cache stats", zap.Error(err))
		}
		stats.Cache = cacheStats
	}

	if as.history != nil {
		historyStats, err := as.history.Stats(ctx)
		if err != nil {
			as.logger.Warn("Không lấy được thống kê lịch sử", zap.Error(err))
		}
		stats.History = historyStats
	}

	if as.db != nil {
		dbStats, err := as.getDatabaseStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("lỗi lấy database stats: %w", err)
		}
		stats.DatabaseStats = dbStats
	}

	return stats, nil
}

// getDatabaseStats lấy thống kê database
func (as *AdminService) getDatabaseStats(ctx context.Context) (*DatabaseStats, error) {
	stats := &DatabaseStats{}

	count, err := as.db.Collection(adminUnitsCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.AdminUnits = count

	count, err = as.db.Collection(recordCacheCollection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats.RecordCache = count

	return stats, nil
}

// ExportData export dữ liệu để backup (json hoặc csv)
func (as *AdminService) ExportData(ctx context.Context, dataType, format string, limit int) ([]byte, error) {
	if format != "json" && format != "csv" {
		return nil, fmt.Errorf("%w: format %s", ErrUnsupportedExport, format)
	}
	if limit <= 0 {
		limit = 10000
	}

	switch dataType {
	case ExportAdminUnits:
		var units []models.AdminUnit
		if err := as.findAll(ctx, adminUnitsCollection, limit, &units); err != nil {
			return nil, err
		}
		if format == "csv" {
			return UnitsToCSV(units)
		}
		return json.MarshalIndent(units, "", "  ")

	case ExportRecordCache:
		var entries []models.RecordCache
		if err := as.findAll(ctx, recordCacheCollection, limit, &entries); err != nil {
			return nil, err
		}
		if format == "csv" {
			return RecordCacheToCSV(entries)
		}
		return json.MarshalIndent(entries, "", "  ")

	case ExportHistory:
		if as.history == nil {
			return nil, fmt.Errorf("%w: lịch sử tra cứu chưa được bật", ErrUnsupportedExport)
		}
		entries, err := as.history.Recent(ctx, "", limit)
		if err != nil {
			return nil, err
		}
		if format == "csv" {
			return HistoryToCSV(entries)
		}
		return json.MarshalIndent(entries, "", "  ")
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedExport, dataType)
}

func (as *AdminService) findAll(ctx context.Context, collection string, limit int, out interface{}) error {
	if as.db == nil {
		return ErrStorageDisabled
	}

	cursor, err := as.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return fmt.Errorf("lỗi query data: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("lỗi decode results: %w", err)
	}
	return nil
}

// UnitsToCSV ghi danh mục ĐVHC ra CSV
func UnitsToCSV(units []models.AdminUnit) ([]byte, error) {
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, []string{
			u.Code, u.ParentCode, strconv.Itoa(u.Level), u.Name, u.Type, u.NormalizedName, u.DatasetVersion,
		})
	}
	return writeCSV([]string{"code", "parent_code", "level", "name", "type", "normalized_name", "dataset_version"}, rows)
}

// RecordCacheToCSV ghi các kết quả đã cache ra CSV
func RecordCacheToCSV(entries []models.RecordCache) ([]byte, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Fingerprint, e.OwnerName, e.NationalID, e.IssueNumber, e.Result.Status, e.RulesVersion, strconv.Itoa(e.AccessCount),
		})
	}
	return writeCSV([]string{"fingerprint", "owner_name", "national_id", "issue_number", "status", "rules_version", "access_count"}, rows)
}

// HistoryToCSV ghi lịch sử tra cứu ra CSV
func HistoryToCSV(entries []models.HistoryEntry) ([]byte, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10), e.Kind, e.Query, e.Normalized, strconv.Itoa(e.ResultCount), e.CreatedAt.Format(time.RFC3339),
		})
	}
	return writeCSV([]string{"id", "kind", "query", "normalized", "result_count", "created_at"}, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("lỗi ghi CSV: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("lỗi ghi CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
