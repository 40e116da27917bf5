package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/normalizer"
)

const seedBatchSize = 1000

// ErrUnitNotFound không tìm thấy đơn vị hành chính
var ErrUnitNotFound = errors.New("không tìm thấy đơn vị hành chính")

// SearchConfig cấu hình cho Meilisearch
type SearchConfig struct {
	Host          string
	APIKey        string
	IndexName     string
	Timeout       time.Duration
	MaxCandidates int
}

// UnitSearcher tìm kiếm ĐVHC sử dụng Meilisearch
type UnitSearcher struct {
	client        meilisearch.ServiceManager
	logger        *zap.Logger
	indexName     string
	timeout       time.Duration
	maxCandidates int
}

// NewUnitSearcher tạo mới UnitSearcher và kiểm tra kết nối
func NewUnitSearcher(config SearchConfig, logger *zap.Logger) (*UnitSearcher, error) {
	client := meilisearch.New(config.Host, meilisearch.WithAPIKey(config.APIKey))

	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("không thể kết nối Meilisearch: %w", err)
	}

	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 20
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &UnitSearcher{
		client:        client,
		logger:        logger,
		indexName:     config.IndexName,
		timeout:       config.Timeout,
		maxCandidates: config.MaxCandidates,
	}, nil
}

// SearchUnits tìm ĐVHC theo tên, lọc theo cấp (0 là mọi cấp) và mã đơn vị cha
func (us *UnitSearcher) SearchUnits(ctx context.Context, query string, level int, parentCode string, limit int) ([]models.AdminUnit, error) {
	if limit <= 0 || limit > us.maxCandidates {
		limit = us.maxCandidates
	}

	ctx, cancel := context.WithTimeout(ctx, us.timeout)
	defer cancel()

	req := &meilisearch.SearchRequest{Limit: int64(limit)}
	if filter := FilterLevelParent(level, parentCode); filter != "" {
		req.Filter = filter
	}

	// Tìm trên cả tên có dấu và khóa không dấu
	result, err := us.search(ctx, normalizer.CleanText(query), req)
	if err != nil {
		return nil, err
	}

	us.logger.Debug("Tìm ĐVHC",
		zap.String("query", query),
		zap.Int("level", level),
		zap.String("parent_code", parentCode),
		zap.Int("hits", len(result.Hits)))

	return parseSearchResults(result), nil
}

// GetUnit lấy ĐVHC theo mã
func (us *UnitSearcher) GetUnit(ctx context.Context, code string) (*models.AdminUnit, error) {
	if code == "" {
		return nil, errors.New("mã ĐVHC không được để trống")
	}

	ctx, cancel := context.WithTimeout(ctx, us.timeout)
	defer cancel()

	result, err := us.search(ctx, "", &meilisearch.SearchRequest{Filter: FilterCode(code), Limit: 1})
	if err != nil {
		return nil, err
	}

	units := parseSearchResults(result)
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, code)
	}
	return &units[0], nil
}

// search chạy truy vấn và tôn trọng deadline của ctx
func (us *UnitSearcher) search(ctx context.Context, query string, req *meilisearch.SearchRequest) (*meilisearch.SearchResponse, error) {
	type outcome struct {
		resp *meilisearch.SearchResponse
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		resp, err := us.client.Index(us.indexName).Search(query, req)
		done <- outcome{resp, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("tìm kiếm Meilisearch quá hạn: %w", ctx.Err())
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("lỗi tìm kiếm Meilisearch: %w", out.err)
		}
		return out.resp, nil
	}
}

// BuildIndexes cấu hình index Meilisearch cho danh mục ĐVHC
func (us *UnitSearcher) BuildIndexes() error {
	index := us.client.Index(us.indexName)

	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "normalized_name", "aliases"},
		FilterableAttributes: []string{"code", "level", "parent_code", "type", "dataset_version"},
		SortableAttributes:   []string{"level", "code"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		StopWords:            []string{"cua", "va", "tai", "o", "trong"},
		Synonyms: map[string][]string{
			"tp":  {"thanh pho"},
			"tx":  {"thi xa"},
			"tt":  {"thi tran"},
			"hcm": {"ho chi minh"},
			"q":   {"quan"},
			"p":   {"phuong"},
			"h":   {"huyen"},
		},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  3,
				TwoTypos: 7,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("lỗi cấu hình index: %w", err)
	}

	us.logger.Info("Đã cấu hình index Meilisearch thành công", zap.Int64("task_uid", task.TaskUID))
	return nil
}

// SeedData nạp danh mục ĐVHC vào Meilisearch theo lô 1000 document
func (us *UnitSearcher) SeedData(units []models.AdminUnit) error {
	if len(units) == 0 {
		return errors.New("không có dữ liệu để seed")
	}

	index := us.client.Index(us.indexName)
	documents := DocumentsFromUnits(units)

	for _, b := range batchRanges(len(documents), seedBatchSize) {
		task, err := index.AddDocuments(documents[b[0]:b[1]], "id")
		if err != nil {
			return fmt.Errorf("lỗi thêm documents batch %d-%d: %w", b[0], b[1], err)
		}

		us.logger.Info("Đã thêm batch documents",
			zap.Int("from", b[0]),
			zap.Int("to", b[1]),
			zap.Int64("task_uid", task.TaskUID))
	}

	us.logger.Info("Đã seed data thành công", zap.Int("total_documents", len(documents)))
	return nil
}

// DocumentsFromUnits chuyển ĐVHC sang document Meilisearch, mã ĐVHC làm khóa chính
func DocumentsFromUnits(units []models.AdminUnit) []map[string]interface{} {
	documents := make([]map[string]interface{}, 0, len(units))
	for _, unit := range units {
		normalizedName := unit.NormalizedName
		if normalizedName == "" {
			normalizedName = normalizer.SearchKey(unit.Name)
		}
		documents = append(documents, map[string]interface{}{
			"id":              unit.Code,
			"code":            unit.Code,
			"parent_code":     unit.ParentCode,
			"level":           unit.Level,
			"name":            unit.Name,
			"normalized_name": normalizedName,
			"type":            unit.Type,
			"aliases":         unit.Aliases,
			"path":            unit.Path,
			"dataset_version": unit.DatasetVersion,
		})
	}
	return documents
}

// batchRanges chia [0, n) thành các đoạn [from, to) dài tối đa size
func batchRanges(n, size int) [][2]int {
	var ranges [][2]int
	for i := 0; i < n; i += size {
		end := i + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{i, end})
	}
	return ranges
}

// parseSearchResults parse kết quả từ Meilisearch thành AdminUnit
func parseSearchResults(result *meilisearch.SearchResponse) []models.AdminUnit {
	units := make([]models.AdminUnit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		units = append(units, unitFromHit(hitMap))
	}
	return units
}

func unitFromHit(hit map[string]interface{}) models.AdminUnit {
	unit := models.AdminUnit{}

	if v, ok := hit["code"].(string); ok {
		unit.Code = v
	}
	if v, ok := hit["parent_code"].(string); ok {
		unit.ParentCode = v
	}
	if v, ok := hit["name"].(string); ok {
		unit.Name = v
	}
	if v, ok := hit["normalized_name"].(string); ok {
		unit.NormalizedName = v
	}
	if v, ok := hit["type"].(string); ok {
		unit.Type = v
	}
	if v, ok := hit["dataset_version"].(string); ok {
		unit.DatasetVersion = v
	}
	// JSON number luôn về float64
	if v, ok := hit["level"].(float64); ok {
		unit.Level = int(v)
	}
	unit.Aliases = stringSlice(hit["aliases"])
	unit.Path = stringSlice(hit["path"])

	return unit
}

func stringSlice(raw interface{}) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
