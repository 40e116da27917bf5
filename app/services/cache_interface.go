package services

import (
	"context"
	"time"

	"github.com/vbdlis-normalizer/app/models"
)

// CacheStats thống kê cache
type CacheStats struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

// ICacheService interface định nghĩa các method cần thiết cho cache kết quả chuẩn hóa
type ICacheService interface {
	// Get lấy kết quả từ cache
	Get(ctx context.Context, key string) (*models.RecordResult, bool, error)

	// Set lưu kết quả vào cache
	Set(ctx context.Context, key string, result *models.RecordResult) error

	// Delete xóa kết quả khỏi cache
	Delete(ctx context.Context, key string) error

	// Clear xóa tất cả cache
	Clear(ctx context.Context) error

	// InvalidateByRulesVersion xóa các kết quả được tạo bởi phiên bản bộ từ khóa khác rulesVersion
	InvalidateByRulesVersion(ctx context.Context, rulesVersion string) error

	// GetStats lấy thống kê cache
	GetStats(ctx context.Context) (*CacheStats, error)

	// Exists kiểm tra key có tồn tại không
	Exists(ctx context.Context, key string) (bool, error)

	// GetTTL lấy TTL còn lại của key
	GetTTL(ctx context.Context, key string) (time.Duration, error)

	// Close đóng kết nối (nếu cần)
	Close() error
}

func hitRate(hits, miss int64) float64 {
	if hits+miss == 0 {
		return 0
	}
	return float64(hits) / float64(hits+miss)
}
