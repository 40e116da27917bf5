package requests

import "github.com/vbdlis-normalizer/app/models"

// SeedUnitsRequest request nạp danh mục ĐVHC
type SeedUnitsRequest struct {
	DatasetVersion string             `json:"dataset_version" binding:"required"` // Phiên bản danh mục
	Data           []models.AdminUnit `json:"data" binding:"required"`
	RebuildIndexes bool               `json:"rebuild_indexes,omitempty"` // Có cập nhật settings Meilisearch không
}

// InvalidateCacheRequest request xóa cache
type InvalidateCacheRequest struct {
	RulesVersion string `json:"rules_version,omitempty"` // Rỗng là xóa toàn bộ
}
