package responses

import "github.com/vbdlis-normalizer/app/models"

// ErrorResponse response lỗi
type ErrorResponse struct {
	Error     string      `json:"error"`             // Mã lỗi
	Message   string      `json:"message"`           // Thông báo lỗi
	Details   interface{} `json:"details,omitempty"` // Chi tiết lỗi
	Timestamp string      `json:"timestamp,omitempty"`
}

// SuccessResponse response thành công
type SuccessResponse struct {
	Success   bool        `json:"success"`        // Có thành công không
	Message   string      `json:"message"`        // Thông báo
	Data      interface{} `json:"data,omitempty"` // Dữ liệu
	Timestamp string      `json:"timestamp,omitempty"`
}

// HealthCheckResponse response kiểm tra sức khỏe
type HealthCheckResponse struct {
	Status       string            `json:"status"`        // Trạng thái sức khỏe
	Timestamp    string            `json:"timestamp"`     // Thời gian kiểm tra
	Uptime       string            `json:"uptime"`        // Thời gian hoạt động
	Version      string            `json:"version"`       // Phiên bản
	RulesVersion string            `json:"rules_version"` // Phiên bản bộ từ khóa
	Services     map[string]string `json:"services"`      // Trạng thái các service
}

// HistoryListResponse response danh sách lịch sử tra cứu
type HistoryListResponse struct {
	Kind    string                `json:"kind,omitempty"`
	Query   string                `json:"query,omitempty"`
	Entries []models.HistoryEntry `json:"entries"`
	Total   int                   `json:"total"`
}

// HistoryClearResponse response xóa lịch sử
type HistoryClearResponse struct {
	Kind    string `json:"kind,omitempty"`
	Deleted int64  `json:"deleted"`
}

// SeedUnitsResponse response seed danh mục ĐVHC
type SeedUnitsResponse struct {
	ValidationPassed   bool     `json:"validation_passed"`              // Validation có pass không
	Errors             []string `json:"errors,omitempty"`               // Lỗi validation
	Warnings           []string `json:"warnings,omitempty"`             // Cảnh báo
	EstimatedBuildTime string   `json:"estimated_build_time,omitempty"` // Thời gian build ước tính
	UnitsProcessed     int      `json:"units_processed,omitempty"`      // Số units đã xử lý
	UnitsDeleted       int64    `json:"units_deleted,omitempty"`        // Số units phiên bản cũ đã xóa
	IndexesBuilt       int      `json:"indexes_built,omitempty"`        // Số indexes đã build
	ProcessingTimeMs   int64    `json:"processing_time_ms,omitempty"`   // Thời gian xử lý (ms)
	DryRun             bool     `json:"dry_run"`                        // Có phải dry run không
	Message            string   `json:"message"`                        // Thông báo
}

// UnitSearchResponse response tìm ĐVHC
type UnitSearchResponse struct {
	Query string             `json:"query"`
	Units []models.AdminUnit `json:"units"`
	Total int                `json:"total"`
}
