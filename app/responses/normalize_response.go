package responses

import (
	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/normalizer"
)

// DateResponse response chuẩn hóa ngày
type DateResponse struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"` // dd/MM/yyyy, rỗng khi không nhận dạng được
	Recognized bool   `json:"recognized"`
}

// NameResponse response chuẩn hóa tên
type NameResponse struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
	Gender     string `json:"gender,omitempty"` // Giới tính suy từ danh xưng
}

// GenderResponse response chuẩn hóa giới tính
type GenderResponse struct {
	Input  string `json:"input"`
	Gender string `json:"gender"` // "Nam", "Nữ" hoặc rỗng
}

// NationalIDResponse response chuẩn hóa CCCD
type NationalIDResponse struct {
	Input        string `json:"input"`
	Normalized   string `json:"normalized,omitempty"`
	Valid        bool   `json:"valid"`
	ProvinceCode string `json:"province_code,omitempty"`
	Gender       string `json:"gender,omitempty"`
	BirthYear    int    `json:"birth_year,omitempty"`
	Error        string `json:"error,omitempty"` // Lý do không giải mã được
}

// IssueNumberResponse response chuẩn hóa số phát hành
type IssueNumberResponse struct {
	Input      string `json:"input"`
	Normalized string `json:"normalized"`
}

// SplitResponse response tách hai phần
type SplitResponse struct {
	Input  string `json:"input"`
	First  string `json:"first"`
	Second string `json:"second"`
}

// MatchResponse response chọn file giấy chứng nhận
type MatchResponse struct {
	Best       *normalizer.DocumentMatch  `json:"best,omitempty"`
	Candidates []normalizer.DocumentMatch `json:"candidates"` // Điểm ưu tiên của từng file, theo thứ tự gửi lên
}

// NormalizeRecordResponse response chuẩn hóa một dòng chủ sử dụng
type NormalizeRecordResponse struct {
	Result           *models.RecordResult `json:"result"`
	RulesVersion     string               `json:"rules_version"`
	ProcessingTimeMs int64                `json:"processing_time_ms"` // Thời gian xử lý (ms)
	CacheHit         bool                 `json:"cache_hit"`          // Có hit cache không
}

// BatchJobResponse response tạo job chuẩn hóa hàng loạt
type BatchJobResponse struct {
	JobID            string `json:"job_id"`            // ID của job
	EstimatedSeconds int    `json:"estimated_seconds"` // Thời gian ước tính (giây)
	TotalRecords     int    `json:"total_records"`     // Tổng số dòng
	Message          string `json:"message"`           // Thông báo
}

// JobStatusResponse response trạng thái job
type JobStatusResponse struct {
	JobID              string  `json:"job_id"`              // ID của job
	Status             string  `json:"status"`              // Trạng thái job
	Progress           float64 `json:"progress"`            // Tiến độ (0.0 - 1.0)
	Processed          int     `json:"processed"`           // Số dòng đã xử lý
	Total              int     `json:"total"`               // Tổng số dòng
	NeedsReview        int     `json:"needs_review"`        // Số dòng cần xem lại
	EstimatedRemaining int     `json:"estimated_remaining"` // Thời gian còn lại ước tính (giây)
	Message            string  `json:"message"`             // Thông báo
}
