package requests

import "github.com/vbdlis-normalizer/app/models"

// TextRequest request chuẩn hóa một chuỗi
type TextRequest struct {
	Text string `json:"text"`
}

// GenderRequest request chuẩn hóa giới tính
type GenderRequest struct {
	Text       string `json:"text"`        // Giá trị giới tính ghi trong ô
	NationalID string `json:"national_id"` // Số định danh để suy giới tính khi ô trống
	Name       string `json:"name"`        // Tên có danh xưng để suy giới tính
}

// MatchRequest request chọn file giấy chứng nhận
type MatchRequest struct {
	FileNames           []string `json:"file_names" binding:"required,min=1"`
	IssueNumber         string   `json:"issue_number,omitempty"`
	CertificateNames    []string `json:"certificate_names,omitempty"` // Rỗng thì dùng bộ từ khóa mặc định
	ExcludeKeywords     []string `json:"exclude_keywords,omitempty"`
	LowPriorityKeywords []string `json:"low_priority_keywords,omitempty"`
}

// NormalizeOptions tùy chọn chuẩn hóa bản ghi
type NormalizeOptions struct {
	UseCache      bool `json:"use_cache,omitempty"`      // Có sử dụng cache không
	RecordHistory bool `json:"record_history,omitempty"` // Ghi lịch sử tra cứu theo tên/CCCD/số phát hành
}

// NormalizeRecordRequest request chuẩn hóa một dòng chủ sử dụng
type NormalizeRecordRequest struct {
	Record  models.RawOwnerRow `json:"record"`
	Options NormalizeOptions   `json:"options,omitempty"`
}

// BatchNormalizeRequest request chuẩn hóa hàng loạt
type BatchNormalizeRequest struct {
	Records []models.RawOwnerRow `json:"records" binding:"required,min=1,max=20000"` // Tối đa 20k dòng
	Options NormalizeOptions     `json:"options,omitempty"`
}

// RecordHistoryRequest request ghi lịch sử tra cứu
type RecordHistoryRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Query       string `json:"query" binding:"required"`
	ResultCount int    `json:"result_count,omitempty"`
}
