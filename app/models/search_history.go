package models

import "time"

// HistoryEntry một lần tra cứu của người dùng
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Kind        string    `json:"kind"`         // Loại tra cứu
	Query       string    `json:"query"`        // Chuỗi người dùng nhập
	Normalized  string    `json:"normalized"`   // Giá trị sau chuẩn hóa
	SearchKey   string    `json:"search_key"`   // Khóa ASCII dùng để so khớp mờ
	ResultCount int       `json:"result_count"` // Số kết quả trả về
	CreatedAt   time.Time `json:"created_at"`
	Score       float64   `json:"score,omitempty"` // Điểm tương đồng khi tìm trong lịch sử
}

// History kind constants
const (
	HistoryOwnerName   = "owner_name"
	HistoryNationalID  = "national_id"
	HistoryIssueNumber = "issue_number"
	HistoryParcel      = "parcel"
)

// IsValidHistoryKind kiểm tra loại tra cứu có hợp lệ không
func IsValidHistoryKind(kind string) bool {
	switch kind {
	case HistoryOwnerName, HistoryNationalID, HistoryIssueNumber, HistoryParcel:
		return true
	}
	return false
}
