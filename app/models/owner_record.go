package models

import "time"

// RawOwnerRow một dòng "Chủ sử dụng" lấy từ VBDLIS, giữ nguyên giá trị các ô
type RawOwnerRow struct {
	Name          string   `json:"name" bson:"name"`                                         // Tên chủ sử dụng (có thể 2 người)
	Gender        string   `json:"gender,omitempty" bson:"gender,omitempty"`                 // Giới tính
	NationalID    string   `json:"national_id,omitempty" bson:"national_id,omitempty"`       // Số CMND/CCCD
	BirthDate     string   `json:"birth_date,omitempty" bson:"birth_date,omitempty"`         // Ngày/năm sinh hoặc serial
	Address       string   `json:"address,omitempty" bson:"address,omitempty"`               // Địa chỉ thường trú
	IssueNumber   string   `json:"issue_number,omitempty" bson:"issue_number,omitempty"`     // Số phát hành GCN
	DocumentFiles []string `json:"document_files,omitempty" bson:"document_files,omitempty"` // Tên các file scan đính kèm
	MapSheet      string   `json:"map_sheet,omitempty" bson:"map_sheet,omitempty"`           // Số tờ bản đồ
	ParcelNumber  string   `json:"parcel_number,omitempty" bson:"parcel_number,omitempty"`   // Số thửa
}

// Person một chủ sử dụng sau chuẩn hóa
type Person struct {
	FullName     string `json:"full_name" bson:"full_name"`
	Gender       string `json:"gender,omitempty" bson:"gender,omitempty"`
	NationalID   string `json:"national_id,omitempty" bson:"national_id,omitempty"` // Dạng chuẩn 12 chữ số
	IDDecoded    bool   `json:"id_decoded" bson:"id_decoded"`
	ProvinceCode string `json:"province_code,omitempty" bson:"province_code,omitempty"`
	BirthDate    string `json:"birth_date,omitempty" bson:"birth_date,omitempty"` // dd/MM/yyyy
	BirthYear    int    `json:"birth_year,omitempty" bson:"birth_year,omitempty"`
}

// CertificateInfo thông tin giấy chứng nhận
type CertificateInfo struct {
	IssueNumber      string `json:"issue_number,omitempty" bson:"issue_number,omitempty"`
	DocumentFile     string `json:"document_file,omitempty" bson:"document_file,omitempty"`
	DocumentPriority int    `json:"document_priority" bson:"document_priority"`
}

// RecordResult kết quả chuẩn hóa một dòng chủ sử dụng
type RecordResult struct {
	Raw          RawOwnerRow     `json:"raw" bson:"raw"`
	Fingerprint  string          `json:"fingerprint" bson:"fingerprint"`
	OwnerKind    string          `json:"owner_kind" bson:"owner_kind"`
	Owners       []Person        `json:"owners" bson:"owners"`
	Address      string          `json:"address,omitempty" bson:"address,omitempty"`
	Certificate  CertificateInfo `json:"certificate" bson:"certificate"`
	Flags        []string        `json:"flags" bson:"flags"`
	Status       string          `json:"status" bson:"status"`
	RulesVersion string          `json:"rules_version" bson:"rules_version"`
	NormalizedAt time.Time       `json:"normalized_at" bson:"normalized_at"`
}

// Owner kind constants
const (
	OwnerIndividual   = "individual"
	OwnerCouple       = "couple"
	OwnerHousehold    = "household"
	OwnerOrganization = "organization"
)

// Status constants
const (
	StatusNormalized  = "normalized"
	StatusNeedsReview = "needs_review"
	StatusFailed      = "failed"
)

// Quality flags
const (
	FlagMissingName      = "MISSING_NAME"
	FlagMissingID        = "MISSING_ID"
	FlagInvalidID        = "INVALID_ID"
	FlagMissingBirthDate = "MISSING_BIRTH_DATE"
	FlagBirthYearFromID  = "BIRTH_YEAR_FROM_ID"
	FlagDeceasedFiltered = "DECEASED_FILTERED"
	FlagNoDocument       = "NO_DOCUMENT"
)

// HasFlag kiểm tra kết quả có cờ chất lượng
func (r *RecordResult) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag thêm cờ nếu chưa có
func (r *RecordResult) AddFlag(flag string) {
	if !r.HasFlag(flag) {
		r.Flags = append(r.Flags, flag)
	}
}

// PrimaryOwner chủ sử dụng đầu tiên, nil nếu không có
func (r *RecordResult) PrimaryOwner() *Person {
	if len(r.Owners) == 0 {
		return nil
	}
	return &r.Owners[0]
}
