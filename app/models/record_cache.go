package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecordCache cache kết quả chuẩn hóa trong MongoDB
type RecordCache struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Fingerprint  string             `bson:"fingerprint" json:"fingerprint"`     // sha256 của cache key
	CacheKey     string             `bson:"cache_key" json:"cache_key"`         // Key gốc để warm up L1
	OwnerName    string             `bson:"owner_name" json:"owner_name"`       // Tên chủ sử dụng chính
	NationalID   string             `bson:"national_id" json:"national_id"`     // CCCD chủ sử dụng chính
	IssueNumber  string             `bson:"issue_number" json:"issue_number"`   // Số phát hành GCN
	Result       RecordResult       `bson:"result" json:"result"`               // Kết quả chuẩn hóa
	RulesVersion string             `bson:"rules_version" json:"rules_version"` // Phiên bản bộ từ khóa
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastAccessed time.Time          `bson:"last_accessed" json:"last_accessed"`
	AccessCount  int                `bson:"access_count" json:"access_count"`
}

// NewRecordCache tạo mới RecordCache
func NewRecordCache(fingerprint, cacheKey string, result RecordResult) *RecordCache {
	entry := &RecordCache{
		Fingerprint:  fingerprint,
		CacheKey:     cacheKey,
		IssueNumber:  result.Certificate.IssueNumber,
		Result:       result,
		RulesVersion: result.RulesVersion,
		CreatedAt:    time.Now(),
		LastAccessed: time.Now(),
		AccessCount:  1,
	}
	if owner := result.PrimaryOwner(); owner != nil {
		entry.OwnerName = owner.FullName
		entry.NationalID = owner.NationalID
	}
	return entry
}

// IsExpired kiểm tra cache có hết hạn không (dựa trên thời gian tạo)
func (rc *RecordCache) IsExpired(ttl time.Duration) bool {
	return time.Since(rc.CreatedAt) > ttl
}
