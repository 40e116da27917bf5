package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUnit đơn vị hành chính (ĐVHC): tỉnh, huyện, xã
type AdminUnit struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code           string             `bson:"code" json:"code"`                                   // Mã ĐVHC
	ParentCode     string             `bson:"parent_code,omitempty" json:"parent_code,omitempty"` // Mã đơn vị cha
	Level          int                `bson:"level" json:"level"`                                 // 1=tỉnh, 2=huyện, 3=xã
	Name           string             `bson:"name" json:"name"`                                   // Tên đầy đủ
	NormalizedName string             `bson:"normalized_name" json:"normalized_name"`             // Tên không dấu, lowercase
	Type           string             `bson:"type" json:"type"`                                   // Tỉnh, Thành phố, Quận, Huyện, Phường, Xã...
	Aliases        []string           `bson:"aliases,omitempty" json:"aliases,omitempty"`
	Path           []string           `bson:"path" json:"path"` // Mã các cấp từ tỉnh đến đơn vị hiện tại
	DatasetVersion string             `bson:"dataset_version" json:"dataset_version"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Level constants
const (
	LevelProvince = 1
	LevelDistrict = 2
	LevelWard     = 3
)

var unitTypesByLevel = map[int][]string{
	LevelProvince: {"tỉnh", "thành phố"},
	LevelDistrict: {"quận", "huyện", "thị xã", "thành phố"},
	LevelWard:     {"phường", "xã", "thị trấn", "đặc khu"},
}

// IsValidLevel kiểm tra level có hợp lệ không
func (au *AdminUnit) IsValidLevel() bool {
	return au.Level >= LevelProvince && au.Level <= LevelWard
}

// IsValidType kiểm tra loại đơn vị có phù hợp với cấp không
func (au *AdminUnit) IsValidType() bool {
	t := strings.ToLower(strings.TrimSpace(au.Type))
	for _, valid := range unitTypesByLevel[au.Level] {
		if t == valid {
			return true
		}
	}
	return false
}

// GetFullPath trả về đường dẫn mã từ tỉnh đến đơn vị hiện tại
func (au *AdminUnit) GetFullPath() string {
	if len(au.Path) == 0 {
		return au.Code
	}
	return strings.Join(au.Path, " > ")
}
