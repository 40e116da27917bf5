package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vbdlis-normalizer/app/models"
)

// LegacyUnit một dòng trong file địa giới cũ (address.json): id số, parent_id trỏ tới cấp trên
type LegacyUnit struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	KeyWord   string `json:"key_word"`
	Code      string `json:"code"`
	UnitLevel int    `json:"unit_level"`
	ParentID  int    `json:"parent_id"`
}

// ParseLegacyUnits đọc file địa giới cũ và chuyển sang AdminUnit
func ParseLegacyUnits(raw []byte) ([]models.AdminUnit, error) {
	var items []LegacyUnit
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("lỗi đọc file địa giới cũ: %w", err)
	}
	return ConvertLegacyUnits(items), nil
}

// ConvertLegacyUnits chuyển danh sách địa giới cũ sang AdminUnit.
// Đơn vị có cấp không hợp lệ hoặc trỏ tới cha không tồn tại bị bỏ qua.
func ConvertLegacyUnits(items []LegacyUnit) []models.AdminUnit {
	// id trong file cũ chỉ duy nhất trong từng cấp
	type key struct{ level, id int }
	codes := make(map[key]string, len(items))
	for _, item := range items {
		codes[key{item.UnitLevel, item.ID}] = legacyCode(item)
	}

	units := make([]models.AdminUnit, 0, len(items))
	for _, item := range items {
		if item.UnitLevel < models.LevelProvince || item.UnitLevel > models.LevelWard {
			continue
		}

		unit := models.AdminUnit{
			Code:    codes[key{item.UnitLevel, item.ID}],
			Level:   item.UnitLevel,
			Name:    strings.TrimSpace(item.Name),
			Type:    detectUnitType(item.Name, item.UnitLevel),
			Aliases: legacyAliases(item.KeyWord),
		}
		if item.UnitLevel > models.LevelProvince {
			parent, ok := codes[key{item.UnitLevel - 1, item.ParentID}]
			if !ok {
				continue
			}
			unit.ParentCode = parent
		}
		units = append(units, unit)
	}
	return units
}

// legacyCode ưu tiên mã ĐVHC có sẵn, không có thì sinh từ id theo độ dài mã chuẩn của từng cấp
func legacyCode(item LegacyUnit) string {
	if code := strings.TrimSpace(item.Code); code != "" {
		return code
	}
	switch item.UnitLevel {
	case models.LevelProvince:
		return fmt.Sprintf("%02d", item.ID)
	case models.LevelDistrict:
		return fmt.Sprintf("%03d", item.ID)
	default:
		return fmt.Sprintf("%05d", item.ID)
	}
}

var unitTypePrefixes = map[int][]string{
	models.LevelProvince: {"thành phố", "tỉnh"},
	models.LevelDistrict: {"thành phố", "thị xã", "quận", "huyện"},
	models.LevelWard:     {"thị trấn", "phường", "đặc khu", "xã"},
}

// detectUnitType lấy loại đơn vị từ tiền tố tên, mặc định theo cấp
func detectUnitType(name string, level int) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, prefix := range unitTypePrefixes[level] {
		if strings.HasPrefix(lower, prefix) {
			return titleFirst(prefix)
		}
	}
	switch level {
	case models.LevelProvince:
		return "Tỉnh"
	case models.LevelDistrict:
		return "Huyện"
	default:
		return "Xã"
	}
}

func titleFirst(s string) string {
	for i, r := range s {
		return strings.ToUpper(string(r)) + s[i+len(string(r)):]
	}
	return s
}

// legacyAliases key_word trong file cũ phân tách bằng dấu phẩy
func legacyAliases(keyWord string) []string {
	var aliases []string
	for _, part := range strings.Split(keyWord, ",") {
		if p := strings.TrimSpace(part); p != "" {
			aliases = append(aliases, p)
		}
	}
	return aliases
}
