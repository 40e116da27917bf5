// Package search tìm kiếm danh mục đơn vị hành chính trên Meilisearch
package search

import (
	"fmt"
	"strings"
)

// FilterLevelParent tạo filter theo cấp và mã đơn vị cha
func FilterLevelParent(level int, parentCode string) string {
	if parentCode == "" {
		return FilterLevel(level)
	}
	return fmt.Sprintf("level = %d AND parent_code = %q", level, parentCode)
}

// FilterLevel tạo filter theo cấp; level <= 0 là mọi cấp
func FilterLevel(level int) string {
	if level <= 0 {
		return ""
	}
	return fmt.Sprintf("level = %d", level)
}

// FilterCode tạo filter theo mã ĐVHC
func FilterCode(code string) string {
	return fmt.Sprintf("code = %q", strings.TrimSpace(code))
}
