package utils

import "github.com/google/uuid"

// GenerateUUID tạo UUID v4
func GenerateUUID() string {
	return uuid.NewString()
}

// IsValidUUID kiểm tra chuỗi có phải UUID hợp lệ
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
