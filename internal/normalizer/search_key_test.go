package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"diacritics and đ", "Nguyễn Văn Đức", "nguyen van duc"},
		{"punctuation to space", "GCN: CS-123.456", "gcn cs 123 456"},
		{"collapse spaces", "  Trần   Thị\tBé ", "tran thi be"},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchKey(tt.input))
		})
	}
}

func TestNameSearchKey(t *testing.T) {
	assert.Equal(t, "nguyen van a", NameSearchKey("Hộ ông: Nguyễn Văn A"))
	assert.Equal(t, "le thi b", NameSearchKey("bà Lê Thị B"))
	assert.Equal(t, "ong", NameSearchKey("Ông"), "a lone honorific is kept")
	assert.Equal(t, "bang van tu", NameSearchKey("Bàng Văn Tú"))
}
