package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIssueNumber(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"AB-123456", "AB 123456"},
		{"a 1234567", "A 1234567"},
		{"cs_12.345.678", "CS 12345678"},
		{"đ 123456", "Đ 123456"},
		{"no-match-here", "nomatchhere"},
		{"ABC123456", "ABC123456"},
		{"AB12345", "AB12345"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeIssueNumber(tc.input))
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "giaychungnhan", Slug("Giấy chứng nhận"))
	assert.Equal(t, "cs123456pdf", Slug("CS_123-456.pdf"))
	assert.Equal(t, "sođo", Slug("Sổ Đỏ"))
}

func TestMatchPriority(t *testing.T) {
	names := []string{"giấy chứng nhận", "gcn", "sổ đỏ"}
	low := []string{"bản sao"}

	testCases := []struct {
		name     string
		file     string
		issue    string
		exclude  []string
		expected int
	}{
		{name: "exclude keyword wins", file: "GCN 123456 cu.pdf", issue: "123456", exclude: []string{"cu"}, expected: NoMatch},
		{name: "exclude ignores spaces", file: "gcn thu hoi.pdf", exclude: []string{"thu hoi"}, expected: NoMatch},
		{name: "issue number", file: "CS 123456 scan.pdf", issue: "cs-123456", expected: 0},
		{name: "issue number low priority", file: "CS123456 ban sao.pdf", issue: "CS 123456", expected: LowPriority},
		{name: "certificate name index", file: "Sổ_Đỏ_thua_12.jpg", expected: 2},
		{name: "đ is not folded", file: "So_Do_thua_12.jpg", expected: NoMatch},
		{name: "first listed name wins", file: "Giay chung nhan (GCN).pdf", expected: 0},
		{name: "certificate name low priority", file: "GCN - Bản sao.pdf", expected: LowPriority},
		{name: "no match", file: "hop_dong_mua_ban.pdf", issue: "CS 999999", expected: NoMatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MatchPriority(tc.file, names, tc.issue, tc.exclude, low))
		})
	}
}

func TestMatchPriority_BlankFileNamePanics(t *testing.T) {
	assert.PanicsWithValue(t, ErrBlankFileName, func() {
		MatchPriority("  ", []string{"gcn"}, "", nil, nil)
	})
}

func TestPickDocument(t *testing.T) {
	opts := MatchOptions{
		CertificateNames:    []string{"giấy chứng nhận", "gcn"},
		IssueNumber:         "CS 123456",
		ExcludeKeywords:     []string{"nháp"},
		LowPriorityKeywords: []string{"photo"},
	}

	files := []string{"", "GCN photo.pdf", "GCN.pdf", "CS123456 nháp.pdf", "CS123456.pdf"}
	match, ok := PickDocument(files, opts)
	assert.True(t, ok)
	assert.Equal(t, DocumentMatch{FileName: "CS123456.pdf", Index: 4, Priority: 0}, match)

	match, ok = PickDocument([]string{"GCN photo.pdf", "gcn-2.pdf"}, opts)
	assert.True(t, ok)
	assert.Equal(t, "gcn-2.pdf", match.FileName)
	assert.Equal(t, 1, match.Priority)

	_, ok = PickDocument([]string{"hop dong.pdf"}, opts)
	assert.False(t, ok)
}
