package normalizer

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode"
)

const (
	// NoMatch file chắc chắn không khớp giấy chứng nhận
	NoMatch = -1
	// LowPriority file khớp nhưng chứa từ khóa ưu tiên thấp
	LowPriority = math.MaxInt32 - 2
)

// ErrBlankFileName MatchPriority được gọi với tên file rỗng
var ErrBlankFileName = errors.New("tên file không được để trống")

var issueNumberPattern = regexp.MustCompile(`^(\p{L}{1,2})([0-9]{6,8})$`)

// MatchOptions tham số so khớp tài liệu với giấy chứng nhận
type MatchOptions struct {
	CertificateNames    []string `json:"certificate_names"`
	IssueNumber         string   `json:"issue_number,omitempty"`
	ExcludeKeywords     []string `json:"exclude_keywords,omitempty"`
	LowPriorityKeywords []string `json:"low_priority_keywords,omitempty"`
}

// DocumentMatch tài liệu được chọn
type DocumentMatch struct {
	FileName string `json:"file_name"`
	Index    int    `json:"index"`
	Priority int    `json:"priority"`
}

// NormalizeIssueNumber bỏ '_', '.', '-' và khoảng trắng; nếu còn lại 1-2 chữ cái + 6-8 chữ số thì trả "AB 123456".
func NormalizeIssueNumber(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '_' || r == '.' || r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, nfc(text))

	m := issueNumberPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return cleaned
	}
	return strings.ToUpper(m[1]) + " " + m[2]
}

// MatchPriority chấm điểm tên file so với giấy chứng nhận: 0 là ưu tiên cao nhất,
// vị trí trong certificateNames khi khớp theo tên loại giấy, LowPriority hoặc NoMatch.
// Tên file rỗng là lỗi của bên gọi và gây panic.
func MatchPriority(fileName string, certificateNames []string, issueNumber string, excludeKeywords, lowPriorityKeywords []string) int {
	if strings.TrimSpace(fileName) == "" {
		panic(ErrBlankFileName)
	}

	compact := removeSpaces(strings.ToLower(nfc(fileName)))
	for _, kw := range excludeKeywords {
		k := removeSpaces(strings.ToLower(nfc(kw)))
		if k != "" && strings.Contains(compact, k) {
			return NoMatch
		}
	}

	fileSlug := Slug(fileName)
	priorityOr := func(p int) int {
		for _, kw := range lowPriorityKeywords {
			if k := Slug(kw); k != "" && strings.Contains(fileSlug, k) {
				return LowPriority
			}
		}
		return p
	}

	if issue := Slug(NormalizeIssueNumber(issueNumber)); issue != "" && strings.Contains(fileSlug, issue) {
		return priorityOr(0)
	}

	for i, name := range certificateNames {
		if n := Slug(name); n != "" && strings.Contains(fileSlug, n) {
			return priorityOr(i)
		}
	}
	return NoMatch
}

// PickDocument chọn file có độ ưu tiên nhỏ nhất (không âm); bằng nhau thì giữ file đứng trước.
// Tên file rỗng bị bỏ qua.
func PickDocument(fileNames []string, opts MatchOptions) (DocumentMatch, bool) {
	var best DocumentMatch
	found := false

	for i, name := range fileNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p := MatchPriority(name, opts.CertificateNames, opts.IssueNumber, opts.ExcludeKeywords, opts.LowPriorityKeywords)
		if p < 0 {
			continue
		}
		if !found || p < best.Priority {
			best = DocumentMatch{FileName: name, Index: i, Priority: p}
			found = true
		}
	}
	return best, found
}

func removeSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
