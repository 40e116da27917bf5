package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

var reSpaces = regexp.MustCompile(`\s+`)

// honorificTokens danh xưng bỏ khỏi khóa tra cứu tên (sau khi đã về ASCII)
var honorificTokens = map[string]bool{"ho": true, "ong": true, "ba": true}

func unaccent(s string) string { return strings.ToLower(unidecode.Unidecode(s)) }

// SearchKey khóa ASCII dùng để so khớp mờ: bỏ dấu (kể cả đ -> d), lowercase,
// chỉ giữ chữ, số và một khoảng trắng giữa các từ
func SearchKey(raw string) string {
	s := unaccent(nfc(raw))
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NameSearchKey như SearchKey nhưng bỏ các danh xưng đứng đầu (hộ, ông, bà)
func NameSearchKey(raw string) string {
	words := strings.Fields(SearchKey(raw))
	for len(words) > 1 && honorificTokens[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}
