package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics loại bỏ dấu tiếng Việt (NFD -> bỏ Mn -> NFC). Chữ đ/Đ được giữ nguyên.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug chuẩn hóa tên file/số phát hành để so khớp: lowercase, bỏ dấu, chỉ giữ chữ và số
func Slug(s string) string {
	stripped := StripDiacritics(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpaces gộp các khoảng trắng liên tiếp thành một và trim hai đầu
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanText chuẩn hóa NFC và gộp khoảng trắng, giữ nguyên dấu và hoa thường
func CleanText(s string) string {
	return CollapseSpaces(nfc(s))
}

// nfc chuẩn hóa về dạng dựng sẵn để so khớp tiền tố/từ khóa ổn định
func nfc(s string) string {
	return norm.NFC.String(s)
}

// digitsOnly giữ lại các chữ số ASCII
func digitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
