package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	GenderMale   = "Nam"
	GenderFemale = "Nữ"
)

type honorific struct {
	prefix string
	gender string
}

// honorifics theo đúng thứ tự ưu tiên, khớp đầu tiên thắng
var honorifics = []honorific{
	{"hộ ông", GenderMale},
	{"ông", GenderMale},
	{"hộ ông:", GenderMale},
	{"ông:", GenderMale},
	{"hộ bà", GenderFemale},
	{"bà", GenderFemale},
	{"hộ bà:", GenderFemale},
	{"bà:", GenderFemale},
}

// NormalizeVietnameseName bỏ danh xưng đầu chuỗi (ông, bà, hộ ông...) và viết hoa chữ cái đầu mỗi từ
func NormalizeVietnameseName(text string) string {
	s := strings.ToLower(CollapseSpaces(nfc(text)))
	if _, rest, ok := matchHonorific(s); ok {
		s = strings.TrimLeft(rest, ": ")
	}
	return titleCase(s)
}

// GenderFromNamePrefix suy ra giới tính từ danh xưng: "Nam", "Nữ" hoặc ""
func GenderFromNamePrefix(text string) string {
	s := strings.ToLower(CollapseSpaces(nfc(text)))
	if h, _, ok := matchHonorific(s); ok {
		return h.gender
	}
	return ""
}

// NormalizeGender ưu tiên giá trị giới tính ghi rõ; nếu trống thì suy từ số định danh, sau đó từ danh xưng.
func NormalizeGender(text, idNumber, name string) string {
	explicit := strings.ToLower(strings.TrimSpace(nfc(text)))
	if explicit != "" {
		switch {
		case strings.HasPrefix(explicit, "nu"), strings.HasPrefix(explicit, "nữ"):
			return GenderFemale
		case strings.HasPrefix(explicit, "nam"):
			return GenderMale
		}
		return ""
	}

	if canonical, ok := NormalizeNationalID(idNumber); ok {
		if info, err := DecodeNationalID(canonical); err == nil {
			return info.Gender
		}
	}
	return GenderFromNamePrefix(name)
}

// matchHonorific chỉ nhận danh xưng ở đầu chuỗi và phải đứng trước khoảng trắng, ':' hoặc hết chuỗi
func matchHonorific(lower string) (honorific, string, bool) {
	for _, h := range honorifics {
		if !strings.HasPrefix(lower, h.prefix) {
			continue
		}
		rest := lower[len(h.prefix):]
		if rest == "" || rest[0] == ' ' || rest[0] == ':' {
			return h, rest, true
		}
	}
	return honorific{}, "", false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
