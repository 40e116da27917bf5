package normalizer

import (
	"regexp"
	"strings"
)

var parenthesizedPattern = regexp.MustCompile(`^(.*?)\s*\((.*?)\)\s*$`)

var deceasedMarkers = []string{"đã mất", "đã chết"}

// SplitTwoParts tách một ô thành hai phần (hai người, hai số giấy tờ).
// Thứ tự: xuống dòng, "(...)" cuối chuỗi, '-', ';', ',', "và". Chỉ ba quy tắc đầu lọc phần hai có ghi chú đã mất.
func SplitTwoParts(text string) (string, string) {
	s := strings.TrimSpace(strings.ToLower(nfc(text)))

	if first, rest, ok := strings.Cut(s, "\n"); ok {
		return strings.TrimSpace(strings.TrimRight(first, "\r")), dropDeceased(strings.TrimSpace(rest))
	}

	if m := parenthesizedPattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1]), dropDeceased(strings.TrimSpace(m[2]))
	}

	if first, rest, ok := strings.Cut(s, "-"); ok {
		return strings.TrimSpace(first), dropDeceased(strings.TrimSpace(rest))
	}

	for _, sep := range []string{";", ","} {
		if first, rest, ok := strings.Cut(s, sep); ok {
			return strings.TrimSpace(first), strings.TrimSpace(rest)
		}
	}

	if strings.Contains(s, "và") {
		var parts []string
		for _, p := range strings.SplitN(s, "và", 2) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		switch len(parts) {
		case 0:
			return "", ""
		case 1:
			return parts[0], ""
		default:
			return parts[0], parts[1]
		}
	}

	return s, ""
}

// IsDeceasedNote kiểm tra ghi chú có đánh dấu người đã mất
func IsDeceasedNote(text string) bool {
	lower := strings.ToLower(nfc(text))
	for _, marker := range deceasedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func dropDeceased(part string) string {
	if IsDeceasedNote(part) {
		return ""
	}
	return part
}
