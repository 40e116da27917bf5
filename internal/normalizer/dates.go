package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock trả về thời điểm hiện tại, cho phép cố định "hôm nay" khi test
type Clock func() time.Time

// SystemClock dùng đồng hồ hệ thống
var SystemClock Clock = time.Now

// oaEpoch là ngày 0 của số serial ngày kiểu bảng tính (OA date)
var oaEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	minDateYear = 1900
	dateLayout  = "%02d/%02d/%04d"
)

// delimitedLayout mô tả một định dạng ngày có dấu phân cách, sau khi đã quy '-' và '.' về '/'
type delimitedLayout struct {
	name       string
	monthFirst bool
	dayWidth   [2]int // số chữ số tối thiểu, tối đa
	monthWidth [2]int
	yearWidth  int
}

// Thứ tự thử quan trọng: khớp đầu tiên thắng
var delimitedLayouts = []delimitedLayout{
	{name: "dd/MM/yyyy", dayWidth: [2]int{2, 2}, monthWidth: [2]int{2, 2}, yearWidth: 4},
	{name: "MM/dd/yyyy", monthFirst: true, dayWidth: [2]int{2, 2}, monthWidth: [2]int{2, 2}, yearWidth: 4},
	{name: "dd/MM/yy", dayWidth: [2]int{2, 2}, monthWidth: [2]int{2, 2}, yearWidth: 2},
	{name: "MM/dd/yy", monthFirst: true, dayWidth: [2]int{2, 2}, monthWidth: [2]int{2, 2}, yearWidth: 2},
	{name: "d/M/yyyy", dayWidth: [2]int{1, 2}, monthWidth: [2]int{1, 2}, yearWidth: 4},
	{name: "M/d/yyyy", monthFirst: true, dayWidth: [2]int{1, 2}, monthWidth: [2]int{1, 2}, yearWidth: 4},
}

// NormalizeDate chuẩn hóa chuỗi ngày về dd/MM/yyyy theo đồng hồ hệ thống.
// Trả về chuỗi rỗng nếu không nhận dạng được.
func NormalizeDate(text string) string {
	return NormalizeDateAt(text, SystemClock())
}

// NormalizeDateAt giống NormalizeDate nhưng dùng now làm mốc "hôm nay"
func NormalizeDateAt(text string, now time.Time) string {
	d, ok := ParseDateAt(text, now)
	if !ok {
		return ""
	}
	return FormatDate(d)
}

// FormatDate định dạng ngày theo dd/MM/yyyy
func FormatDate(d time.Time) string {
	return fmt.Sprintf(dateLayout, d.Day(), int(d.Month()), d.Year())
}

// ParseDateAt nhận dạng ngày theo thứ tự: chuỗi số liền, serial OA, định dạng có dấu phân cách.
func ParseDateAt(text string, now time.Time) (time.Time, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, false
	}

	digits := digitsOnly(trimmed)
	if d, ok := parseCompactDigits(digits, now); ok {
		return d, true
	}
	if d, ok := parseOASerial(digits, now); ok {
		return d, true
	}
	return parseDelimited(trimmed, now)
}

// parseCompactDigits xử lý 8 chữ số (yyyyMMdd rồi ddMMyyyy) và 7 chữ số (dMyyyy rồi ddMyyyy)
func parseCompactDigits(digits string, now time.Time) (time.Time, bool) {
	switch len(digits) {
	case 8:
		if d, ok := buildDate(atoi(digits[0:4]), atoi(digits[4:6]), atoi(digits[6:8]), now); ok {
			return d, true
		}
		return buildDate(atoi(digits[4:8]), atoi(digits[2:4]), atoi(digits[0:2]), now)
	case 7:
		year := atoi(digits[3:7])
		if d, ok := buildDate(year, atoi(digits[1:3]), atoi(digits[0:1]), now); ok {
			return d, true
		}
		return buildDate(year, atoi(digits[2:3]), atoi(digits[0:2]), now)
	}
	return time.Time{}, false
}

// parseOASerial đổi số serial ngày (ngày 0 = 30/12/1899) trong khoảng [01/01/1900, hôm nay]
func parseOASerial(digits string, now time.Time) (time.Time, bool) {
	if digits == "" || len(digits) > 9 {
		return time.Time{}, false
	}
	serial, err := strconv.Atoi(digits)
	if err != nil {
		return time.Time{}, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	minSerial := oaSerial(time.Date(minDateYear, time.January, 1, 0, 0, 0, 0, time.UTC))
	if serial < minSerial || serial > oaSerial(today) {
		return time.Time{}, false
	}
	return oaEpoch.AddDate(0, 0, serial), true
}

func oaSerial(d time.Time) int {
	return int(d.Sub(oaEpoch).Hours() / 24)
}

// parseDelimited thử lần lượt các định dạng có dấu phân cách
func parseDelimited(text string, now time.Time) (time.Time, bool) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '/':
			b.WriteRune(r)
		case r == '-', r == '.':
			b.WriteRune('/')
		}
	}

	parts := strings.Split(b.String(), "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	for _, layout := range delimitedLayouts {
		if d, ok := layout.parse(parts, now); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func (l delimitedLayout) parse(parts []string, now time.Time) (time.Time, bool) {
	dayPart, monthPart := parts[0], parts[1]
	if l.monthFirst {
		dayPart, monthPart = parts[1], parts[0]
	}
	yearPart := parts[2]

	if !widthIn(dayPart, l.dayWidth) || !widthIn(monthPart, l.monthWidth) || len(yearPart) != l.yearWidth {
		return time.Time{}, false
	}

	year := atoi(yearPart)
	if l.yearWidth == 2 {
		year = expandTwoDigitYear(year, now)
	}
	return buildDate(year, atoi(monthPart), atoi(dayPart), now)
}

// expandTwoDigitYear: yy <= năm hiện tại % 100 thuộc thế kỷ 21, còn lại thuộc thế kỷ 20
func expandTwoDigitYear(yy int, now time.Time) int {
	if yy <= now.Year()%100 {
		return 2000 + yy
	}
	return 1900 + yy
}

// buildDate kiểm tra năm trong [1900, năm hiện tại], tháng 1-12, ngày hợp lệ theo tháng (kể cả năm nhuận)
func buildDate(year, month, day int, now time.Time) (time.Time, bool) {
	if year < minDateYear || year > now.Year() {
		return time.Time{}, false
	}
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func widthIn(s string, width [2]int) bool {
	if len(s) < width[0] || len(s) > width[1] {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// atoi chỉ dùng cho chuỗi đã biết là chữ số
func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
