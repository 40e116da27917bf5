package normalizer

import (
	"errors"
	"fmt"
	"strings"
)

// NationalIDLength độ dài chuẩn của số CCCD
const NationalIDLength = 12

// ErrMalformedNationalID số định danh đưa vào giải mã không phải 12 chữ số hợp lệ
var ErrMalformedNationalID = errors.New("số định danh không hợp lệ")

// IDInfo thông tin giải mã từ số CCCD
type IDInfo struct {
	Gender       string `json:"gender"`
	BirthYear    int    `json:"birth_year"`
	ProvinceCode string `json:"province_code"`
}

// NormalizeNationalID bỏ ký tự không phải số; chỉ nhận 10-12 chữ số và đệm '0' bên trái đủ 12.
func NormalizeNationalID(text string) (string, bool) {
	digits := digitsOnly(text)
	if len(digits) < 10 || len(digits) > NationalIDLength {
		return "", false
	}
	return strings.Repeat("0", NationalIDLength-len(digits)) + digits, true
}

// DecodeNationalID đọc mã thế kỷ/giới tính (vị trí 3) và hai số cuối năm sinh (vị trí 4-5).
// 0/1 là thế kỷ 20, 2/3 là thế kỷ 21; số chẵn là Nam, số lẻ là Nữ.
func DecodeNationalID(canonical string) (IDInfo, error) {
	if len(canonical) != NationalIDLength {
		return IDInfo{}, fmt.Errorf("%w: cần %d chữ số, nhận %d ký tự", ErrMalformedNationalID, NationalIDLength, len(canonical))
	}
	for i := 0; i < len(canonical); i++ {
		if canonical[i] < '0' || canonical[i] > '9' {
			return IDInfo{}, fmt.Errorf("%w: ký tự %q tại vị trí %d", ErrMalformedNationalID, canonical[i], i)
		}
	}

	code := int(canonical[3] - '0')
	if code > 3 {
		return IDInfo{}, fmt.Errorf("%w: mã thế kỷ %d ngoài khoảng 0-3", ErrMalformedNationalID, code)
	}

	century := 1900
	if code >= 2 {
		century = 2000
	}
	gender := GenderMale
	if code%2 == 1 {
		gender = GenderFemale
	}

	return IDInfo{
		Gender:       gender,
		BirthYear:    century + atoi(canonical[4:6]),
		ProvinceCode: canonical[0:3],
	}, nil
}
