package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/normalizer"
)

// ErrMissingNameColumn file CSV không có cột tên chủ sử dụng
var ErrMissingNameColumn = errors.New("thiếu cột tên chủ sử dụng")

// DocumentFileSeparator ngăn cách các tên file trong cùng một ô
const DocumentFileSeparator = "|"

// columnAliases tên cột chấp nhận được, so khớp sau khi bỏ dấu và khoảng trắng
var columnAliases = map[string]string{
	"name":          "name",
	"ten":           "name",
	"tenchusudung":  "name",
	"chusudung":     "name",
	"gender":        "gender",
	"gioitinh":      "gender",
	"nationalid":    "national_id",
	"cccd":          "national_id",
	"cmnd":          "national_id",
	"sodinhdanh":    "national_id",
	"birthdate":     "birth_date",
	"ngaysinh":      "birth_date",
	"namsinh":       "birth_date",
	"address":       "address",
	"diachi":        "address",
	"issuenumber":   "issue_number",
	"sophathanh":    "issue_number",
	"documentfiles": "document_files",
	"files":         "document_files",
	"taptin":        "document_files",
	"mapsheet":      "map_sheet",
	"sotobando":     "map_sheet",
	"parcelnumber":  "parcel_number",
	"sothua":        "parcel_number",
}

// RowReader đọc từng dòng chủ sử dụng từ CSV có dòng tiêu đề
type RowReader struct {
	r       *csv.Reader
	columns map[string]int
	line    int
}

// NewRowReader đọc dòng tiêu đề và ánh xạ cột
func NewRowReader(r io.Reader) (*RowReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc dòng tiêu đề CSV: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizer.Slug(strings.TrimPrefix(h, "\uFEFF"))
		key = strings.ReplaceAll(key, "đ", "d")
		if field, ok := columnAliases[key]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	if _, ok := columns["name"]; !ok {
		return nil, ErrMissingNameColumn
	}

	return &RowReader{r: cr, columns: columns, line: 1}, nil
}

// Next trả về dòng tiếp theo; hết file trả về io.EOF
func (rr *RowReader) Next() (models.RawOwnerRow, error) {
	record, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.RawOwnerRow{}, io.EOF
		}
		return models.RawOwnerRow{}, fmt.Errorf("lỗi đọc CSV dòng %d: %w", rr.line+1, err)
	}
	rr.line++

	row := models.RawOwnerRow{
		Name:         rr.cell(record, "name"),
		Gender:       rr.cell(record, "gender"),
		NationalID:   rr.cell(record, "national_id"),
		BirthDate:    rr.cell(record, "birth_date"),
		Address:      rr.cell(record, "address"),
		IssueNumber:  rr.cell(record, "issue_number"),
		MapSheet:     rr.cell(record, "map_sheet"),
		ParcelNumber: rr.cell(record, "parcel_number"),
	}
	for _, f := range strings.Split(rr.cell(record, "document_files"), DocumentFileSeparator) {
		if f = strings.TrimSpace(f); f != "" {
			row.DocumentFiles = append(row.DocumentFiles, f)
		}
	}
	return row, nil
}

// Line số dòng vừa đọc, tính cả dòng tiêu đề
func (rr *RowReader) Line() int {
	return rr.line
}

func (rr *RowReader) cell(record []string, field string) string {
	i, ok := rr.columns[field]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
