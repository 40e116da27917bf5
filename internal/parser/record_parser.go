package parser

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/normalizer"
	"go.uber.org/zap"
)

// RecordParser chuyển một dòng chủ sử dụng thô thành RecordResult
type RecordParser struct {
	rules  *normalizer.Rules
	clock  normalizer.Clock
	logger *zap.Logger
}

// NewRecordParser tạo mới RecordParser. rules nil dùng bộ từ khóa nhúng sẵn, clock nil dùng đồng hồ hệ thống.
func NewRecordParser(rules *normalizer.Rules, clock normalizer.Clock, logger *zap.Logger) *RecordParser {
	if rules == nil {
		rules = normalizer.DefaultRules()
	}
	if clock == nil {
		clock = normalizer.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordParser{rules: rules, clock: clock, logger: logger}
}

// Rules bộ từ khóa đang dùng
func (rp *RecordParser) Rules() *normalizer.Rules {
	return rp.rules
}

// Parse chuẩn hóa một dòng chủ sử dụng
func (rp *RecordParser) Parse(row models.RawOwnerRow) *models.RecordResult {
	now := rp.clock()

	result := &models.RecordResult{
		Raw:          row,
		Fingerprint:  Fingerprint(row),
		Address:      normalizer.CleanText(row.Address),
		Flags:        []string{},
		RulesVersion: rp.rules.Version,
		NormalizedAt: now,
	}

	rawName := normalizer.CleanText(row.Name)
	switch {
	case rawName == "":
		result.OwnerKind = models.OwnerIndividual
		result.AddFlag(models.FlagMissingName)
		result.Owners = []models.Person{rp.buildPerson(result, "", row.Gender, row.NationalID, row.BirthDate, now)}
	case rp.rules.IsOrganization(rawName):
		result.OwnerKind = models.OwnerOrganization
		result.Owners = []models.Person{rp.buildOrganization(rawName, row.NationalID)}
	default:
		result.Owners = rp.parsePersons(result, row, now)
		result.OwnerKind = ownerKind(rawName, len(result.Owners))
	}

	result.Certificate = rp.parseCertificate(result, row)
	result.Status = statusFromFlags(result.Flags)

	rp.logger.Debug("Đã chuẩn hóa chủ sử dụng",
		zap.String("fingerprint", result.Fingerprint),
		zap.String("owner_kind", result.OwnerKind),
		zap.Int("owners", len(result.Owners)),
		zap.Strings("flags", result.Flags))

	return result
}

// ParseBatch chuẩn hóa nhiều dòng, giữ nguyên thứ tự
func (rp *RecordParser) ParseBatch(rows []models.RawOwnerRow) []*models.RecordResult {
	results := make([]*models.RecordResult, len(rows))
	for i, row := range rows {
		results[i] = rp.Parse(row)
	}
	return results
}

// parsePersons tách ô tên thành tối đa hai người; ô CCCD, ngày sinh, giới tính chỉ tách khi có hai người
func (rp *RecordParser) parsePersons(result *models.RecordResult, row models.RawOwnerRow, now time.Time) []models.Person {
	name1, name2 := normalizer.SplitTwoParts(row.Name)
	if name2 == "" && hasSecondPart(row.Name) && normalizer.IsDeceasedNote(row.Name) {
		result.AddFlag(models.FlagDeceasedFiltered)
	}

	if name2 == "" {
		return []models.Person{rp.buildPerson(result, name1, row.Gender, row.NationalID, row.BirthDate, now)}
	}

	id1, id2 := normalizer.SplitTwoParts(row.NationalID)
	date1, date2 := normalizer.SplitTwoParts(row.BirthDate)
	gender1, gender2 := normalizer.SplitTwoParts(row.Gender)

	return []models.Person{
		rp.buildPerson(result, name1, gender1, id1, date1, now),
		rp.buildPerson(result, name2, gender2, id2, date2, now),
	}
}

func (rp *RecordParser) buildPerson(result *models.RecordResult, rawName, gender, id, birth string, now time.Time) models.Person {
	person := models.Person{
		FullName: normalizer.NormalizeVietnameseName(rawName),
		Gender:   normalizer.NormalizeGender(gender, id, rawName),
	}

	var info normalizer.IDInfo
	if strings.TrimSpace(id) == "" {
		result.AddFlag(models.FlagMissingID)
	} else if canonical, ok := normalizer.NormalizeNationalID(id); !ok {
		result.AddFlag(models.FlagInvalidID)
	} else {
		person.NationalID = canonical
		decoded, err := normalizer.DecodeNationalID(canonical)
		if err != nil {
			result.AddFlag(models.FlagInvalidID)
		} else {
			info = decoded
			person.IDDecoded = true
			person.ProvinceCode = decoded.ProvinceCode
		}
	}

	if year, ok := birthYearOnly(birth, now); ok {
		person.BirthYear = year
	} else if d, ok := normalizer.ParseDateAt(birth, now); ok {
		person.BirthDate = normalizer.FormatDate(d)
		person.BirthYear = d.Year()
	} else if person.IDDecoded && info.BirthYear <= now.Year() {
		person.BirthYear = info.BirthYear
		result.AddFlag(models.FlagBirthYearFromID)
	} else {
		result.AddFlag(models.FlagMissingBirthDate)
	}

	return person
}

// buildOrganization giữ nguyên tên tổ chức, không tách và không bỏ danh xưng
func (rp *RecordParser) buildOrganization(rawName, id string) models.Person {
	org := models.Person{FullName: rawName}
	if canonical, ok := normalizer.NormalizeNationalID(id); ok {
		org.NationalID = canonical
	}
	return org
}

func (rp *RecordParser) parseCertificate(result *models.RecordResult, row models.RawOwnerRow) models.CertificateInfo {
	cert := models.CertificateInfo{
		IssueNumber:      normalizer.NormalizeIssueNumber(row.IssueNumber),
		DocumentPriority: normalizer.NoMatch,
	}

	if len(row.DocumentFiles) == 0 {
		return cert
	}

	match, ok := normalizer.PickDocument(row.DocumentFiles, rp.rules.MatchOptions(cert.IssueNumber))
	if !ok {
		result.AddFlag(models.FlagNoDocument)
		return cert
	}
	cert.DocumentFile = match.FileName
	cert.DocumentPriority = match.Priority
	return cert
}

// Fingerprint sha256 của dòng thô, dùng làm cache key
func Fingerprint(row models.RawOwnerRow) string {
	data, err := json.Marshal(row)
	if err != nil {
		data = []byte(row.Name + "|" + row.NationalID + "|" + row.IssueNumber)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", hash)
}

// birthYearOnly nhận ô chỉ ghi năm sinh (4 chữ số), tránh bị hiểu nhầm là serial ngày
func birthYearOnly(text string, now time.Time) (int, bool) {
	s := strings.TrimSpace(text)
	if len(s) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > now.Year() {
		return 0, false
	}
	return year, true
}

func ownerKind(rawName string, persons int) string {
	lower := strings.ToLower(rawName)
	switch {
	case strings.HasPrefix(lower, "hộ ") || strings.HasPrefix(lower, "hộ:"):
		return models.OwnerHousehold
	case persons > 1:
		return models.OwnerCouple
	default:
		return models.OwnerIndividual
	}
}

// hasSecondPart ô tên có dấu hiệu nhiều hơn một người (xuống dòng, ngoặc hoặc gạch nối)
func hasSecondPart(name string) bool {
	return strings.ContainsAny(name, "\n(-")
}

// statusFromFlags: các cờ chỉ mang tính thông tin không đẩy bản ghi sang cần xem lại
func statusFromFlags(flags []string) string {
	for _, f := range flags {
		switch f {
		case models.FlagDeceasedFiltered, models.FlagBirthYearFromID:
			continue
		}
		return models.StatusNeedsReview
	}
	return models.StatusNormalized
}
