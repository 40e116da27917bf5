package normalizer

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/keywords.yaml
var keywordsYAML []byte

// Rules bộ từ khóa dùng để chọn tài liệu và phân loại chủ sử dụng
type Rules struct {
	Version              string   `yaml:"version" json:"version"`
	CertificateNames     []string `yaml:"certificate_names" json:"certificate_names"`
	ExcludeKeywords      []string `yaml:"exclude_keywords" json:"exclude_keywords"`
	LowPriorityKeywords  []string `yaml:"low_priority_keywords" json:"low_priority_keywords"`
	OrganizationKeywords []string `yaml:"organization_keywords" json:"organization_keywords"`
}

var (
	defaultRules     *Rules
	defaultRulesOnce sync.Once
)

// LoadRules load bộ từ khóa nhúng sẵn
func LoadRules() (*Rules, error) {
	return ParseRules(keywordsYAML)
}

// ParseRules parse bộ từ khóa từ YAML
func ParseRules(data []byte) (*Rules, error) {
	rules := &Rules{}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("lỗi parse keyword rules: %w", err)
	}
	if len(rules.CertificateNames) == 0 {
		return nil, fmt.Errorf("keyword rules thiếu certificate_names")
	}
	return rules, nil
}

// DefaultRules trả về bộ từ khóa nhúng sẵn, panic nếu dữ liệu nhúng hỏng
func DefaultRules() *Rules {
	defaultRulesOnce.Do(func() {
		rules, err := LoadRules()
		if err != nil {
			panic(err)
		}
		defaultRules = rules
	})
	return defaultRules
}

// MatchOptions tạo tham số so khớp tài liệu cho một số phát hành
func (r *Rules) MatchOptions(issueNumber string) MatchOptions {
	return MatchOptions{
		CertificateNames:    r.CertificateNames,
		IssueNumber:         issueNumber,
		ExcludeKeywords:     r.ExcludeKeywords,
		LowPriorityKeywords: r.LowPriorityKeywords,
	}
}

// IsOrganization kiểm tra tên có chứa từ khóa tổ chức (so khớp theo từ, không phân biệt hoa thường)
func (r *Rules) IsOrganization(name string) bool {
	padded := " " + strings.ToLower(CollapseSpaces(nfc(name))) + " "
	for _, kw := range r.OrganizationKeywords {
		k := strings.ToLower(CollapseSpaces(nfc(kw)))
		if k != "" && strings.Contains(padded, " "+k+" ") {
			return true
		}
	}
	return false
}

// Merge bổ sung từ khóa từ cấu hình, giữ thứ tự và bỏ trùng
func (r *Rules) Merge(other Rules) *Rules {
	merged := &Rules{
		Version:              r.Version,
		CertificateNames:     appendUnique(r.CertificateNames, other.CertificateNames),
		ExcludeKeywords:      appendUnique(r.ExcludeKeywords, other.ExcludeKeywords),
		LowPriorityKeywords:  appendUnique(r.LowPriorityKeywords, other.LowPriorityKeywords),
		OrganizationKeywords: appendUnique(r.OrganizationKeywords, other.OrganizationKeywords),
	}
	if other.Version != "" {
		merged.Version = other.Version
	}
	return merged
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			key := strings.ToLower(strings.TrimSpace(s))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, s)
		}
	}
	return out
}
