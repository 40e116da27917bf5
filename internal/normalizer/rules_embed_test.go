package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules()
	require.NoError(t, err)

	assert.NotEmpty(t, rules.Version)
	assert.Equal(t, "giấy chứng nhận", rules.CertificateNames[0])
	assert.Contains(t, rules.LowPriorityKeywords, "bản sao")
	assert.Same(t, DefaultRules(), DefaultRules())
}

func TestParseRules_RequiresCertificateNames(t *testing.T) {
	_, err := ParseRules([]byte("exclude_keywords: [nháp]\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("certificate_names: [\n"))
	assert.Error(t, err)
}

func TestRules_IsOrganization(t *testing.T) {
	rules := DefaultRules()

	assert.True(t, rules.IsOrganization("Công ty TNHH Minh Phát"))
	assert.True(t, rules.IsOrganization("UBND xã Tân Phú"))
	assert.False(t, rules.IsOrganization("Nguyễn Văn Công"))
	assert.False(t, rules.IsOrganization("Hộ ông Trần Văn Tý"))
}

func TestRules_Merge(t *testing.T) {
	base := &Rules{Version: "1", CertificateNames: []string{"gcn"}, ExcludeKeywords: []string{"nháp"}}
	merged := base.Merge(Rules{Version: "2", CertificateNames: []string{"GCN", "sổ hồng"}, LowPriorityKeywords: []string{"photo"}})

	assert.Equal(t, "2", merged.Version)
	assert.Equal(t, []string{"gcn", "sổ hồng"}, merged.CertificateNames)
	assert.Equal(t, []string{"nháp"}, merged.ExcludeKeywords)
	assert.Equal(t, []string{"photo"}, merged.LowPriorityKeywords)

	opts := merged.MatchOptions("CS 123456")
	assert.Equal(t, "CS 123456", opts.IssueNumber)
	assert.Equal(t, merged.CertificateNames, opts.CertificateNames)
}
