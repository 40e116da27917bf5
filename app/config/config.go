package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vbdlis-normalizer/internal/normalizer"
)

// RulesCfg từ khóa bổ sung ngoài bộ nhúng sẵn
type RulesCfg struct {
	ExtraFile string           `yaml:"extra_file" json:"extra_file"` // File YAML cùng định dạng keywords.yaml
	Extra     normalizer.Rules `yaml:"extra" json:"extra"`
}

type HistoryCfg struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	DBPath      string `yaml:"db_path" json:"db_path"`
	SearchLimit int    `yaml:"search_limit" json:"search_limit"`
}

type CacheCfg struct {
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	L1Size          int           `yaml:"l1_size" json:"l1_size"`
}

type BatchCfg struct {
	MaxRecords int `yaml:"max_records" json:"max_records"`
}

type NormalizerCfg struct {
	Rules          RulesCfg      `yaml:"rules" json:"rules"`
	History        HistoryCfg    `yaml:"history" json:"history"`
	Cache          CacheCfg      `yaml:"cache" json:"cache"`
	Batch          BatchCfg      `yaml:"batch" json:"batch"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

var C = Defaults()

// Defaults cấu hình mặc định khi không có file
func Defaults() NormalizerCfg {
	return NormalizerCfg{
		History: HistoryCfg{
			Enabled:     true,
			DBPath:      "data/history.db",
			SearchLimit: 10,
		},
		Cache: CacheCfg{
			TTL:             24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
			L1Size:          10000,
		},
		Batch:          BatchCfg{MaxRecords: 20000},
		RequestTimeout: 1500 * time.Millisecond,
	}
}

func Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := Parse(b)
	if err != nil {
		return err
	}
	C = cfg
	return nil
}

// Parse đọc YAML đè lên giá trị mặc định rồi áp dụng ENV
func Parse(b []byte) (NormalizerCfg, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("lỗi parse cấu hình normalizer: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// ENV overrides
func applyEnv(cfg *NormalizerCfg) {
	switch os.Getenv("HISTORY_ENABLED") {
	case "0":
		cfg.History.Enabled = false
	case "1":
		cfg.History.Enabled = true
	}
	if v := os.Getenv("HISTORY_DB_PATH"); v != "" {
		cfg.History.DBPath = v
	}
	if v := os.Getenv("RULES_EXTRA_FILE"); v != "" {
		cfg.Rules.ExtraFile = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("BATCH_MAX_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Batch.MaxRecords = n
		}
	}
}

// BuildRules gộp bộ từ khóa nhúng sẵn với từ khóa trong cấu hình và file bổ sung
func (c NormalizerCfg) BuildRules() (*normalizer.Rules, error) {
	rules := normalizer.DefaultRules().Merge(c.Rules.Extra)

	if c.Rules.ExtraFile == "" {
		return rules, nil
	}

	b, err := os.ReadFile(c.Rules.ExtraFile)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc file từ khóa bổ sung: %w", err)
	}
	var extra normalizer.Rules
	if err := yaml.Unmarshal(b, &extra); err != nil {
		return nil, fmt.Errorf("lỗi parse file từ khóa bổ sung: %w", err)
	}
	return rules.Merge(extra), nil
}

func RequestTimeout() time.Duration { return C.RequestTimeout }
