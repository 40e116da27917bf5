package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
)

func sampleUnits() []models.AdminUnit {
	return []models.AdminUnit{
		{Code: "01", Level: models.LevelProvince, Name: "Thành phố Hà Nội", Type: "Thành phố"},
		{Code: "001", ParentCode: "01", Level: models.LevelDistrict, Name: "Quận Ba Đình", Type: "Quận"},
		{Code: "00001", ParentCode: "001", Level: models.LevelWard, Name: "Phường Phúc Xá", Type: "Phường"},
	}
}

func TestValidateUnits(t *testing.T) {
	tests := []struct {
		name         string
		data         []models.AdminUnit
		passed       bool
		errorCount   int
		warningCount int
	}{
		{name: "valid dataset", data: sampleUnits(), passed: true},
		{name: "empty", data: nil, passed: false, errorCount: 1},
		{
			name: "duplicate and missing fields",
			data: []models.AdminUnit{
				{Code: "01", Level: 1, Name: "Hà Nội", Type: "Thành phố"},
				{Code: "01", Level: 1, Name: "Hà Nội", Type: "Thành phố"},
				{Code: "", Level: 1, Name: "Không mã", Type: "Tỉnh"},
				{Code: "02", Level: 1, Name: "", Type: "Tỉnh"},
			},
			passed:     false,
			errorCount: 3,
		},
		{
			name:       "bad level",
			data:       []models.AdminUnit{{Code: "99", Level: 4, Name: "Tổ dân phố"}},
			passed:     false,
			errorCount: 1,
		},
		{
			name:       "ward without parent",
			data:       []models.AdminUnit{{Code: "00001", Level: 3, Name: "Phường Phúc Xá", Type: "Phường"}},
			passed:     false,
			errorCount: 1,
		},
		{
			name: "unknown parent and type mismatch are warnings",
			data: []models.AdminUnit{
				{Code: "00001", ParentCode: "001", Level: 3, Name: "Phường Phúc Xá", Type: "Quận"},
			},
			passed:       true,
			warningCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateUnits(tt.data)
			assert.Equal(t, tt.passed, v.Passed)
			assert.Len(t, v.Errors, tt.errorCount)
			assert.Len(t, v.Warnings, tt.warningCount)
		})
	}
}

func TestPrepareUnits(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	units := PrepareUnits("2025.07", sampleUnits(), now)

	require.Len(t, units, 3)
	assert.Equal(t, "thanh pho ha noi", units[0].NormalizedName)
	assert.Equal(t, []string{"01"}, units[0].Path)
	assert.Equal(t, []string{"01", "001", "00001"}, units[2].Path)
	assert.Equal(t, "01 > 001 > 00001", units[2].GetFullPath())
	assert.Equal(t, "2025.07", units[1].DatasetVersion)
	assert.Equal(t, now, units[1].CreatedAt)
}

func TestPrepareUnits_ParentCycle(t *testing.T) {
	data := []models.AdminUnit{
		{Code: "A", ParentCode: "B", Level: 2, Name: "A"},
		{Code: "B", ParentCode: "A", Level: 2, Name: "B"},
	}
	units := PrepareUnits("v", data, time.Now())
	assert.Equal(t, []string{"B", "A"}, units[0].Path)
}

func TestUnitsToCSV(t *testing.T) {
	data, err := UnitsToCSV(PrepareUnits("2025.07", sampleUnits(), time.Now()))
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "code", records[0][0])
	assert.Equal(t, []string{"001", "01", "2", "Quận Ba Đình", "Quận", "quan ba dinh", "2025.07"}, records[2])
}

func TestHistoryToCSV(t *testing.T) {
	created := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	data, err := HistoryToCSV([]models.HistoryEntry{
		{ID: 7, Kind: models.HistoryOwnerName, Query: "ông nguyễn văn an", Normalized: "Nguyễn Văn An", ResultCount: 2, CreatedAt: created},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"7", "owner_name", "ông nguyễn văn an", "Nguyễn Văn An", "2", "2025-06-01T08:00:00Z"}, records[1])
}

func TestAdminService_WithoutStorage(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour)
	records := newTestRecordService(cache, nil)
	as := NewAdminService(nil, nil, cache, records, nil, zap.NewNop())

	_, err := as.SeedUnits(ctx, "v1", sampleUnits(), false)
	assert.True(t, errors.Is(err, ErrStorageDisabled))

	_, err = as.SearchUnits(ctx, "Ba Đình", 0, "", 10)
	assert.True(t, errors.Is(err, ErrStorageDisabled))

	_, err = as.ExportData(ctx, ExportAdminUnits, "xml", 10)
	assert.True(t, errors.Is(err, ErrUnsupportedExport))

	_, err = as.ExportData(ctx, ExportHistory, "json", 10)
	assert.True(t, errors.Is(err, ErrUnsupportedExport))

	require.NoError(t, cache.Set(ctx, "k", &models.RecordResult{RulesVersion: "old"}))
	require.NoError(t, as.InvalidateCache(ctx, records.RulesVersion()))
	assert.Equal(t, 0, cache.Size())

	stats, err := as.GetSystemStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, records.RulesVersion(), stats.RulesVersion)
	assert.NotNil(t, stats.Cache)
	assert.Nil(t, stats.DatabaseStats)
}
