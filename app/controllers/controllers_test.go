package controllers

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/app/responses"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/internal/history"
	"github.com/vbdlis-normalizer/internal/normalizer"
	"github.com/vbdlis-normalizer/internal/parser"
)

var fixedClock = func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }

type testServer struct {
	router        *gin.Engine
	recordService *services.RecordService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"), nil, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rules := normalizer.DefaultRules()
	cache := services.NewCacheService(time.Hour)
	historyService := services.NewHistoryService(store, logger)
	recordService := services.NewRecordService(parser.NewRecordParser(rules, fixedClock, logger), cache, historyService, nil, logger)
	adminService := services.NewAdminService(nil, nil, cache, recordService, historyService, logger)

	normalizeController := NewNormalizeController(rules, fixedClock, nil, logger)
	recordController := NewRecordController(recordService, 3, map[string]string{"cache": "memory"}, logger)
	historyController := NewHistoryController(historyService, logger)
	adminController := NewAdminController(adminService, logger)

	router := gin.New()
	v1 := router.Group("/v1")
	v1.POST("/normalize/date", normalizeController.NormalizeDate)
	v1.POST("/normalize/name", normalizeController.NormalizeName)
	v1.POST("/normalize/gender", normalizeController.NormalizeGender)
	v1.POST("/normalize/national-id", normalizeController.NormalizeNationalID)
	v1.POST("/normalize/issue-number", normalizeController.NormalizeIssueNumber)
	v1.POST("/normalize/split", normalizeController.SplitTwoParts)
	v1.POST("/normalize/match", normalizeController.MatchDocument)
	v1.POST("/records/normalize", recordController.NormalizeRecord)
	v1.POST("/records/jobs", recordController.CreateJob)
	v1.GET("/records/jobs/:jobID/status", recordController.GetJobStatus)
	v1.GET("/records/jobs/:jobID/results", recordController.GetJobResults)
	v1.GET("/history", historyController.List)
	v1.POST("/history", historyController.Record)
	v1.DELETE("/history", historyController.Clear)
	v1.POST("/admin/units/seed", adminController.SeedUnits)
	v1.GET("/admin/units/:code", adminController.GetUnit)
	v1.POST("/admin/cache/invalidate", adminController.InvalidateCache)
	v1.GET("/admin/stats", adminController.GetStats)
	v1.GET("/admin/export/:type", adminController.ExportData)
	v1.GET("/health", recordController.HealthCheck)

	return &testServer{router: router, recordService: recordService}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestNormalizeController_Fields(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/normalize/date", gin.H{"text": "15.08.99"})
	require.Equal(t, http.StatusOK, w.Code)
	date := decode[responses.DateResponse](t, w)
	assert.Equal(t, "15/08/1999", date.Normalized)
	assert.True(t, date.Recognized)

	w = s.do(t, http.MethodPost, "/v1/normalize/date", gin.H{"text": "nonsense"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[responses.DateResponse](t, w).Recognized)

	w = s.do(t, http.MethodPost, "/v1/normalize/name", gin.H{"text": "bà: lê thị cúc"})
	require.Equal(t, http.StatusOK, w.Code)
	name := decode[responses.NameResponse](t, w)
	assert.Equal(t, "Lê Thị Cúc", name.Normalized)
	assert.Equal(t, normalizer.GenderFemale, name.Gender)

	w = s.do(t, http.MethodPost, "/v1/normalize/gender", gin.H{"national_id": "001301000001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, normalizer.GenderFemale, decode[responses.GenderResponse](t, w).Gender)

	w = s.do(t, http.MethodPost, "/v1/normalize/issue-number", gin.H{"text": "cs_12.345.678"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CS 12345678", decode[responses.IssueNumberResponse](t, w).Normalized)

	w = s.do(t, http.MethodPost, "/v1/normalize/split", gin.H{"text": "Nguyễn Văn A - Trần Thị B"})
	require.Equal(t, http.StatusOK, w.Code)
	split := decode[responses.SplitResponse](t, w)
	assert.Equal(t, "nguyễn văn a", split.First)
	assert.Equal(t, "trần thị b", split.Second)
}

func TestNormalizeController_NationalID(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		input     string
		valid     bool
		canonical string
		birthYear int
	}{
		{name: "padded", input: "1200000001", valid: true, canonical: "001200000001", birthYear: 2000},
		{name: "spaces and dots", input: "079.301.012.345", valid: true, canonical: "079301012345", birthYear: 2001},
		{name: "too short", input: "12345", valid: false},
		{name: "bad century digit", input: "001901000001", valid: false, canonical: "001901000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/v1/normalize/national-id", gin.H{"text": tt.input})
			require.Equal(t, http.StatusOK, w.Code)

			resp := decode[responses.NationalIDResponse](t, w)
			assert.Equal(t, tt.valid, resp.Valid)
			assert.Equal(t, tt.canonical, resp.Normalized)
			assert.Equal(t, tt.birthYear, resp.BirthYear)
			if !tt.valid {
				assert.NotEmpty(t, resp.Error)
			}
		})
	}
}

func TestNormalizeController_MatchDocument(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/normalize/match", gin.H{
		"file_names":   []string{"", "scan.pdf", "GCN_CS123456 bản sao.pdf", "GCN_CS123456.pdf"},
		"issue_number": "cs 123456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[responses.MatchResponse](t, w)
	require.NotNil(t, resp.Best)
	assert.Equal(t, 3, resp.Best.Index)
	assert.Equal(t, 0, resp.Best.Priority)

	require.Len(t, resp.Candidates, 4)
	assert.Equal(t, normalizer.NoMatch, resp.Candidates[0].Priority)
	assert.Equal(t, normalizer.NoMatch, resp.Candidates[1].Priority)
	assert.Equal(t, normalizer.LowPriority, resp.Candidates[2].Priority)

	w = s.do(t, http.MethodPost, "/v1/normalize/match", gin.H{
		"file_names":       []string{"GCN.pdf", "hop dong.pdf"},
		"exclude_keywords": []string{"gcn"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[responses.MatchResponse](t, w).Best)

	w = s.do(t, http.MethodPost, "/v1/normalize/match", gin.H{"file_names": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordController_NormalizeRecord(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{
		"record": gin.H{
			"name":           "Hộ ông Nguyễn Văn An\nBà Trần Thị Bình",
			"national_id":    "001085012345\n001185012346",
			"birth_date":     "12/3/1985\n1985",
			"issue_number":   "cs 123456",
			"document_files": []string{"GCN_CS123456.pdf"},
		},
		"options": gin.H{"use_cache": true, "record_history": true},
	}

	w := s.do(t, http.MethodPost, "/v1/records/normalize", body)
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[responses.NormalizeRecordResponse](t, w)
	assert.False(t, first.CacheHit)
	assert.Equal(t, models.OwnerHousehold, first.Result.OwnerKind)
	require.Len(t, first.Result.Owners, 2)
	assert.Equal(t, "Trần Thị Bình", first.Result.Owners[1].FullName)
	assert.Equal(t, 1985, first.Result.Owners[1].BirthYear)

	w = s.do(t, http.MethodPost, "/v1/records/normalize", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[responses.NormalizeRecordResponse](t, w).CacheHit)

	w = s.do(t, http.MethodGet, "/v1/history?kind=owner_name&q=nguyen%20van%20an", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[responses.HistoryListResponse](t, w)
	require.NotEmpty(t, list.Entries)
	assert.Equal(t, "Nguyễn Văn An", list.Entries[0].Normalized)
}

func TestRecordController_Jobs(t *testing.T) {
	s := newTestServer(t)
	rows := []gin.H{
		{"name": "Ông Nguyễn Văn An", "national_id": "001085012345", "birth_date": "12/3/1985"},
		{"name": "Bà Trần Thị Bình"},
	}

	w := s.do(t, http.MethodPost, "/v1/records/jobs", gin.H{"records": rows})
	require.Equal(t, http.StatusAccepted, w.Code)
	job := decode[responses.BatchJobResponse](t, w)
	assert.Equal(t, 2, job.TotalRecords)

	require.Eventually(t, func() bool {
		st, err := s.recordService.GetJobStatus(job.JobID)
		return err == nil && st.Status == services.JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	w = s.do(t, http.MethodGet, "/v1/records/jobs/"+job.JobID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[responses.JobStatusResponse](t, w)
	assert.Equal(t, 2, status.Processed)
	assert.Equal(t, 1, status.NeedsReview)

	w = s.do(t, http.MethodGet, "/v1/records/jobs/"+job.JobID+"/results?format=ndjson&gzip=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	scanner := bufio.NewScanner(gz)
	var lines []models.RecordResult
	for scanner.Scan() {
		var r models.RecordResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		lines = append(lines, r)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 2)
	assert.Equal(t, "Nguyễn Văn An", lines[0].Owners[0].FullName)

	w = s.do(t, http.MethodGet, "/v1/records/jobs/"+job.JobID+"/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[responses.SuccessResponse](t, w).Success)
}

func TestRecordController_JobErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/records/jobs/missing/status", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JOB_ID", decode[responses.ErrorResponse](t, w).Error)

	unknown := "6f1c2a9e-3b5d-4c7e-9a10-2b3c4d5e6f70"
	w = s.do(t, http.MethodGet, "/v1/records/jobs/"+unknown+"/status", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "JOB_NOT_FOUND", decode[responses.ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodGet, "/v1/records/jobs/"+unknown+"/results?format=ndjson", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	tooMany := []gin.H{{"name": "A"}, {"name": "B"}, {"name": "C"}, {"name": "D"}}
	w = s.do(t, http.MethodPost, "/v1/records/jobs", gin.H{"records": tooMany})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "TOO_MANY_RECORDS", decode[responses.ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/v1/records/jobs", gin.H{"records": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryController(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/history", gin.H{"kind": "issue_number", "query": "cs-123.456", "result_count": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/v1/history", gin.H{"kind": "unknown", "query": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/history", gin.H{"kind": "national_id", "query": "--"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/v1/history?kind=issue_number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[responses.HistoryListResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "CS 123456", list.Entries[0].Normalized)

	w = s.do(t, http.MethodGet, "/v1/history?kind=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/v1/history?kind=issue_number", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[responses.HistoryClearResponse](t, w).Deleted)

	w = s.do(t, http.MethodGet, "/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[responses.HistoryListResponse](t, w).Total)
}

func TestAdminController(t *testing.T) {
	s := newTestServer(t)

	units := []models.AdminUnit{
		{Code: "01", Level: 1, Name: "Thành phố Hà Nội", Type: "Thành phố"},
		{Code: "001", Level: 2, Name: "Quận Ba Đình", Type: "Quận"},
	}
	w := s.do(t, http.MethodPost, "/v1/admin/units/seed?dry_run=true", gin.H{"dataset_version": "2025.07", "data": units})
	require.Equal(t, http.StatusOK, w.Code)
	seed := decode[responses.SeedUnitsResponse](t, w)
	assert.False(t, seed.ValidationPassed)
	assert.Len(t, seed.Errors, 1)
	assert.True(t, seed.DryRun)

	w = s.do(t, http.MethodPost, "/v1/admin/units/seed", gin.H{"dataset_version": "2025.07", "data": units})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodGet, "/v1/admin/units/01", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = s.do(t, http.MethodPost, "/v1/admin/cache/invalidate", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.SystemStats](t, w)
	assert.Equal(t, normalizer.DefaultRules().Version, stats.RulesVersion)

	s.do(t, http.MethodPost, "/v1/history", gin.H{"kind": "owner_name", "query": "Ông Nguyễn Văn An"})
	w = s.do(t, http.MethodGet, "/v1/admin/export/history?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "Nguyễn Văn An")

	w = s.do(t, http.MethodGet, "/v1/admin/export/unknown", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[responses.HealthCheckResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "memory", health.Services["cache"])
	assert.Equal(t, Version, health.Version)
}
