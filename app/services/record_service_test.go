package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/internal/parser"
)

type fakeHistory struct {
	mu      sync.Mutex
	entries []models.HistoryEntry
}

func (f *fakeHistory) Record(ctx context.Context, kind, query, normalized string, resultCount int) (*models.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := models.HistoryEntry{Kind: kind, Query: query, Normalized: normalized, ResultCount: resultCount}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func newTestRecordService(cache ICacheService, hist HistoryRecorder) *RecordService {
	clock := func() time.Time { return time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC) }
	p := parser.NewRecordParser(nil, clock, zap.NewNop())
	return NewRecordService(p, cache, hist, nil, zap.NewNop())
}

var sampleRow = models.RawOwnerRow{
	Name:          "Ông Nguyễn Văn An",
	Gender:        "Nam",
	NationalID:    "001085012345",
	BirthDate:     "12/3/1985",
	IssueNumber:   "cs 123456",
	DocumentFiles: []string{"scan_1.pdf", "GCN_CS123456.pdf"},
}

func TestRecordService_NormalizeRecordUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := NewCacheService(time.Hour)
	rs := newTestRecordService(cache, nil)

	opts := requests.NormalizeOptions{UseCache: true}
	first, hit, err := rs.NormalizeRecord(ctx, sampleRow, opts)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first.Owners, 1)
	assert.Equal(t, "Nguyễn Văn An", first.Owners[0].FullName)
	assert.Equal(t, "001085012345", first.Owners[0].NationalID)
	assert.Equal(t, "GCN_CS123456.pdf", first.Certificate.DocumentFile)

	second, hit, err := rs.NormalizeRecord(ctx, sampleRow, opts)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)

	assert.True(t, strings.HasPrefix(rs.CacheKey(sampleRow), rs.RulesVersion()+":sha256:"))

	stats := rs.GetStats()
	assert.Equal(t, int64(2), stats["records_processed"])
	assert.Equal(t, int64(1), stats["cache_hits"])
}

func TestRecordService_NormalizeRecordWithoutCache(t *testing.T) {
	rs := newTestRecordService(NewCacheService(time.Hour), nil)

	_, hit, err := rs.NormalizeRecord(context.Background(), sampleRow, requests.NormalizeOptions{})
	require.NoError(t, err)
	_, hit, err = rs.NormalizeRecord(context.Background(), sampleRow, requests.NormalizeOptions{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRecordService_RecordsHistory(t *testing.T) {
	hist := &fakeHistory{}
	rs := newTestRecordService(nil, hist)

	_, _, err := rs.NormalizeRecord(context.Background(), sampleRow, requests.NormalizeOptions{RecordHistory: true})
	require.NoError(t, err)

	require.Len(t, hist.entries, 3)
	assert.Equal(t, models.HistoryOwnerName, hist.entries[0].Kind)
	assert.Equal(t, "Nguyễn Văn An", hist.entries[0].Normalized)
	assert.Equal(t, models.HistoryNationalID, hist.entries[1].Kind)
	assert.Equal(t, models.HistoryIssueNumber, hist.entries[2].Kind)
	assert.Equal(t, "CS 123456", hist.entries[2].Normalized)
}

func TestRecordService_JobLifecycle(t *testing.T) {
	rs := newTestRecordService(nil, nil)

	rows := []models.RawOwnerRow{
		sampleRow,
		{Name: "Bà Trần Thị Bình", NationalID: "12345"},
		{Name: "CÔNG TY TNHH Phú Mỹ", NationalID: "000301234567"},
	}

	jobID := rs.CreateJob(rows, requests.NormalizeOptions{})
	require.NotEmpty(t, jobID)

	status, err := rs.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Total)

	require.Eventually(t, func() bool {
		s, err := rs.GetJobStatus(jobID)
		return err == nil && s.Status == JobStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	status, err = rs.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 1.0, status.Progress)
	assert.GreaterOrEqual(t, status.NeedsReview, 1)

	results, err := rs.GetJobResults(jobID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, models.OwnerOrganization, results[2].OwnerKind)

	stream, err := rs.GetJobResultsStream(context.Background(), jobID)
	require.NoError(t, err)

	var buf bytes.Buffer
	written, err := WriteNDJSON(&buf, stream)
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	var decoded models.RecordResult
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, results[0].Fingerprint, decoded.Fingerprint)
	assert.Contains(t, lines[0], "Nguyễn Văn An")
}

func TestRecordService_UnknownJob(t *testing.T) {
	rs := newTestRecordService(nil, nil)

	_, err := rs.GetJobStatus("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))

	_, err = rs.GetJobResults("missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))

	_, err = rs.GetJobResultsStream(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrJobNotFound))
}

func TestRecordService_ProcessBatchJobCancelled(t *testing.T) {
	rs := newTestRecordService(nil, nil)
	jobID := "job-cancelled"

	rs.mu.Lock()
	rs.jobs[jobID] = &JobStatus{JobID: jobID, Status: JobStatusRunning, Total: 1}
	rs.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rs.ProcessBatchJob(ctx, jobID, []models.RawOwnerRow{sampleRow}, requests.NormalizeOptions{})

	status, err := rs.GetJobStatus(jobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, status.Status)

	results, err := rs.GetJobResults(jobID)
	require.NoError(t, err)
	assert.Empty(t, results)
}
