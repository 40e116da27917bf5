package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/helpers/utils"
	"github.com/vbdlis-normalizer/internal/metrics"
	"github.com/vbdlis-normalizer/internal/parser"
)

// Job status constants
const (
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

var (
	// ErrJobNotFound job không tồn tại
	ErrJobNotFound = errors.New("job không tồn tại")
	// ErrJobNotFinished job chưa xử lý xong
	ErrJobNotFinished = errors.New("job chưa hoàn thành")
)

// HistoryRecorder ghi lịch sử tra cứu
type HistoryRecorder interface {
	Record(ctx context.Context, kind, query, normalized string, resultCount int) (*models.HistoryEntry, error)
}

// JobStatus trạng thái của job
type JobStatus struct {
	JobID              string
	Status             string
	Progress           float64
	Processed          int
	Total              int
	NeedsReview        int
	EstimatedRemaining int
	Message            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RecordService service chuẩn hóa dòng chủ sử dụng, có cache và job batch
type RecordService struct {
	parser    *parser.RecordParser
	cache     ICacheService
	history   HistoryRecorder
	metrics   *metrics.Metrics
	logger    *zap.Logger
	startTime time.Time

	mu         sync.RWMutex
	jobs       map[string]*JobStatus
	jobResults map[string][]*models.RecordResult

	processed atomic.Int64
	cacheHits atomic.Int64
}

// NewRecordService tạo mới RecordService. cache, history và metrics có thể nil.
func NewRecordService(p *parser.RecordParser, cache ICacheService, history HistoryRecorder, m *metrics.Metrics, logger *zap.Logger) *RecordService {
	return &RecordService{
		parser:     p,
		cache:      cache,
		history:    history,
		metrics:    m,
		logger:     logger,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.RecordResult),
	}
}

// RulesVersion phiên bản bộ từ khóa đang dùng
func (rs *RecordService) RulesVersion() string {
	return rs.parser.Rules().Version
}

// CacheKey key cache gắn với phiên bản bộ từ khóa, dạng "<rules_version>:<fingerprint>"
func (rs *RecordService) CacheKey(row models.RawOwnerRow) string {
	return rs.RulesVersion() + ":" + parser.Fingerprint(row)
}

// NormalizeRecord chuẩn hóa một dòng; trả về thêm cờ cache hit
func (rs *RecordService) NormalizeRecord(ctx context.Context, row models.RawOwnerRow, opts requests.NormalizeOptions) (*models.RecordResult, bool, error) {
	start := time.Now()
	useCache := opts.UseCache && rs.cache != nil
	key := ""

	if useCache {
		key = rs.CacheKey(row)
		cached, found, err := rs.cache.Get(ctx, key)
		if err != nil {
			rs.logger.Warn("Lỗi đọc cache, chuẩn hóa lại", zap.Error(err))
		}
		rs.metrics.ObserveCache(found)
		if found {
			rs.cacheHits.Add(1)
			rs.afterNormalize(ctx, cached, opts, start)
			return cached, true, nil
		}
	}

	result := rs.parser.Parse(row)

	if useCache {
		if err := rs.cache.Set(ctx, key, result); err != nil {
			rs.logger.Warn("Lỗi lưu cache", zap.Error(err), zap.String("key", key))
		}
	}

	rs.afterNormalize(ctx, result, opts, start)
	return result, false, nil
}

func (rs *RecordService) afterNormalize(ctx context.Context, result *models.RecordResult, opts requests.NormalizeOptions, start time.Time) {
	rs.processed.Add(1)
	rs.metrics.ObserveRecord(result.Status, time.Since(start))

	if opts.RecordHistory && rs.history != nil {
		rs.recordHistory(ctx, result)
	}
}

// recordHistory ghi tên, CCCD và số phát hành của chủ sử dụng chính; lỗi chỉ log
func (rs *RecordService) recordHistory(ctx context.Context, result *models.RecordResult) {
	type lookup struct{ kind, query, normalized string }
	var lookups []lookup

	if owner := result.PrimaryOwner(); owner != nil {
		if owner.FullName != "" {
			lookups = append(lookups, lookup{models.HistoryOwnerName, result.Raw.Name, owner.FullName})
		}
		if owner.NationalID != "" {
			lookups = append(lookups, lookup{models.HistoryNationalID, result.Raw.NationalID, owner.NationalID})
		}
	}
	if result.Certificate.IssueNumber != "" {
		lookups = append(lookups, lookup{models.HistoryIssueNumber, result.Raw.IssueNumber, result.Certificate.IssueNumber})
	}

	for _, l := range lookups {
		if _, err := rs.history.Record(ctx, l.kind, l.query, l.normalized, 1); err != nil {
			rs.logger.Warn("Lỗi ghi lịch sử tra cứu", zap.String("kind", l.kind), zap.Error(err))
		}
	}
}

// EstimateBatchProcessingTime ước tính thời gian xử lý batch (giây)
func (rs *RecordService) EstimateBatchProcessingTime(recordCount int) int {
	// Mỗi bản ghi khoảng 2ms khi không có cache
	return recordCount * 2 / 1000
}

// CreateJob đăng ký job và xử lý trong background, trả về job ID
func (rs *RecordService) CreateJob(rows []models.RawOwnerRow, opts requests.NormalizeOptions) string {
	jobID := utils.GenerateUUID()
	now := time.Now()

	rs.mu.Lock()
	rs.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    JobStatusRunning,
		Total:     len(rows),
		Message:   "Đang xử lý...",
		CreatedAt: now,
		UpdatedAt: now,
	}
	rs.mu.Unlock()

	go rs.ProcessBatchJob(context.Background(), jobID, rows, opts)
	return jobID
}

// ProcessBatchJob xử lý job đã đăng ký bằng CreateJob
func (rs *RecordService) ProcessBatchJob(ctx context.Context, jobID string, rows []models.RawOwnerRow, opts requests.NormalizeOptions) {
	rs.metrics.JobStarted()
	defer rs.metrics.JobFinished()

	results := make([]*models.RecordResult, 0, len(rows))
	needsReview := 0

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			rs.finishJob(jobID, results, JobStatusFailed, fmt.Sprintf("Job bị hủy: %v", err))
			return
		}

		result, _, err := rs.NormalizeRecord(ctx, row, opts)
		if err != nil {
			result = &models.RecordResult{
				Raw:          row,
				Fingerprint:  parser.Fingerprint(row),
				Flags:        []string{},
				Status:       models.StatusFailed,
				RulesVersion: rs.RulesVersion(),
			}
		}
		if result.Status != models.StatusNormalized {
			needsReview++
		}
		results = append(results, result)

		rs.mu.Lock()
		if job, exists := rs.jobs[jobID]; exists {
			job.Processed = i + 1
			job.NeedsReview = needsReview
			job.Progress = float64(i+1) / float64(len(rows))
			job.EstimatedRemaining = rs.EstimateBatchProcessingTime(len(rows) - i - 1)
			job.UpdatedAt = time.Now()
		}
		rs.mu.Unlock()
	}

	rs.finishJob(jobID, results, JobStatusDone, "Hoàn thành xử lý")

	rs.logger.Info("Batch job completed",
		zap.String("job_id", jobID),
		zap.Int("total_records", len(rows)),
		zap.Int("needs_review", needsReview))
}

func (rs *RecordService) finishJob(jobID string, results []*models.RecordResult, status, message string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.jobResults[jobID] = results
	if job, exists := rs.jobs[jobID]; exists {
		job.Status = status
		job.Message = message
		job.EstimatedRemaining = 0
		job.UpdatedAt = time.Now()
		if status == JobStatusDone {
			job.Progress = 1
		}
	}
}

// GetJobStatus lấy bản sao trạng thái job
func (rs *RecordService) GetJobStatus(jobID string) (JobStatus, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	job, exists := rs.jobs[jobID]
	if !exists {
		return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return *job, nil
}

// GetJobResults lấy kết quả job
func (rs *RecordService) GetJobResults(jobID string) ([]*models.RecordResult, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	if _, exists := rs.jobs[jobID]; !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	results, exists := rs.jobResults[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFinished, jobID)
	}
	return results, nil
}

// GetJobResultsStream lấy kết quả job dưới dạng channel để stream
func (rs *RecordService) GetJobResultsStream(ctx context.Context, jobID string) (<-chan *models.RecordResult, error) {
	results, err := rs.GetJobResults(jobID)
	if err != nil {
		return nil, err
	}

	resultChannel := make(chan *models.RecordResult, 100)
	go func() {
		defer close(resultChannel)
		for _, result := range results {
			select {
			case resultChannel <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return resultChannel, nil
}

// WriteNDJSON ghi mỗi kết quả thành một dòng JSON
func WriteNDJSON(w io.Writer, results <-chan *models.RecordResult) (int, error) {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	written := 0
	for result := range results {
		if err := encoder.Encode(result); err != nil {
			return written, fmt.Errorf("lỗi encode NDJSON: %w", err)
		}
		written++
	}
	return written, nil
}

// GetStartTime lấy thời gian khởi động service
func (rs *RecordService) GetStartTime() time.Time {
	return rs.startTime
}

// GetStats lấy thống kê service
func (rs *RecordService) GetStats() map[string]interface{} {
	rs.mu.RLock()
	running := 0
	for _, job := range rs.jobs {
		if job.Status == JobStatusRunning {
			running++
		}
	}
	totalJobs := len(rs.jobs)
	rs.mu.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":    int64(time.Since(rs.startTime).Seconds()),
		"start_time":        rs.startTime.Format(time.RFC3339),
		"rules_version":     rs.RulesVersion(),
		"records_processed": rs.processed.Load(),
		"cache_hits":        rs.cacheHits.Load(),
		"jobs_total":        totalJobs,
		"jobs_running":      running,
	}
}
