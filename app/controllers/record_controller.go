package controllers

import (
	"compress/gzip"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/app/responses"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/helpers/utils"
)

// Version phiên bản dịch vụ
const Version = "1.0.0"

// RecordController controller chuẩn hóa dòng chủ sử dụng và job hàng loạt
type RecordController struct {
	recordService *services.RecordService
	maxRecords    int
	components    map[string]string
	logger        *zap.Logger
}

// NewRecordController tạo mới RecordController. components là trạng thái các thành phần hiển thị ở health check.
func NewRecordController(recordService *services.RecordService, maxRecords int, components map[string]string, logger *zap.Logger) *RecordController {
	if maxRecords <= 0 {
		maxRecords = 20000
	}
	return &RecordController{
		recordService: recordService,
		maxRecords:    maxRecords,
		components:    components,
		logger:        logger,
	}
}

// NormalizeRecord chuẩn hóa một dòng
func (rc *RecordController) NormalizeRecord(c *gin.Context) {
	var req requests.NormalizeRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return
	}

	startTime := time.Now()

	result, cacheHit, err := rc.recordService.NormalizeRecord(c.Request.Context(), req.Record, req.Options)
	if err != nil {
		rc.logger.Error("Lỗi chuẩn hóa bản ghi", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "NORMALIZE_ERROR",
			Message: "Lỗi chuẩn hóa bản ghi: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.NormalizeRecordResponse{
		Result:           result,
		RulesVersion:     rc.recordService.RulesVersion(),
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

// CreateJob tạo job chuẩn hóa hàng loạt
func (rc *RecordController) CreateJob(c *gin.Context) {
	var req requests.BatchNormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return
	}

	if len(req.Records) > rc.maxRecords {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "TOO_MANY_RECORDS",
			Message: fmt.Sprintf("Số lượng bản ghi vượt quá giới hạn (%d)", rc.maxRecords),
		})
		return
	}

	jobID := rc.recordService.CreateJob(req.Records, req.Options)

	c.JSON(http.StatusAccepted, responses.BatchJobResponse{
		JobID:            jobID,
		EstimatedSeconds: rc.recordService.EstimateBatchProcessingTime(len(req.Records)),
		TotalRecords:     len(req.Records),
		Message:          "Job đã được tạo và đang xử lý",
	})
}

// GetJobStatus lấy trạng thái job
func (rc *RecordController) GetJobStatus(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	status, err := rc.recordService.GetJobStatus(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "JOB_NOT_FOUND",
			Message: "Không tìm thấy job: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:              jobID,
		Status:             status.Status,
		Progress:           status.Progress,
		Processed:          status.Processed,
		Total:              status.Total,
		NeedsReview:        status.NeedsReview,
		EstimatedRemaining: status.EstimatedRemaining,
		Message:            status.Message,
	})
}

// GetJobResults lấy kết quả job; ?format=ndjson để stream, thêm &gzip=1 để nén
func (rc *RecordController) GetJobResults(c *gin.Context) {
	jobID, ok := jobIDParam(c)
	if !ok {
		return
	}

	if c.Query("format") == "ndjson" {
		rc.streamNDJSONResults(c, jobID, c.Query("gzip") == "1")
		return
	}

	results, err := rc.recordService.GetJobResults(jobID)
	if err != nil {
		writeJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Lấy kết quả thành công",
		Data:    results,
	})
}

// HealthCheck kiểm tra sức khỏe service
func (rc *RecordController) HealthCheck(c *gin.Context) {
	uptime := time.Since(rc.recordService.GetStartTime())

	components := map[string]string{"normalizer": "healthy"}
	for name, state := range rc.components {
		components[name] = state
	}

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:       "healthy",
		Timestamp:    time.Now().Format(time.RFC3339),
		Uptime:       uptime.Round(time.Second).String(),
		Version:      Version,
		RulesVersion: rc.recordService.RulesVersion(),
		Services:     components,
	})
}

// streamNDJSONResults stream kết quả theo format NDJSON với hỗ trợ gzip
func (rc *RecordController) streamNDJSONResults(c *gin.Context, jobID string, gzipEnabled bool) {
	resultChannel, err := rc.recordService.GetJobResultsStream(c.Request.Context(), jobID)
	if err != nil {
		rc.logger.Warn("Lỗi stream job results", zap.Error(err))
		writeJobError(c, err)
		return
	}

	c.Header("Content-Type", "application/x-ndjson")

	var writer gin.ResponseWriter = c.Writer
	if gzipEnabled {
		c.Header("Content-Encoding", "gzip")
		gzWriter := gzip.NewWriter(c.Writer)
		defer gzWriter.Close()
		writer = &gzipResponseWriter{
			ResponseWriter: c.Writer,
			gzWriter:       gzWriter,
		}
	}
	c.Status(http.StatusOK)

	written, err := services.WriteNDJSON(writer, resultChannel)
	if err != nil {
		rc.logger.Error("Lỗi encode NDJSON", zap.Error(err), zap.Int("written", written))
		return
	}
	writer.Flush()
}

// jobIDParam job ID do CreateJob sinh luôn là UUID
func jobIDParam(c *gin.Context) (string, bool) {
	jobID := c.Param("jobID")
	if !utils.IsValidUUID(jobID) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_JOB_ID",
			Message: "Job ID không hợp lệ: " + jobID,
		})
		return "", false
	}
	return jobID, true
}

func writeJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrJobNotFinished):
		c.JSON(http.StatusConflict, responses.ErrorResponse{
			Error:   "JOB_NOT_FINISHED",
			Message: "Job chưa hoàn thành: " + err.Error(),
		})
	default:
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "JOB_NOT_FOUND",
			Message: "Không tìm thấy job: " + err.Error(),
		})
	}
}

// gzipResponseWriter wrapper cho gzip writer
type gzipResponseWriter struct {
	gin.ResponseWriter
	gzWriter *gzip.Writer
}

func (w *gzipResponseWriter) Write(data []byte) (int, error) {
	return w.gzWriter.Write(data)
}

func (w *gzipResponseWriter) WriteString(s string) (int, error) {
	return w.gzWriter.Write([]byte(s))
}

func (w *gzipResponseWriter) Flush() {
	w.gzWriter.Flush()
	w.ResponseWriter.Flush()
}
