package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/app/responses"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/internal/search"
)

// AdminController controller xử lý các request admin
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController tạo mới AdminController
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// SeedUnits nạp danh mục ĐVHC; ?dry_run=true chỉ validate
func (ac *AdminController) SeedUnits(c *gin.Context) {
	var req requests.SeedUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return
	}

	if c.Query("dry_run") == "true" {
		validation := services.ValidateUnits(req.Data)
		message := "Validation hoàn thành thành công"
		if !validation.Passed {
			message = "Dữ liệu có lỗi, không thể seed"
		}

		c.JSON(http.StatusOK, responses.SeedUnitsResponse{
			ValidationPassed:   validation.Passed,
			Errors:             validation.Errors,
			Warnings:           validation.Warnings,
			EstimatedBuildTime: validation.EstimatedBuildTime,
			DryRun:             true,
			Message:            message,
		})
		return
	}

	result, err := ac.adminService.SeedUnits(c.Request.Context(), req.DatasetVersion, req.Data, req.RebuildIndexes)
	if err != nil {
		status, code := http.StatusInternalServerError, "SEED_ERROR"
		switch {
		case errors.Is(err, services.ErrInvalidDataset):
			status, code = http.StatusBadRequest, "VALIDATION_ERROR"
		case errors.Is(err, services.ErrStorageDisabled):
			status, code = http.StatusServiceUnavailable, "STORAGE_DISABLED"
		}
		ac.logger.Error("Lỗi seed ĐVHC", zap.Error(err))
		c.JSON(status, responses.ErrorResponse{
			Error:   code,
			Message: "Lỗi seed ĐVHC: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SeedUnitsResponse{
		ValidationPassed: true,
		Warnings:         result.Warnings,
		UnitsProcessed:   result.UnitsProcessed,
		UnitsDeleted:     result.UnitsDeleted,
		IndexesBuilt:     result.IndexesBuilt,
		ProcessingTimeMs: result.ProcessingTimeMs,
		Message:          "Seed ĐVHC thành công",
	})
}

// SearchUnits tìm ĐVHC theo tên, ?level và ?parent_code để lọc
func (ac *AdminController) SearchUnits(c *gin.Context) {
	query := c.Query("q")
	level, _ := strconv.Atoi(c.Query("level"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	units, err := ac.adminService.SearchUnits(c.Request.Context(), query, level, c.Query("parent_code"), limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrStorageDisabled) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, responses.ErrorResponse{
			Error:   "SEARCH_ERROR",
			Message: "Lỗi tìm ĐVHC: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.UnitSearchResponse{
		Query: query,
		Units: units,
		Total: len(units),
	})
}

// GetUnit lấy một ĐVHC theo mã
func (ac *AdminController) GetUnit(c *gin.Context) {
	unit, err := ac.adminService.GetUnit(c.Request.Context(), c.Param("code"))
	if err != nil {
		status, code := http.StatusInternalServerError, "SEARCH_ERROR"
		switch {
		case errors.Is(err, search.ErrUnitNotFound):
			status, code = http.StatusNotFound, "UNIT_NOT_FOUND"
		case errors.Is(err, services.ErrStorageDisabled):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, responses.ErrorResponse{
			Error:   code,
			Message: "Lỗi lấy ĐVHC: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, unit)
}

// InvalidateCache xóa cache kết quả của bộ từ khóa khác rules_version, rỗng là xóa toàn bộ
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	var req requests.InvalidateCacheRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{
				Error:   "INVALID_REQUEST",
				Message: "Request không hợp lệ: " + err.Error(),
			})
			return
		}
	}

	startTime := time.Now()

	if err := ac.adminService.InvalidateCache(c.Request.Context(), req.RulesVersion); err != nil {
		ac.logger.Error("Lỗi invalidate cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INVALIDATE_ERROR",
			Message: "Lỗi invalidate cache: " + err.Error(),
		})
		return
	}

	processingTime := time.Since(startTime)
	ac.logger.Info("Invalidate cache thành công",
		zap.String("rules_version", req.RulesVersion),
		zap.Duration("duration", processingTime))

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "Invalidate cache thành công",
		Data: map[string]interface{}{
			"rules_version":      req.RulesVersion,
			"processing_time_ms": processingTime.Milliseconds(),
		},
	})
}

// GetStats lấy thống kê hệ thống
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		ac.logger.Error("Lỗi lấy stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "STATS_ERROR",
			Message: "Lỗi lấy stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ExportData export dữ liệu để backup
func (ac *AdminController) ExportData(c *gin.Context) {
	dataType := c.Param("type") // admin_units, record_cache, history

	format := c.DefaultQuery("format", "json")

	limit := 10000
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	data, err := ac.adminService.ExportData(c.Request.Context(), dataType, format, limit)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrUnsupportedExport):
			status = http.StatusBadRequest
		case errors.Is(err, services.ErrStorageDisabled):
			status = http.StatusServiceUnavailable
		}
		ac.logger.Error("Lỗi export data", zap.Error(err))
		c.JSON(status, responses.ErrorResponse{
			Error:   "EXPORT_ERROR",
			Message: "Lỗi export data: " + err.Error(),
		})
		return
	}

	filename := fmt.Sprintf("%s_export_%s.%s", dataType, time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	contentType := "application/json"
	if format == "csv" {
		contentType = "text/csv; charset=utf-8"
	}
	c.Data(http.StatusOK, contentType, data)
}
