package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/app/requests"
	"github.com/vbdlis-normalizer/app/responses"
	"github.com/vbdlis-normalizer/app/services"
	"github.com/vbdlis-normalizer/internal/history"
)

// HistoryController controller lịch sử tra cứu
type HistoryController struct {
	historyService *services.HistoryService
	logger         *zap.Logger
}

// NewHistoryController tạo mới HistoryController
func NewHistoryController(historyService *services.HistoryService, logger *zap.Logger) *HistoryController {
	return &HistoryController{
		historyService: historyService,
		logger:         logger,
	}
}

// List trả về lịch sử gần nhất, hoặc kết quả tìm mờ khi có ?q
func (hc *HistoryController) List(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && !models.IsValidHistoryKind(kind) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_KIND",
			Message: "Loại tra cứu không hợp lệ: " + kind,
		})
		return
	}

	limit := 0
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	query := c.Query("q")

	var (
		entries []models.HistoryEntry
		err     error
	)
	if query != "" {
		entries, err = hc.historyService.Search(c.Request.Context(), kind, query, limit)
	} else {
		entries, err = hc.historyService.Recent(c.Request.Context(), kind, limit)
	}
	if err != nil {
		hc.logger.Error("Lỗi đọc lịch sử tra cứu", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "HISTORY_ERROR",
			Message: "Lỗi đọc lịch sử: " + err.Error(),
		})
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}

	c.JSON(http.StatusOK, responses.HistoryListResponse{
		Kind:    kind,
		Query:   query,
		Entries: entries,
		Total:   len(entries),
	})
}

// Record ghi một lần tra cứu
func (hc *HistoryController) Record(c *gin.Context) {
	var req requests.RecordHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "Request không hợp lệ: " + err.Error(),
		})
		return
	}

	entry, err := hc.historyService.Record(c.Request.Context(), req.Kind, req.Query, "", req.ResultCount)
	if err != nil {
		status, code := http.StatusInternalServerError, "HISTORY_ERROR"
		if errors.Is(err, history.ErrInvalidKind) || errors.Is(err, history.ErrEmptyQuery) {
			status, code = http.StatusBadRequest, "INVALID_REQUEST"
		}
		c.JSON(status, responses.ErrorResponse{
			Error:   code,
			Message: "Lỗi ghi lịch sử: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, responses.SuccessResponse{
		Success: true,
		Message: "Đã ghi lịch sử tra cứu",
		Data:    entry,
	})
}

// Clear xóa lịch sử, ?kind để chỉ xóa một loại
func (hc *HistoryController) Clear(c *gin.Context) {
	kind := c.Query("kind")
	if kind != "" && !models.IsValidHistoryKind(kind) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_KIND",
			Message: "Loại tra cứu không hợp lệ: " + kind,
		})
		return
	}

	deleted, err := hc.historyService.Clear(c.Request.Context(), kind)
	if err != nil {
		hc.logger.Error("Lỗi xóa lịch sử", zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "HISTORY_ERROR",
			Message: "Lỗi xóa lịch sử: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.HistoryClearResponse{Kind: kind, Deleted: deleted})
}
