package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/history"
	"github.com/vbdlis-normalizer/internal/normalizer"
)

// HistoryService lịch sử tra cứu của người dùng
type HistoryService struct {
	store  *history.Store
	logger *zap.Logger
}

// NewHistoryService tạo mới HistoryService
func NewHistoryService(store *history.Store, logger *zap.Logger) *HistoryService {
	return &HistoryService{store: store, logger: logger}
}

// Record chuẩn hóa chuỗi tra cứu theo loại rồi ghi vào lịch sử
func (hs *HistoryService) Record(ctx context.Context, kind, query, normalized string, resultCount int) (*models.HistoryEntry, error) {
	if normalized == "" {
		normalized = NormalizeForKind(kind, query)
	}

	entry, err := hs.store.Record(ctx, kind, query, normalized, resultCount)
	if err != nil {
		return nil, fmt.Errorf("lỗi ghi lịch sử: %w", err)
	}

	hs.logger.Debug("Đã ghi lịch sử tra cứu",
		zap.String("kind", kind),
		zap.String("search_key", entry.SearchKey))
	return entry, nil
}

// Recent các lần tra cứu gần nhất
func (hs *HistoryService) Recent(ctx context.Context, kind string, limit int) ([]models.HistoryEntry, error) {
	return hs.store.Recent(ctx, kind, limit)
}

// Search tìm mờ trong lịch sử
func (hs *HistoryService) Search(ctx context.Context, kind, query string, limit int) ([]models.HistoryEntry, error) {
	return hs.store.Search(ctx, kind, query, limit)
}

// Clear xóa lịch sử
func (hs *HistoryService) Clear(ctx context.Context, kind string) (int64, error) {
	n, err := hs.store.Clear(ctx, kind)
	if err != nil {
		return 0, err
	}
	hs.logger.Info("Đã xóa lịch sử tra cứu", zap.String("kind", kind), zap.Int64("deleted", n))
	return n, nil
}

// Stats số bản ghi theo loại
func (hs *HistoryService) Stats(ctx context.Context) (map[string]int, error) {
	return hs.store.CountByKind(ctx)
}

// NormalizeForKind giá trị chuẩn hóa hiển thị cho một chuỗi tra cứu
func NormalizeForKind(kind, query string) string {
	switch kind {
	case models.HistoryOwnerName:
		return normalizer.NormalizeVietnameseName(query)
	case models.HistoryNationalID:
		if canonical, ok := normalizer.NormalizeNationalID(query); ok {
			return canonical
		}
	case models.HistoryIssueNumber:
		return normalizer.NormalizeIssueNumber(query)
	}
	return normalizer.CleanText(query)
}
