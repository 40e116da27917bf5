package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
)

// HybridCacheService cache hai tầng: L1 nhanh (Redis) + L2 bền vững (MongoDB)
type HybridCacheService struct {
	l1     ICacheService
	l2     ICacheService
	logger *zap.Logger
}

// NewHybridCacheService tạo mới hybrid cache service
func NewHybridCacheService(l1, l2 ICacheService, logger *zap.Logger) *HybridCacheService {
	return &HybridCacheService{
		l1:     l1,
		l2:     l2,
		logger: logger,
	}
}

// Get lấy kết quả từ cache (L1 trước, L2 sau)
func (hcs *HybridCacheService) Get(ctx context.Context, key string) (*models.RecordResult, bool, error) {
	result, found, err := hcs.l1.Get(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi L1 cache, fallback L2", zap.Error(err))
	} else if found {
		hcs.logger.Debug("L1 cache hit", zap.String("key", key))
		return result, true, nil
	}

	result, found, err = hcs.l2.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		hcs.logger.Debug("Cache miss (L1 & L2)", zap.String("key", key))
		return nil, false, nil
	}

	// Đồng bộ ngược lên L1
	if err := hcs.l1.Set(ctx, key, result); err != nil {
		hcs.logger.Warn("Lỗi sync L2->L1", zap.Error(err), zap.String("key", key))
	}

	hcs.logger.Debug("L2 cache hit", zap.String("key", key))
	return result, true, nil
}

// Set lưu kết quả vào cả hai tầng
func (hcs *HybridCacheService) Set(ctx context.Context, key string, result *models.RecordResult) error {
	if err := hcs.both(func(c ICacheService) error { return c.Set(ctx, key, result) }); err != nil {
		return fmt.Errorf("lỗi lưu hybrid cache: %w", err)
	}
	hcs.logger.Debug("Saved to hybrid cache", zap.String("key", key))
	return nil
}

// Delete xóa key khỏi cả hai tầng
func (hcs *HybridCacheService) Delete(ctx context.Context, key string) error {
	if err := hcs.both(func(c ICacheService) error { return c.Delete(ctx, key) }); err != nil {
		return fmt.Errorf("lỗi xóa hybrid cache: %w", err)
	}
	return nil
}

// Clear xóa toàn bộ cache ở cả hai tầng
func (hcs *HybridCacheService) Clear(ctx context.Context) error {
	if err := hcs.both(func(c ICacheService) error { return c.Clear(ctx) }); err != nil {
		return fmt.Errorf("lỗi clear hybrid cache: %w", err)
	}
	hcs.logger.Info("Cleared hybrid cache")
	return nil
}

// InvalidateByRulesVersion xóa kết quả của bộ từ khóa cũ ở cả hai tầng
func (hcs *HybridCacheService) InvalidateByRulesVersion(ctx context.Context, rulesVersion string) error {
	err := hcs.both(func(c ICacheService) error { return c.InvalidateByRulesVersion(ctx, rulesVersion) })
	if err != nil {
		return fmt.Errorf("lỗi invalidate hybrid cache: %w", err)
	}
	hcs.logger.Info("Invalidated hybrid cache", zap.String("rules_version", rulesVersion))
	return nil
}

// GetStats gộp thống kê hai tầng; số item lấy theo L2 vì L2 chứa toàn bộ
func (hcs *HybridCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	l1Stats, l1Err := hcs.l1.GetStats(ctx)
	l2Stats, l2Err := hcs.l2.GetStats(ctx)

	switch {
	case l1Err != nil && l2Err != nil:
		return nil, fmt.Errorf("cả hai tầng cache đều lỗi: %w", errors.Join(l1Err, l2Err))
	case l1Err != nil:
		return l2Stats, nil
	case l2Err != nil:
		return l1Stats, nil
	}

	// Miss ở L1 được tính lại ở L2 nên chỉ cộng miss của L2
	hits := l1Stats.TotalHits + l2Stats.TotalHits
	miss := l2Stats.TotalMiss
	return &CacheStats{
		HitRate:    hitRate(hits, miss),
		TotalHits:  hits,
		TotalMiss:  miss,
		TotalItems: l2Stats.TotalItems,
	}, nil
}

// Exists kiểm tra key có tồn tại không (L1 trước, L2 sau)
func (hcs *HybridCacheService) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := hcs.l1.Exists(ctx, key)
	if err != nil {
		hcs.logger.Warn("Lỗi check L1 exists, fallback L2", zap.Error(err))
	} else if exists {
		return true, nil
	}
	return hcs.l2.Exists(ctx, key)
}

// GetTTL lấy TTL của key ở L1
func (hcs *HybridCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return hcs.l1.GetTTL(ctx, key)
}

// Close đóng cả hai tầng
func (hcs *HybridCacheService) Close() error {
	return hcs.both(func(c ICacheService) error { return c.Close() })
}

// both chạy op song song trên hai tầng và gộp lỗi
func (hcs *HybridCacheService) both(op func(ICacheService) error) error {
	errCh := make(chan error, 2)
	for _, c := range []ICacheService{hcs.l1, hcs.l2} {
		go func(c ICacheService) {
			errCh <- op(c)
		}(c)
	}

	var errs []error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			hcs.logger.Warn("Lỗi thao tác cache", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
