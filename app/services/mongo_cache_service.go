package services

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
)

const recordCacheCollection = "record_cache"

// MongoCacheService persistent cache service sử dụng MongoDB + LRU in-memory
type MongoCacheService struct {
	collection *mongo.Collection
	l1Cache    *lru.Cache[string, *models.RecordResult]
	logger     *zap.Logger

	l1Hits    atomic.Int64
	l1Miss    atomic.Int64
	mongoHits atomic.Int64
	mongoMiss atomic.Int64
}

// NewMongoCacheService tạo mới MongoCacheService
func NewMongoCacheService(db *mongo.Database, l1Size int, logger *zap.Logger) (*MongoCacheService, error) {
	l1Cache, err := lru.New[string, *models.RecordResult](l1Size)
	if err != nil {
		return nil, fmt.Errorf("không thể tạo LRU cache: %w", err)
	}

	collection := db.Collection(recordCacheCollection)

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "fingerprint", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{bson.E{Key: "rules_version", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "national_id", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "issue_number", Value: 1}}},
		{Keys: bson.D{bson.E{Key: "last_accessed", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		logger.Warn("Không thể tạo indexes cho record_cache", zap.Error(err))
	}

	return &MongoCacheService{
		collection: collection,
		l1Cache:    l1Cache,
		logger:     logger,
	}, nil
}

// Get lấy kết quả từ cache (L1 → MongoDB)
func (mcs *MongoCacheService) Get(ctx context.Context, key string) (*models.RecordResult, bool, error) {
	if result, found := mcs.l1Cache.Get(key); found {
		mcs.l1Hits.Add(1)
		mcs.logger.Debug("L1 cache hit", zap.String("key", key))
		return result, true, nil
	}
	mcs.l1Miss.Add(1)

	fingerprint := mcs.generateFingerprint(key)

	var entry models.RecordCache
	err := mcs.collection.FindOne(ctx, bson.M{"fingerprint": fingerprint}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			mcs.mongoMiss.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("lỗi query MongoDB cache: %w", err)
	}
	mcs.mongoHits.Add(1)

	// Cập nhật thống kê truy cập không chặn request
	go mcs.updateAccessStats(context.WithoutCancel(ctx), entry.ID)

	mcs.l1Cache.Add(key, &entry.Result)

	mcs.logger.Debug("MongoDB cache hit",
		zap.String("key", key),
		zap.String("fingerprint", fingerprint))

	return &entry.Result, true, nil
}

// Set lưu kết quả vào cache (L1 + MongoDB)
func (mcs *MongoCacheService) Set(ctx context.Context, key string, result *models.RecordResult) error {
	mcs.l1Cache.Add(key, result)

	fingerprint := mcs.generateFingerprint(key)
	entry := models.NewRecordCache(fingerprint, key, *result)

	opts := options.Replace().SetUpsert(true)
	if _, err := mcs.collection.ReplaceOne(ctx, bson.M{"fingerprint": fingerprint}, entry, opts); err != nil {
		mcs.logger.Error("Lỗi lưu vào MongoDB cache",
			zap.Error(err),
			zap.String("fingerprint", fingerprint))
		return fmt.Errorf("lỗi lưu vào MongoDB cache: %w", err)
	}

	mcs.logger.Debug("Đã lưu vào cache",
		zap.String("key", key),
		zap.String("fingerprint", fingerprint),
		zap.String("status", result.Status))

	return nil
}

// Delete xóa kết quả khỏi cache
func (mcs *MongoCacheService) Delete(ctx context.Context, key string) error {
	mcs.l1Cache.Remove(key)

	if _, err := mcs.collection.DeleteOne(ctx, bson.M{"fingerprint": mcs.generateFingerprint(key)}); err != nil {
		return fmt.Errorf("lỗi xóa khỏi MongoDB cache: %w", err)
	}
	return nil
}

// Clear xóa tất cả cache
func (mcs *MongoCacheService) Clear(ctx context.Context) error {
	mcs.l1Cache.Purge()

	if _, err := mcs.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("lỗi clear MongoDB cache: %w", err)
	}

	mcs.l1Hits.Store(0)
	mcs.l1Miss.Store(0)
	mcs.mongoHits.Store(0)
	mcs.mongoMiss.Store(0)

	return nil
}

// InvalidateByRulesVersion xóa các kết quả được tạo bởi bộ từ khóa cũ
func (mcs *MongoCacheService) InvalidateByRulesVersion(ctx context.Context, rulesVersion string) error {
	mcs.l1Cache.Purge()

	result, err := mcs.collection.DeleteMany(ctx, bson.M{"rules_version": bson.M{"$ne": rulesVersion}})
	if err != nil {
		return fmt.Errorf("lỗi invalidate cache theo rules version: %w", err)
	}

	mcs.logger.Info("Đã invalidate cache",
		zap.String("rules_version", rulesVersion),
		zap.Int64("deleted_count", result.DeletedCount))

	return nil
}

// GetStats lấy thống kê cache
func (mcs *MongoCacheService) GetStats(ctx context.Context) (*CacheStats, error) {
	mongoCount, err := mcs.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("lỗi đếm documents trong MongoDB cache: %w", err)
	}

	hits := mcs.l1Hits.Load() + mcs.mongoHits.Load()
	miss := mcs.mongoMiss.Load()

	mcs.logger.Debug("Cache stats",
		zap.Int64("total_hits", hits),
		zap.Int64("total_miss", miss),
		zap.Int("l1_size", mcs.l1Cache.Len()),
		zap.Int64("mongo_count", mongoCount))

	return &CacheStats{
		HitRate:    hitRate(hits, miss),
		TotalHits:  hits,
		TotalMiss:  miss,
		TotalItems: mongoCount,
	}, nil
}

// Exists kiểm tra key có tồn tại không
func (mcs *MongoCacheService) Exists(ctx context.Context, key string) (bool, error) {
	if mcs.l1Cache.Contains(key) {
		return true, nil
	}

	count, err := mcs.collection.CountDocuments(ctx, bson.M{"fingerprint": mcs.generateFingerprint(key)})
	if err != nil {
		return false, fmt.Errorf("lỗi check exists trong MongoDB: %w", err)
	}
	return count > 0, nil
}

// GetTTL MongoDB cache không có TTL, luôn trả về 0
func (mcs *MongoCacheService) GetTTL(ctx context.Context, key string) (time.Duration, error) {
	return 0, nil
}

// Close MongoDB connection được quản lý bởi caller
func (mcs *MongoCacheService) Close() error {
	return nil
}

// generateFingerprint sinh fingerprint cho cache key
func (mcs *MongoCacheService) generateFingerprint(key string) string {
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("sha256:%x", hash)
}

// updateAccessStats cập nhật thống kê truy cập (async)
func (mcs *MongoCacheService) updateAccessStats(ctx context.Context, id primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{"last_accessed": time.Now()},
		"$inc": bson.M{"access_count": 1},
	}
	if _, err := mcs.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		mcs.logger.Warn("Lỗi update access stats", zap.Error(err))
	}
}

// WarmUp làm nóng L1 từ các bản ghi được truy cập nhiều nhất của phiên bản bộ từ khóa hiện tại
func (mcs *MongoCacheService) WarmUp(ctx context.Context, rulesVersion string, limit int) error {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "access_count", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := mcs.collection.Find(ctx, bson.M{"rules_version": rulesVersion}, opts)
	if err != nil {
		return fmt.Errorf("lỗi warm up cache: %w", err)
	}
	defer cursor.Close(ctx)

	count := 0
	for cursor.Next(ctx) {
		var entry models.RecordCache
		if err := cursor.Decode(&entry); err != nil {
			mcs.logger.Warn("Lỗi decode cache entry trong warm up", zap.Error(err))
			continue
		}
		mcs.l1Cache.Add(entry.CacheKey, &entry.Result)
		count++
	}

	mcs.logger.Info("Cache warm up hoàn thành",
		zap.Int("loaded_items", count),
		zap.Int("l1_size", mcs.l1Cache.Len()))

	return cursor.Err()
}
