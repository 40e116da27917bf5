package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/vbdlis-normalizer/app/models"
	"github.com/vbdlis-normalizer/internal/normalizer"
)

var (
	// ErrInvalidKind loại tra cứu không được hỗ trợ
	ErrInvalidKind = errors.New("loại tra cứu không hợp lệ")
	// ErrEmptyQuery chuỗi tra cứu không còn ký tự chữ/số sau khi chuẩn hóa
	ErrEmptyQuery = errors.New("chuỗi tra cứu rỗng")
)

// maxScanRows số bản ghi gần nhất được chấm điểm khi tìm kiếm
const maxScanRows = 2000

const schema = `
CREATE TABLE IF NOT EXISTS search_history (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	kind         TEXT    NOT NULL,
	query        TEXT    NOT NULL,
	normalized   TEXT    NOT NULL,
	search_key   TEXT    NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	UNIQUE (kind, search_key)
);
CREATE INDEX IF NOT EXISTS idx_search_history_created ON search_history (created_at DESC);
`

// Store lịch sử tra cứu lưu cục bộ trong SQLite
type Store struct {
	db     *sql.DB
	clock  normalizer.Clock
	logger *zap.Logger
}

// Open mở (hoặc tạo) file SQLite và khởi tạo schema
func Open(path string, clock normalizer.Clock, logger *zap.Logger) (*Store, error) {
	if clock == nil {
		clock = normalizer.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("lỗi mở sqlite %s: %w", path, err)
	}
	// SQLite chỉ cho một writer tại một thời điểm
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("lỗi khởi tạo schema lịch sử: %w", err)
	}

	logger.Info("Đã mở lịch sử tra cứu", zap.String("path", path))
	return &Store{db: db, clock: clock, logger: logger}, nil
}

// Close đóng kết nối
func (s *Store) Close() error {
	return s.db.Close()
}

// KeyFor khóa so khớp theo loại tra cứu
func KeyFor(kind, query string) string {
	if kind == models.HistoryOwnerName {
		return normalizer.NameSearchKey(query)
	}
	return normalizer.SearchKey(query)
}

// Record ghi một lần tra cứu; cùng loại và cùng khóa thì cập nhật bản ghi cũ
func (s *Store) Record(ctx context.Context, kind, query, normalized string, resultCount int) (*models.HistoryEntry, error) {
	if !models.IsValidHistoryKind(kind) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}

	entry := &models.HistoryEntry{
		Kind:        kind,
		Query:       strings.TrimSpace(query),
		Normalized:  normalized,
		SearchKey:   KeyFor(kind, query),
		ResultCount: resultCount,
		CreatedAt:   s.clock().UTC(),
	}
	if entry.SearchKey == "" {
		return nil, ErrEmptyQuery
	}

	const q = `
INSERT INTO search_history (kind, query, normalized, search_key, result_count, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (kind, search_key) DO UPDATE SET
	query = excluded.query,
	normalized = excluded.normalized,
	result_count = excluded.result_count,
	created_at = excluded.created_at
RETURNING id`

	err := s.db.QueryRowContext(ctx, q,
		entry.Kind, entry.Query, entry.Normalized, entry.SearchKey, entry.ResultCount, entry.CreatedAt.UnixMilli(),
	).Scan(&entry.ID)
	if err != nil {
		return nil, fmt.Errorf("lỗi ghi lịch sử tra cứu: %w", err)
	}

	return entry, nil
}

// Recent các lần tra cứu gần nhất; kind rỗng là mọi loại
func (s *Store) Recent(ctx context.Context, kind string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.list(ctx, kind, limit)
}

// Search tìm trong lịch sử theo độ tương đồng của khóa ASCII, điểm cao trước, bằng điểm thì mới hơn trước
func (s *Store) Search(ctx context.Context, kind, query string, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	entries, err := s.list(ctx, kind, maxScanRows)
	if err != nil {
		return nil, err
	}

	var matches []models.HistoryEntry
	for _, e := range entries {
		// Khóa tra cứu phụ thuộc loại của từng bản ghi
		score := Score(KeyFor(e.Kind, query), e.SearchKey)
		if score <= 0 {
			continue
		}
		e.Score = score
		matches = append(matches, e)
	}

	// entries đã theo thứ tự mới nhất trước, sort ổn định giữ thứ tự đó khi bằng điểm
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	s.logger.Debug("Tìm trong lịch sử",
		zap.String("kind", kind),
		zap.String("query", query),
		zap.Int("scanned", len(entries)),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// Clear xóa lịch sử; kind rỗng là xóa toàn bộ. Trả về số bản ghi đã xóa.
func (s *Store) Clear(ctx context.Context, kind string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if kind == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM search_history`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM search_history WHERE kind = ?`, kind)
	}
	if err != nil {
		return 0, fmt.Errorf("lỗi xóa lịch sử: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lỗi đọc số bản ghi đã xóa: %w", err)
	}
	return n, nil
}

// CountByKind số bản ghi theo từng loại
func (s *Store) CountByKind(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM search_history GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("lỗi đếm lịch sử: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("lỗi đọc thống kê lịch sử: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func (s *Store) list(ctx context.Context, kind string, limit int) ([]models.HistoryEntry, error) {
	q := `SELECT id, kind, query, normalized, search_key, result_count, created_at FROM search_history`
	args := []any{}
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("lỗi đọc lịch sử: %w", err)
	}
	defer rows.Close()

	entries := []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		var createdMillis int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Query, &e.Normalized, &e.SearchKey, &e.ResultCount, &createdMillis); err != nil {
			return nil, fmt.Errorf("lỗi đọc bản ghi lịch sử: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMillis).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
