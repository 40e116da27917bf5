package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vbdlis-normalizer/app/models"
)

// tickingClock mỗi lần gọi tiến thêm một giây
func tickingClock() func() time.Time {
	now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), tickingClock(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Record(ctx, models.HistoryOwnerName, "Ông Nguyễn Văn An", "Nguyễn Văn An", 1)
	require.NoError(t, err)
	assert.Equal(t, "nguyen van an", first.SearchKey)
	assert.NotZero(t, first.ID)

	_, err = store.Record(ctx, models.HistoryNationalID, "001 085 012 345", "001085012345", 2)
	require.NoError(t, err)

	recent, err := store.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.HistoryNationalID, recent[0].Kind)
	assert.Equal(t, "Ông Nguyễn Văn An", recent[1].Query)

	onlyNames, err := store.Recent(ctx, models.HistoryOwnerName, 10)
	require.NoError(t, err)
	require.Len(t, onlyNames, 1)
	assert.Equal(t, "Nguyễn Văn An", onlyNames[0].Normalized)
}

func TestStore_RecordUpsertsSameKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Record(ctx, models.HistoryOwnerName, "Nguyễn Văn An", "Nguyễn Văn An", 1)
	require.NoError(t, err)
	second, err := store.Record(ctx, models.HistoryOwnerName, "bà NGUYEN VAN AN", "Nguyen Van An", 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	recent, err := store.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "bà NGUYEN VAN AN", recent[0].Query)
	assert.Equal(t, 3, recent[0].ResultCount)
}

func TestStore_RecordRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Record(ctx, "unknown", "x", "x", 0)
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = store.Record(ctx, models.HistoryIssueNumber, "  ..  ", "", 0)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, name := range []string{"Nguyễn Văn Anh", "Trần Thị Bình", "Nguyễn Văn An", "Lê Văn Cường"} {
		_, err := store.Record(ctx, models.HistoryOwnerName, name, name, 1)
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, models.HistoryOwnerName, "nguyen van an", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Nguyễn Văn An", results[0].Query)
	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, "Nguyễn Văn Anh", results[1].Query)
	assert.Greater(t, results[1].Score, 0.9)

	limited, err := store.Search(ctx, "", "Nguyễn", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Nguyễn Văn An", limited[0].Query, "equal scores keep the newest first")
}

func TestStore_ClearAndCount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Record(ctx, models.HistoryOwnerName, "A B", "A B", 0)
	require.NoError(t, err)
	_, err = store.Record(ctx, models.HistoryIssueNumber, "CS 123456", "CS 123456", 0)
	require.NoError(t, err)
	_, err = store.Record(ctx, models.HistoryIssueNumber, "CS 654321", "CS 654321", 0)
	require.NoError(t, err)

	counts, err := store.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.HistoryOwnerName: 1, models.HistoryIssueNumber: 2}, counts)

	n, err := store.Clear(ctx, models.HistoryIssueNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		wantZero  bool
	}{
		{"exact", "nguyen van an", "nguyen van an", false},
		{"typo", "nguen van an", "nguyen van an", false},
		{"prefix", "nguyen", "nguyen van an", false},
		{"unrelated", "nguyen van an", "tran thi binh", true},
		{"short unrelated", "cs 123456", "ab 999999", true},
		{"empty", "", "nguyen", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.query, tt.candidate)
			if tt.wantZero {
				assert.Zero(t, score)
				return
			}
			assert.Greater(t, score, 0.8)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}
