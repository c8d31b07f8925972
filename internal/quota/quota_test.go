package quota

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ysakae/vidup/internal/history"
)

func newTestStore(t *testing.T) *history.Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), logger)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, store.Close()) })

	return store
}

func TestEstimate_OKWhenNoUsage(t *testing.T) {
	store := newTestStore(t)

	verdict, err := Estimate(context.Background(), store, 10000, 6, time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusOK, verdict.Status)
	assert.Equal(t, 6, verdict.MaxProcessable)
	assert.Equal(t, 10000, verdict.Remaining)
}

func TestEstimate_WarnWhenPartialQuotaRemains(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// 5 successful uploads today = 8000 units used, out of a 9600 ceiling
	// leaves 1600 remaining -> room for exactly 1 more, less than batchSize.
	for i := 0; i < 5; i++ {
		require.NoError(t, store.UpsertSuccess(ctx, history.UploadRecord{
			FileHash:     string(rune('a' + i)),
			FilePath:     "/x.mp4",
			MetadataJSON: "{}",
			Timestamp:    now.Unix(),
		}))
	}

	verdict, err := Estimate(ctx, store, 9600, 6, now)
	require.NoError(t, err)
	assert.Equal(t, StatusWarn, verdict.Status)
	assert.Equal(t, 1, verdict.MaxProcessable)
	assert.Equal(t, 5, verdict.UsedToday)
}

func TestEstimate_HaltWhenQuotaExhausted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 6; i++ {
		require.NoError(t, store.UpsertSuccess(ctx, history.UploadRecord{
			FileHash:     string(rune('a' + i)),
			FilePath:     "/x.mp4",
			MetadataJSON: "{}",
			Timestamp:    now.Unix(),
		}))
	}

	verdict, err := Estimate(ctx, store, 9600, 1, now)
	require.NoError(t, err)
	assert.Equal(t, StatusHalt, verdict.Status)
	assert.Equal(t, 0, verdict.MaxProcessable)
	assert.Equal(t, 0, verdict.Remaining)
}

func TestEstimate_OnlyCountsUsageSinceLocalMidnight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	yesterday := now.Add(-36 * time.Hour)

	require.NoError(t, store.UpsertSuccess(ctx, history.UploadRecord{
		FileHash: "old", FilePath: "/old.mp4", MetadataJSON: "{}", Timestamp: yesterday.Unix(),
	}))

	verdict, err := Estimate(ctx, store, 9600, 6, now)
	require.NoError(t, err)
	assert.Equal(t, 0, verdict.UsedToday)
	assert.Equal(t, StatusOK, verdict.Status)
}
