// Package quota estimates whether the day's remaining upload quota is
// enough to process a batch of pending files before starting work on them.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/ysakae/vidup/internal/history"
)

// unitsPerUpload is YouTube's documented cost of a videos.insert call
// (1,600 quota units), the single largest cost of an upload; the much
// smaller thumbnails.set/playlistItems.insert calls are not modeled
// separately, matching commands/quota.py's literal estimate.
const unitsPerUpload = 1600

// Status classifies how a batch compares against the remaining quota.
type Status string

const (
	// StatusOK means the full batch can proceed.
	StatusOK Status = "ok"
	// StatusWarn means the batch exceeds the remaining quota but some
	// prefix of it can still be processed.
	StatusWarn Status = "warn"
	// StatusHalt means zero uploads can be processed today.
	StatusHalt Status = "halt"
)

// Verdict is the outcome of an Estimate call.
type Verdict struct {
	Status         Status
	UsedToday      int
	Remaining      int
	MaxProcessable int
}

// Estimate reports whether batchSize pending uploads can complete today
// given ceiling total daily quota units, by reading how many successful
// uploads have already been recorded since local midnight of now.
func Estimate(ctx context.Context, store *history.Store, ceiling, batchSize int, now time.Time) (Verdict, error) {
	cutoff := startOfLocalDay(now)

	usedCount, _, err := store.CountSince(ctx, cutoff.Unix())
	if err != nil {
		return Verdict{}, fmt.Errorf("quota: estimate: %w", err)
	}

	usedUnits := usedCount * unitsPerUpload
	remaining := ceiling - usedUnits

	if remaining < 0 {
		remaining = 0
	}

	maxProcessable := remaining / unitsPerUpload

	verdict := Verdict{
		UsedToday: usedCount,
		Remaining: remaining,
	}

	switch {
	case maxProcessable <= 0:
		verdict.Status = StatusHalt
		verdict.MaxProcessable = 0
	case maxProcessable < batchSize:
		verdict.Status = StatusWarn
		verdict.MaxProcessable = maxProcessable
	default:
		verdict.Status = StatusOK
		verdict.MaxProcessable = batchSize
	}

	return verdict, nil
}

func startOfLocalDay(now time.Time) time.Time {
	y, m, d := now.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
