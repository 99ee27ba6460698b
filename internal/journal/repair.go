package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/metrics"
)

const (
	repairAttempts = 5
	repairTimeout  = 5 * time.Second
)

// repairLocalPath nulls the local_path of one segment in a journaled
// record after its side-load failed. The read-modify-write runs under
// WATCH so a concurrent writer of the same hash restarts it instead of
// being clobbered.
func (j *Journal) repairLocalPath(ctx context.Context, hashKey, field string, segIndex int) {
	path := fmt.Sprintf("message.%d.data.local_path", segIndex)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, hashKey, field).Result()
		if errors.Is(err, redis.Nil) {
			// Record already gone (recalled); nothing to repair.
			return nil
		}
		if err != nil {
			return err
		}
		patched, err := sjson.Set(cur, path, nil)
		if err != nil {
			return fmt.Errorf("failed to patch record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hashKey, field, patched)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < repairAttempts; attempt++ {
		err := j.rdb.Watch(ctx, txf, hashKey)
		if err == nil {
			return
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // lost the race with another writer; re-read
		}
		metrics.JournalErrors.Inc()
		j.log.Error("journal repair failed",
			zap.String("hash", hashKey),
			zap.String("field", field),
			zap.Error(err))
		return
	}
	j.log.Error("journal repair exhausted retries",
		zap.String("hash", hashKey),
		zap.String("field", field))
}
