// Package journal records every observed message in Redis, keyed by
// conversation, with media side-loaded to local files. The keyspace is
// part of the gateway's contract: other tools read it directly.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/media"
	"github.com/onegate/onegate/internal/metrics"
	"github.com/onegate/onegate/internal/onebot"
)

// ErrClosed is returned by Enqueue once the journal is shutting down.
var ErrClosed = errors.New("journal closed")

// Sideloader stages message attachments and materializes them on disk.
// *media.Pipeline is the production implementation.
type Sideloader interface {
	Stage(messageID int64, segs []onebot.Segment) []media.Task
	Fetch(ctx context.Context, t media.Task) error
}

// Options tunes the journal. Zero values fall back to defaults.
type Options struct {
	// QueueSize bounds the pending append queue; producers block when
	// it is full.
	QueueSize int
	// Consumers is the number of append workers. The default of 1
	// keeps writes within a conversation in arrival order.
	Consumers int
	// Settle is how long a failed side-load waits before repairing the
	// journaled record, giving the append pipeline time to land.
	Settle time.Duration
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.QueueSize <= 0 {
		out.QueueSize = 256
	}
	if out.Consumers <= 0 {
		out.Consumers = 1
	}
	if out.Settle <= 0 {
		out.Settle = time.Second
	}
	return out
}

// Journal is the Redis-backed message store. It is process-scoped and
// outlives individual upstream sessions.
type Journal struct {
	rdb   redis.UniversalClient
	media Sideloader
	log   *zap.Logger
	opts  Options

	queue  chan onebot.Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup // consumers
	loads  sync.WaitGroup // in-flight side-loads and repairs
}

// New builds the journal and starts its consumer workers.
func New(rdb redis.UniversalClient, sideloader Sideloader, log *zap.Logger, opts Options) *Journal {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	j := &Journal{
		rdb:    rdb,
		media:  sideloader,
		log:    log.With(zap.String("component", "journal")),
		opts:   opts,
		queue:  make(chan onebot.Event, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < opts.Consumers; i++ {
		j.wg.Add(1)
		go j.consumer()
	}
	return j
}

// Enqueue hands an event to the consumer pool. It blocks while the
// queue is full so the caller feels backpressure instead of losing
// records.
func (j *Journal) Enqueue(ctx context.Context, ev onebot.Event) error {
	select {
	case j.queue <- ev:
		metrics.JournalQueueDepth.Set(float64(len(j.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-j.ctx.Done():
		return ErrClosed
	}
}

// consumer drains the queue. A Redis failure is logged and the next
// message is processed; journaling is at-most-once.
func (j *Journal) consumer() {
	defer j.wg.Done()
	for {
		select {
		case ev := <-j.queue:
			metrics.JournalQueueDepth.Set(float64(len(j.queue)))
			if err := j.Append(j.ctx, ev); err != nil {
				j.log.Error("failed to journal event",
					zap.String("variant", ev.Variant()),
					zap.Error(err))
			}
		case <-j.ctx.Done():
			return
		}
	}
}

// record locates one event inside the keyspace.
type record struct {
	conv      Conversation
	field     string
	score     int64
	messageID int64
	// media is the live segment slice of a message event; staging
	// mutates it in place before the record is serialized.
	media []onebot.Segment
}

func classify(ev onebot.Event) (record, error) {
	switch m := ev.(type) {
	case *onebot.GroupMessage:
		return record{
			conv:      GroupConv(m.GroupID),
			field:     strconv.FormatInt(m.MessageID, 10),
			score:     m.Time,
			messageID: m.MessageID,
			media:     m.Message,
		}, nil
	case *onebot.PrivateMessage:
		return record{
			conv:      PrivateConv(m.UserID),
			field:     strconv.FormatInt(m.MessageID, 10),
			score:     m.Time,
			messageID: m.MessageID,
			media:     m.Message,
		}, nil
	case *onebot.SelfMessage:
		conv := GroupConv(m.GroupID)
		if m.GroupID == 0 {
			conv = PrivateConv(m.UserID)
		}
		return record{
			conv:      conv,
			field:     strconv.FormatInt(m.MessageID, 10),
			score:     m.Time,
			messageID: m.MessageID,
			media:     m.Message,
		}, nil
	case *onebot.Response:
		return record{}, fmt.Errorf("responses are not journaled")
	default:
		kind := categoryOf(ev.Variant())
		if kind == "" {
			return record{}, fmt.Errorf("no journal category for %s", ev.Variant())
		}
		// Unkeyed kinds have no natural id; synthesize one.
		return record{
			conv:  Conversation{Kind: kind},
			field: uuid.NewString(),
			score: ev.Unix(),
		}, nil
	}
}

func categoryOf(variant string) string {
	switch {
	case strings.HasPrefix(variant, "notice."):
		return KindNotice
	case strings.HasPrefix(variant, "meta."):
		return KindMeta
	case strings.HasPrefix(variant, "request."):
		return KindRequest
	}
	return ""
}

// Append writes one event: media segments are staged first so the
// stored record already points at the destination files, then the hash
// write and the time-index insert go out in a single pipeline, and
// finally the side-loads run in the background.
func (j *Journal) Append(ctx context.Context, ev onebot.Event) error {
	rec, err := classify(ev)
	if err != nil {
		return err
	}
	var tasks []media.Task
	if len(rec.media) > 0 {
		tasks = j.media.Stage(rec.messageID, rec.media)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode journal record: %w", err)
	}

	hashKey := rec.conv.hashKey(ev.Self())
	zsetKey := rec.conv.zsetKey(ev.Self())
	pipe := j.rdb.Pipeline()
	pipe.HSet(ctx, hashKey, rec.field, body)
	pipe.ZAdd(ctx, zsetKey, redis.Z{Score: float64(rec.score), Member: rec.field})
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.JournalErrors.Inc()
		return fmt.Errorf("failed to journal %s %s: %w", rec.conv.Kind, rec.field, err)
	}
	metrics.JournalWrites.WithLabelValues(rec.conv.Kind).Inc()

	for _, t := range tasks {
		j.loads.Add(1)
		go j.sideload(hashKey, rec.field, t)
	}
	return nil
}

// sideload fetches one staged attachment. On failure the journaled
// record is repaired so its local_path never dangles.
func (j *Journal) sideload(hashKey, field string, t media.Task) {
	defer j.loads.Done()
	err := j.media.Fetch(j.ctx, t)
	if err == nil {
		return
	}
	j.log.Error("media side-load failed, repairing journal record",
		zap.String("hash", hashKey),
		zap.String("field", field),
		zap.Int("segment", t.Index),
		zap.Error(err))
	// Let the append pipeline land before rewriting the record.
	select {
	case <-time.After(j.opts.Settle):
	case <-j.ctx.Done():
	}
	rctx, cancel := context.WithTimeout(context.Background(), repairTimeout)
	defer cancel()
	j.repairLocalPath(rctx, hashKey, field, t.Index)
}

// Message returns the stored record for one message id, or nil when
// the conversation holds no such message.
func (j *Journal) Message(ctx context.Context, selfID int64, conv Conversation, messageID int64) (json.RawMessage, error) {
	raw, err := j.rdb.HGet(ctx, conv.hashKey(selfID), strconv.FormatInt(messageID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read message %d: %w", messageID, err)
	}
	return json.RawMessage(raw), nil
}

// Page returns up to count records, newest first, skipping offset.
func (j *Journal) Page(ctx context.Context, selfID int64, conv Conversation, offset, count int64) ([]json.RawMessage, error) {
	if count <= 0 {
		return nil, nil
	}
	ids, err := j.rdb.ZRevRange(ctx, conv.zsetKey(selfID), offset, offset+count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to page %s: %w", conv.Kind, err)
	}
	return j.bulkRead(ctx, conv.hashKey(selfID), ids)
}

// Range returns the records whose event time falls in [minTS, maxTS],
// newest first.
func (j *Journal) Range(ctx context.Context, selfID int64, conv Conversation, minTS, maxTS int64) ([]json.RawMessage, error) {
	ids, err := j.rdb.ZRevRangeByScore(ctx, conv.zsetKey(selfID), &redis.ZRangeBy{
		Min: strconv.FormatInt(minTS, 10),
		Max: strconv.FormatInt(maxTS, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range %s: %w", conv.Kind, err)
	}
	return j.bulkRead(ctx, conv.hashKey(selfID), ids)
}

func (j *Journal) bulkRead(ctx context.Context, hashKey string, ids []string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := j.rdb.HMGet(ctx, hashKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // index entry without a record; skip
		}
		out = append(out, json.RawMessage(s))
	}
	return out, nil
}

// Delete removes a message from both the hash and the time index in
// one transaction. Deleting an absent message is not an error.
func (j *Journal) Delete(ctx context.Context, selfID int64, conv Conversation, messageID int64) error {
	field := strconv.FormatInt(messageID, 10)
	_, err := j.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, conv.hashKey(selfID), field)
		pipe.ZRem(ctx, conv.zsetKey(selfID), field)
		return nil
	})
	if err != nil {
		metrics.JournalErrors.Inc()
		return fmt.Errorf("failed to delete message %d: %w", messageID, err)
	}
	return nil
}

// Close stops the consumers and waits for in-flight side-loads and
// repairs. Queued events that were never consumed are dropped; the
// journal is best-effort across shutdown.
func (j *Journal) Close(ctx context.Context) error {
	j.cancel()
	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		j.loads.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("journal close: %w", ctx.Err())
	}
}
