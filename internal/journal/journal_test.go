package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/media"
	"github.com/onegate/onegate/internal/onebot"
)

// stubLoader stages segments the way the real pipeline does and records
// every fetch, optionally failing them.
type stubLoader struct {
	mu       sync.Mutex
	fetched  []media.Task
	fetchErr error
}

func (s *stubLoader) Stage(messageID int64, segs []onebot.Segment) []media.Task {
	var tasks []media.Task
	for i := range segs {
		if !segs[i].HasMedia() {
			continue
		}
		path := fmt.Sprintf("/tmp/onegate-test/%d_%d.jpg", messageID, i)
		segs[i].Data.LocalPath = &path
		tasks = append(tasks, media.Task{Index: i, Path: path, URL: segs[i].Data.URL})
	}
	return tasks
}

func (s *stubLoader) Fetch(ctx context.Context, t media.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, t)
	return s.fetchErr
}

func (s *stubLoader) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetched)
}

func newTestJournal(t *testing.T, loader Sideloader, opts Options) (*Journal, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	j := New(rdb, loader, zap.NewNop(), opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = j.Close(ctx)
	})
	return j, rdb
}

func groupMsg(messageID, groupID int64, ts int64, segs ...onebot.Segment) *onebot.GroupMessage {
	if segs == nil {
		segs = []onebot.Segment{onebot.Text("hello")}
	}
	return &onebot.GroupMessage{
		EventHeader: onebot.EventHeader{Time: ts, SelfID: 99, PostType: "message"},
		MessageType: "group",
		MessageID:   messageID,
		GroupID:     groupID,
		UserID:      7,
		Sender:      onebot.Sender{UserID: 7, Nickname: "amber"},
		Message:     segs,
	}
}

func TestAppendKeyShapes(t *testing.T) {
	ctx := context.Background()

	t.Run("group message", func(t *testing.T) {
		j, rdb := newTestJournal(t, &stubLoader{}, Options{})
		require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100)))

		raw, err := rdb.HGet(ctx, "bot:99:group:42:msg_data", "1234").Result()
		require.NoError(t, err)
		assert.Contains(t, raw, `"message_id":1234`)

		score, err := rdb.ZScore(ctx, "bot:99:group:42:time_map", "1234").Result()
		require.NoError(t, err)
		assert.Equal(t, float64(1700000100), score)
	})

	t.Run("private message", func(t *testing.T) {
		j, rdb := newTestJournal(t, &stubLoader{}, Options{})
		ev := &onebot.PrivateMessage{
			EventHeader: onebot.EventHeader{Time: 1700000200, SelfID: 99, PostType: "message"},
			MessageType: "private",
			MessageID:   55,
			UserID:      31337,
			Message:     []onebot.Segment{onebot.Text("hi")},
		}
		require.NoError(t, j.Append(ctx, ev))

		n, err := rdb.HLen(ctx, "bot:99:private:31337:msg_data").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		_, err = rdb.ZScore(ctx, "bot:99:private:31337:time_map", "55").Result()
		assert.NoError(t, err)
	})

	t.Run("self message lands in the peer conversation", func(t *testing.T) {
		j, rdb := newTestJournal(t, &stubLoader{}, Options{})
		require.NoError(t, j.Append(ctx, &onebot.SelfMessage{
			MessageID: 900, SelfID: 99, GroupID: 42, Time: 1700000300,
			Message: []onebot.Segment{onebot.Text("echoed")},
		}))
		require.NoError(t, j.Append(ctx, &onebot.SelfMessage{
			MessageID: 901, SelfID: 99, UserID: 31337, Time: 1700000301,
			Message: []onebot.Segment{onebot.Text("direct")},
		}))

		groupRec, err := rdb.HGet(ctx, "bot:99:group:42:msg_data", "900").Result()
		require.NoError(t, err)
		assert.Contains(t, groupRec, `"echoed"`)

		privRec, err := rdb.HGet(ctx, "bot:99:private:31337:msg_data", "901").Result()
		require.NoError(t, err)
		assert.Contains(t, privRec, `"direct"`)
	})

	t.Run("notice uses the unkeyed bucket with a synthetic field", func(t *testing.T) {
		j, rdb := newTestJournal(t, &stubLoader{}, Options{})
		require.NoError(t, j.Append(ctx, &onebot.GroupRecall{
			EventHeader: onebot.EventHeader{Time: 1700000400, SelfID: 99, PostType: "notice"},
			NoticeType:  "group_recall",
			GroupID:     42, UserID: 7, OperatorID: 7, MessageID: 1234,
		}))

		fields, err := rdb.HKeys(ctx, "bot:99:notice:msg_data").Result()
		require.NoError(t, err)
		require.Len(t, fields, 1)
		_, err = uuid.Parse(fields[0])
		assert.NoError(t, err, "unkeyed field should be a UUID")

		score, err := rdb.ZScore(ctx, "bot:99:notice:time_map", fields[0]).Result()
		require.NoError(t, err)
		assert.Equal(t, float64(1700000400), score)
	})

	t.Run("responses are never journaled", func(t *testing.T) {
		j, _ := newTestJournal(t, &stubLoader{}, Options{})
		err := j.Append(ctx, &onebot.Response{Status: "ok"})
		assert.Error(t, err)
	})
}

func TestAppendIdempotent(t *testing.T) {
	ctx := context.Background()
	j, rdb := newTestJournal(t, &stubLoader{}, Options{})

	require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100)))
	require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100)))

	n, err := rdb.HLen(ctx, "bot:99:group:42:msg_data").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	card, err := rdb.ZCard(ctx, "bot:99:group:42:time_map").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), card)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	j, rdb := newTestJournal(t, &stubLoader{}, Options{})
	conv := GroupConv(42)

	require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100)))
	require.NoError(t, j.Delete(ctx, 99, conv, 1234))

	rec, err := j.Message(ctx, 99, conv, 1234)
	require.NoError(t, err)
	assert.Nil(t, rec)
	_, err = rdb.ZScore(ctx, "bot:99:group:42:time_map", "1234").Result()
	assert.ErrorIs(t, err, redis.Nil)

	// Deleting a message that was never journaled is fine.
	assert.NoError(t, j.Delete(ctx, 99, conv, 777))
}

func TestPageAndRange(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t, &stubLoader{}, Options{})
	conv := GroupConv(42)

	require.NoError(t, j.Append(ctx, groupMsg(1, 42, 100)))
	require.NoError(t, j.Append(ctx, groupMsg(2, 42, 200)))
	require.NoError(t, j.Append(ctx, groupMsg(3, 42, 300)))

	ids := func(recs []json.RawMessage) []int64 {
		var out []int64
		for _, r := range recs {
			var m struct {
				MessageID int64 `json:"message_id"`
			}
			require.NoError(t, json.Unmarshal(r, &m))
			out = append(out, m.MessageID)
		}
		return out
	}

	page, err := j.Page(ctx, 99, conv, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(page), "newest first")

	page, err = j.Page(ctx, 99, conv, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(page))

	ranged, err := j.Range(ctx, 99, conv, 150, 250)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(ranged))

	empty, err := j.Range(ctx, 99, conv, 400, 500)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSideloadRecordsLocalPath(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{}
	j, rdb := newTestJournal(t, loader, Options{})

	seg := onebot.Segment{Type: onebot.ImageSegment, Data: onebot.SegmentData{
		File: "abc.image", URL: "http://files.example/abc.jpg",
	}}
	require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100, onebot.Text("pic:"), seg)))

	raw, err := rdb.HGet(ctx, "bot:99:group:42:msg_data", "1234").Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"local_path":"/tmp/onegate-test/1234_1.jpg"`,
		"record is written with the staged path before the fetch completes")

	require.Eventually(t, func() bool { return loader.fetchCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestSideloadFailureRepairsRecord(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{fetchErr: errors.New("upstream 404")}
	j, rdb := newTestJournal(t, loader, Options{Settle: 5 * time.Millisecond})

	seg := onebot.Segment{Type: onebot.ImageSegment, Data: onebot.SegmentData{
		File: "abc.image", URL: "http://files.example/abc.jpg",
	}}
	require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100, onebot.Text("pic:"), seg)))

	require.Eventually(t, func() bool {
		raw, err := rdb.HGet(ctx, "bot:99:group:42:msg_data", "1234").Result()
		if err != nil {
			return false
		}
		var msg onebot.GroupMessage
		if json.Unmarshal([]byte(raw), &msg) != nil {
			return false
		}
		return len(msg.Message) == 2 && msg.Message[1].Data.LocalPath == nil
	}, 2*time.Second, 10*time.Millisecond, "local_path should be nulled after the fetch fails")
}

func TestSideloadFailureAfterRecallIsNoop(t *testing.T) {
	ctx := context.Background()
	loader := &stubLoader{fetchErr: errors.New("upstream 404")}
	j, _ := newTestJournal(t, loader, Options{Settle: 50 * time.Millisecond})
	conv := GroupConv(42)

	seg := onebot.Segment{Type: onebot.ImageSegment, Data: onebot.SegmentData{
		File: "abc.image", URL: "http://files.example/abc.jpg",
	}}
	require.NoError(t, j.Append(ctx, groupMsg(1234, 42, 1700000100, seg)))
	// Recall the message while the repair is still settling.
	require.NoError(t, j.Delete(ctx, 99, conv, 1234))

	time.Sleep(150 * time.Millisecond)
	rec, err := j.Message(ctx, 99, conv, 1234)
	require.NoError(t, err)
	assert.Nil(t, rec, "repair must not resurrect a recalled message")
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()

	t.Run("queued events are journaled by the consumers", func(t *testing.T) {
		j, rdb := newTestJournal(t, &stubLoader{}, Options{})
		require.NoError(t, j.Enqueue(ctx, groupMsg(1234, 42, 1700000100)))
		require.Eventually(t, func() bool {
			n, err := rdb.HLen(ctx, "bot:99:group:42:msg_data").Result()
			return err == nil && n == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("enqueue after close fails", func(t *testing.T) {
		j, _ := newTestJournal(t, &stubLoader{}, Options{})
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, j.Close(closeCtx))
		assert.ErrorIs(t, j.Enqueue(ctx, groupMsg(1, 42, 100)), ErrClosed)
	})
}

func TestMessageAbsent(t *testing.T) {
	ctx := context.Background()
	j, _ := newTestJournal(t, &stubLoader{}, Options{})
	rec, err := j.Message(ctx, 99, GroupConv(42), 404404)
	require.NoError(t, err)
	assert.Nil(t, rec)
}
