package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/onebot"
)

// recordingJournal captures synthesized self messages.
type recordingJournal struct {
	mu  sync.Mutex
	evs []onebot.Event
}

func (r *recordingJournal) Enqueue(_ context.Context, ev onebot.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
	return nil
}

func (r *recordingJournal) events() []onebot.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]onebot.Event, len(r.evs))
	copy(out, r.evs)
	return out
}

func newTestClient(t *testing.T) (*Client, *fakeConn, *recordingJournal) {
	t.Helper()
	conn := &fakeConn{}
	jr := &recordingJournal{}
	c := New(conn, jr, zap.NewNop(), time.Second)
	t.Cleanup(c.Close)
	return c, conn, jr
}

// ackSends wires the conn to ack every echoed action with a message id.
func ackSends(c *Client, conn *fakeConn, messageID int64) {
	respondWith(conn, c.corr, func(f sentFrame) *onebot.Response {
		return okResponse(`{"message_id":` + jsonInt(messageID) + `}`)
	})
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func segTypes(segs []onebot.Segment) []string {
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.Type
	}
	return out
}

func TestSendMessageGroup(t *testing.T) {
	c, conn, jr := newTestClient(t)
	c.SetSelfID(99)
	ackSends(c, conn, 555)

	before := time.Now().Unix()
	id, err := c.SendMessage(context.Background(), SendOptions{
		GroupID: 42,
		Text:    "hello",
		At:      "31337",
		Image:   "/tmp/cat.png",
		Reply:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)

	frames := conn.sent()
	require.Len(t, frames, 1)
	f := decodeFrame(t, frames[0])
	assert.Equal(t, "send_group_msg", f.Action)
	require.NotEmpty(t, f.Echo)

	var params struct {
		GroupID int64            `json:"group_id"`
		Message []onebot.Segment `json:"message"`
	}
	require.NoError(t, json.Unmarshal(f.Params, &params))
	assert.Equal(t, int64(42), params.GroupID)
	assert.Equal(t, []string{"text", "at", "image", "reply"}, segTypes(params.Message),
		"convenience fields assemble in a fixed order")

	evs := jr.events()
	require.Len(t, evs, 1)
	self, ok := evs[0].(*onebot.SelfMessage)
	require.True(t, ok)
	assert.Equal(t, int64(555), self.MessageID)
	assert.Equal(t, int64(99), self.SelfID)
	assert.Equal(t, int64(42), self.GroupID)
	assert.Zero(t, self.UserID)
	assert.GreaterOrEqual(t, self.Time, before)
	assert.Equal(t, segTypes(params.Message), segTypes(self.Message),
		"the journaled copy matches what went on the wire")
}

func TestSendMessagePrivate(t *testing.T) {
	c, conn, jr := newTestClient(t)
	ackSends(c, conn, 556)

	id, err := c.SendMessage(context.Background(), SendOptions{UserID: 31337, Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(556), id)

	f := decodeFrame(t, conn.sent()[0])
	assert.Equal(t, "send_private_msg", f.Action)

	evs := jr.events()
	require.Len(t, evs, 1)
	self := evs[0].(*onebot.SelfMessage)
	assert.Equal(t, int64(31337), self.UserID)
	assert.Zero(t, self.GroupID)
	assert.Equal(t, int64(1), self.SelfID, "sentinel id before bootstrap")
}

func TestSendMessageTargetValidation(t *testing.T) {
	c, conn, jr := newTestClient(t)

	_, err := c.SendMessage(context.Background(), SendOptions{Text: "no target"})
	assert.ErrorIs(t, err, ErrBadTarget)

	_, err = c.SendMessage(context.Background(), SendOptions{GroupID: 1, UserID: 2, Text: "both"})
	assert.ErrorIs(t, err, ErrBadTarget)

	_, err = c.SendMessage(context.Background(), SendOptions{GroupID: 42})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	assert.Empty(t, conn.sent(), "local rejections never touch the socket")
	assert.Empty(t, jr.events())
}

func TestSendMessagePrivateAtRejected(t *testing.T) {
	c, conn, jr := newTestClient(t)

	_, err := c.SendMessage(context.Background(), SendOptions{UserID: 31337, Text: "hi", At: "42"})
	assert.ErrorIs(t, err, ErrPrivateAt)

	// Same rule for pre-built segment bodies.
	_, err = c.SendMessage(context.Background(), SendOptions{
		UserID:   31337,
		Segments: []onebot.Segment{onebot.Text("hi"), onebot.AtAll()},
	})
	assert.ErrorIs(t, err, ErrPrivateAt)

	assert.Empty(t, conn.sent())
	assert.Empty(t, jr.events())
}

func TestSendMessageSanitizesOutbound(t *testing.T) {
	c, conn, _ := newTestClient(t)
	ackSends(c, conn, 557)

	stale := "/data/media/1_0.jpg"
	segs := []onebot.Segment{{
		Type: onebot.ImageSegment,
		Data: onebot.SegmentData{
			File:      "base64://AAAA",
			URL:       "http://files.example/old.jpg",
			LocalPath: &stale,
		},
	}}
	_, err := c.SendMessage(context.Background(), SendOptions{GroupID: 42, Segments: segs})
	require.NoError(t, err)

	raw := string(conn.sent()[0])
	assert.NotContains(t, raw, "local_path")
	assert.NotContains(t, raw, "url")
	assert.Contains(t, raw, "base64://AAAA")

	// The caller's slice is left alone.
	assert.Equal(t, "http://files.example/old.jpg", segs[0].Data.URL)
	require.NotNil(t, segs[0].Data.LocalPath)
}

func TestSendMessageAtAll(t *testing.T) {
	c, conn, _ := newTestClient(t)
	ackSends(c, conn, 558)

	_, err := c.SendMessage(context.Background(), SendOptions{GroupID: 42, At: "all"})
	require.NoError(t, err)

	f := decodeFrame(t, conn.sent()[0])
	var params struct {
		Message []onebot.Segment `json:"message"`
	}
	require.NoError(t, json.Unmarshal(f.Params, &params))
	require.Len(t, params.Message, 1)
	assert.Equal(t, onebot.FlexID("all"), params.Message[0].Data.QQ)
}

func TestSendMessageUpstreamFailure(t *testing.T) {
	c, conn, jr := newTestClient(t)
	respondWith(conn, c.corr, func(sentFrame) *onebot.Response {
		return &onebot.Response{Status: "failed", Retcode: 1, Message: "muted"}
	})

	_, err := c.SendMessage(context.Background(), SendOptions{GroupID: 42, Text: "hi"})
	require.Error(t, err)
	assert.Empty(t, jr.events(), "failed sends are not journaled")
}

func TestBootstrap(t *testing.T) {
	c, conn, _ := newTestClient(t)
	assert.Equal(t, int64(1), c.SelfID())

	respondWith(conn, c.corr, func(f sentFrame) *onebot.Response {
		assert.Equal(t, "get_login_info", f.Action)
		return okResponse(`{"user_id":424242,"nickname":"gate"}`)
	})
	require.NoError(t, c.Bootstrap(context.Background()))
	assert.Equal(t, int64(424242), c.SelfID())

	c.SetSelfID(0)
	assert.Equal(t, int64(424242), c.SelfID(), "zero ids are ignored")
}

func TestFireAndForgetActions(t *testing.T) {
	c, conn, _ := newTestClient(t)

	require.NoError(t, c.DeleteMessage(77))
	require.NoError(t, c.GroupPoke(42, 31337))
	require.NoError(t, c.MarkAllAsRead())

	frames := conn.sent()
	require.Len(t, frames, 3)
	for _, raw := range frames {
		f := decodeFrame(t, raw)
		assert.Empty(t, f.Echo, "%s must not register a waiter", f.Action)
	}
	assert.Equal(t, 0, c.corr.pending())

	f := decodeFrame(t, frames[0])
	assert.Equal(t, "delete_msg", f.Action)
	assert.JSONEq(t, `{"message_id":77}`, string(f.Params))
}

func TestHistoryDefaults(t *testing.T) {
	c, conn, _ := newTestClient(t)
	respondWith(conn, c.corr, func(sentFrame) *onebot.Response {
		return okResponse(`{"messages":[]}`)
	})

	_, err := c.GetGroupMessageHistory(context.Background(), 42, HistoryOptions{})
	require.NoError(t, err)

	f := decodeFrame(t, conn.sent()[0])
	assert.Equal(t, "get_group_msg_history", f.Action)
	assert.JSONEq(t, `{"group_id":42,"count":20,"reverseOrder":false}`, string(f.Params))
}
