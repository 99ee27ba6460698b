package client

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/onegate/onegate/internal/onebot"
)

var (
	// ErrBadTarget rejects sends that set neither or both of GroupID
	// and UserID.
	ErrBadTarget = errors.New("exactly one of GroupID and UserID must be set")
	// ErrPrivateAt rejects mention segments in direct conversations;
	// the upstream would deliver them as garbage text.
	ErrPrivateAt = errors.New("at segments are group-only")
	// ErrEmptyMessage rejects sends that assemble to no segments.
	ErrEmptyMessage = errors.New("message has no segments")
)

// SendOptions assembles an outbound message. Exactly one of GroupID and
// UserID selects the conversation. Segments, when set, is sent as-is;
// otherwise the convenience fields build the body in a fixed order:
// text, at, image, reply, face, dice, rps, file, video, record.
type SendOptions struct {
	GroupID int64
	UserID  int64

	Segments []onebot.Segment

	Text   string
	At     onebot.FlexID // target user id, or "all"
	Image  string        // path, URL, or base64:// payload
	Reply  int64         // message id to quote
	Face   *int64        // built-in emoticon id; pointer because 0 is valid
	Dice   bool
	Rps    bool
	File   string
	Video  string
	Record string
}

func (o SendOptions) build() ([]onebot.Segment, error) {
	if (o.GroupID == 0) == (o.UserID == 0) {
		return nil, ErrBadTarget
	}
	segs := o.Segments
	if segs == nil {
		if o.Text != "" {
			segs = append(segs, onebot.Text(o.Text))
		}
		if o.At != "" {
			if o.At == onebot.AtAllTarget {
				segs = append(segs, onebot.AtAll())
			} else {
				segs = append(segs, onebot.At(o.At.Int64()))
			}
		}
		if o.Image != "" {
			segs = append(segs, onebot.Image(o.Image))
		}
		if o.Reply != 0 {
			segs = append(segs, onebot.Reply(o.Reply))
		}
		if o.Face != nil {
			segs = append(segs, onebot.Face(*o.Face))
		}
		if o.Dice {
			segs = append(segs, onebot.Dice())
		}
		if o.Rps {
			segs = append(segs, onebot.Rps())
		}
		if o.File != "" {
			segs = append(segs, onebot.File(o.File))
		}
		if o.Video != "" {
			segs = append(segs, onebot.Video(o.Video))
		}
		if o.Record != "" {
			segs = append(segs, onebot.Record(o.Record))
		}
	}
	if len(segs) == 0 {
		return nil, ErrEmptyMessage
	}
	if o.UserID != 0 {
		for _, s := range segs {
			if s.Type == onebot.AtSegment {
				return nil, ErrPrivateAt
			}
		}
	}
	return segs, nil
}

// sanitizeOutbound copies the segments and strips the fields that only
// make sense on journaled inbound media. The caller's slice is never
// mutated.
func sanitizeOutbound(segs []onebot.Segment) []onebot.Segment {
	out := make([]onebot.Segment, len(segs))
	copy(out, segs)
	for i := range out {
		out[i].Data.URL = ""
		out[i].Data.LocalPath = nil
	}
	return out
}

// SendMessage sends a message and journals a synthesized self copy so
// outbound traffic is queryable like inbound. It returns the upstream-
// assigned message id. Invalid targets and private mentions fail
// locally without touching the socket.
func (c *Client) SendMessage(ctx context.Context, opts SendOptions) (int64, error) {
	segs, err := opts.build()
	if err != nil {
		return 0, err
	}
	segs = sanitizeOutbound(segs)

	action := "send_group_msg"
	params := any(struct {
		GroupID int64            `json:"group_id"`
		Message []onebot.Segment `json:"message"`
	}{opts.GroupID, segs})
	if opts.UserID != 0 {
		action = "send_private_msg"
		params = struct {
			UserID  int64            `json:"user_id"`
			Message []onebot.Segment `json:"message"`
		}{opts.UserID, segs}
	}

	// Stamped before the call so the journal orders the copy where the
	// send started, not where the ack arrived.
	sent := time.Now().Unix()
	resp, err := c.call(ctx, action, params)
	if err != nil {
		return 0, err
	}
	var data struct {
		MessageID int64 `json:"message_id"`
	}
	if err := resp.DecodeData(&data); err != nil {
		return 0, err
	}

	self := &onebot.SelfMessage{
		MessageID: data.MessageID,
		SelfID:    c.SelfID(),
		GroupID:   opts.GroupID,
		UserID:    opts.UserID,
		Time:      sent,
		Message:   segs,
	}
	if err := c.journal.Enqueue(ctx, self); err != nil {
		c.log.Warn("failed to journal sent message",
			zap.Int64("message_id", data.MessageID),
			zap.Error(err))
	}
	return data.MessageID, nil
}

// SendPoke pokes a user; groupID 0 pokes in the direct conversation.
// targetID, when set, redirects the poke at a third account.
func (c *Client) SendPoke(userID, groupID, targetID int64) error {
	params := struct {
		UserID   int64 `json:"user_id"`
		GroupID  int64 `json:"group_id,omitempty"`
		TargetID int64 `json:"target_id,omitempty"`
	}{userID, groupID, targetID}
	return c.fire("send_poke", params)
}

// DeleteMessage recalls a message. The upstream sends no ack; success
// shows up as a recall notice.
func (c *Client) DeleteMessage(messageID int64) error {
	params := struct {
		MessageID int64 `json:"message_id"`
	}{messageID}
	return c.fire("delete_msg", params)
}

// GetForwardMessage expands a combined-forward message into its parts.
func (c *Client) GetForwardMessage(ctx context.Context, messageID int64) (json.RawMessage, error) {
	params := struct {
		MessageID int64 `json:"message_id"`
	}{messageID}
	return callData[json.RawMessage](ctx, c, "get_forward_msg", params)
}

// SetMessageEmojiLike adds (set) or removes a reaction on a message.
func (c *Client) SetMessageEmojiLike(messageID, emojiID int64, set bool) error {
	params := struct {
		MessageID int64 `json:"message_id"`
		EmojiID   int64 `json:"emoji_id"`
		Set       bool  `json:"set"`
	}{messageID, emojiID, set}
	return c.fire("set_msg_emoji_like", params)
}

// GetMessage fetches one message by id from the upstream, independent
// of the local journal.
func (c *Client) GetMessage(ctx context.Context, messageID int64) (json.RawMessage, error) {
	params := struct {
		MessageID int64 `json:"message_id"`
	}{messageID}
	return callData[json.RawMessage](ctx, c, "get_msg", params)
}

// HistoryOptions pages through upstream message history. MessageSeq 0
// starts from the newest; Count 0 uses the upstream default of 20.
type HistoryOptions struct {
	MessageSeq   int64
	Count        int
	ReverseOrder bool
}

func (o HistoryOptions) count() int {
	if o.Count <= 0 {
		return 20
	}
	return o.Count
}

// GetGroupMessageHistory pages through a group's upstream history.
func (c *Client) GetGroupMessageHistory(ctx context.Context, groupID int64, opts HistoryOptions) (json.RawMessage, error) {
	params := struct {
		GroupID      int64 `json:"group_id"`
		MessageSeq   int64 `json:"message_seq,omitempty"`
		Count        int   `json:"count"`
		ReverseOrder bool  `json:"reverseOrder"`
	}{groupID, opts.MessageSeq, opts.count(), opts.ReverseOrder}
	return callData[json.RawMessage](ctx, c, "get_group_msg_history", params)
}

// GetFriendMessageHistory pages through a direct conversation's
// upstream history.
func (c *Client) GetFriendMessageHistory(ctx context.Context, userID int64, opts HistoryOptions) (json.RawMessage, error) {
	params := struct {
		UserID       int64 `json:"user_id"`
		MessageSeq   int64 `json:"message_seq,omitempty"`
		Count        int   `json:"count"`
		ReverseOrder bool  `json:"reverseOrder"`
	}{userID, opts.MessageSeq, opts.count(), opts.ReverseOrder}
	return callData[json.RawMessage](ctx, c, "get_friend_msg_history", params)
}

// FetchEmojiLike lists who reacted to a message with one emoji.
func (c *Client) FetchEmojiLike(ctx context.Context, messageID int64, emojiID, emojiType string, count int) (json.RawMessage, error) {
	params := struct {
		MessageID int64  `json:"message_id"`
		EmojiID   string `json:"emojiId"`
		EmojiType string `json:"emojiType"`
		Count     int    `json:"count,omitempty"`
	}{messageID, emojiID, emojiType, count}
	return callData[json.RawMessage](ctx, c, "fetch_emoji_like", params)
}

// GetRecord resolves a voice record to a downloadable form. outFormat
// "" converts to mp3.
func (c *Client) GetRecord(ctx context.Context, file, fileID, outFormat string) (json.RawMessage, error) {
	if outFormat == "" {
		outFormat = "mp3"
	}
	params := struct {
		File      string `json:"file,omitempty"`
		FileID    string `json:"file_id,omitempty"`
		OutFormat string `json:"out_format"`
	}{file, fileID, outFormat}
	return callData[json.RawMessage](ctx, c, "get_record", params)
}

// GetImage resolves an image token to its file details.
func (c *Client) GetImage(ctx context.Context, file, fileID string) (json.RawMessage, error) {
	params := struct {
		FileID string `json:"file_id,omitempty"`
		File   string `json:"file,omitempty"`
	}{fileID, file}
	return callData[json.RawMessage](ctx, c, "get_image", params)
}

// ForwardGroupSingleMessage forwards one message into a group.
func (c *Client) ForwardGroupSingleMessage(groupID, messageID int64) error {
	params := struct {
		GroupID   int64 `json:"group_id"`
		MessageID int64 `json:"message_id"`
	}{groupID, messageID}
	return c.fire("forward_group_single_msg", params)
}

// ForwardFriendSingleMessage forwards one message into a direct
// conversation.
func (c *Client) ForwardFriendSingleMessage(userID, messageID int64) error {
	params := struct {
		UserID    int64 `json:"user_id"`
		MessageID int64 `json:"message_id"`
	}{userID, messageID}
	return c.fire("forward_friend_single_msg", params)
}

// GroupPoke pokes a member inside a group.
func (c *Client) GroupPoke(groupID, userID int64) error {
	params := struct {
		GroupID int64 `json:"group_id"`
		UserID  int64 `json:"user_id"`
	}{groupID, userID}
	return c.fire("group_poke", params)
}

// FriendPoke pokes a friend in the direct conversation.
func (c *Client) FriendPoke(userID int64) error {
	params := struct {
		UserID int64 `json:"user_id"`
	}{userID}
	return c.fire("friend_poke", params)
}
