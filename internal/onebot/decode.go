package onebot

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEvent marks frames whose discriminators match no known
// event type. Callers log and drop these without failing the session.
var ErrUnknownEvent = errors.New("unknown event")

// probe extracts just the discriminator fields of a frame so the
// concrete type can be chosen before the full unmarshal.
type probe struct {
	PostType      string          `json:"post_type"`
	MessageType   string          `json:"message_type"`
	MetaEventType string          `json:"meta_event_type"`
	NoticeType    string          `json:"notice_type"`
	RequestType   string          `json:"request_type"`
	SubType       string          `json:"sub_type"`
	GroupID       int64           `json:"group_id"`
	Echo          json.RawMessage `json:"echo"`
}

// decoders maps a discriminator path to a factory for the concrete
// type. Factories pre-seed the defaults an upstream may omit.
var decoders = map[string]func() Event{
	"message/group":               func() Event { return &GroupMessage{SubType: "normal"} },
	"message/private":             func() Event { return &PrivateMessage{SubType: "friend"} },
	"meta_event/lifecycle":        func() Event { return &LifeCycle{} },
	"meta_event/heartbeat":        func() Event { return &Heartbeat{Status: HeartbeatStatus{Good: true}} },
	"notice/group_recall":         func() Event { return &GroupRecall{} },
	"notice/friend_recall":        func() Event { return &FriendRecall{} },
	"notice/group_increase":       func() Event { return &GroupIncrease{} },
	"notice/group_decrease":       func() Event { return &GroupDecrease{} },
	"notice/group_admin":          func() Event { return &GroupAdmin{} },
	"notice/group_ban":            func() Event { return &GroupBan{} },
	"notice/group_upload":         func() Event { return &GroupUpload{} },
	"notice/group_card":           func() Event { return &GroupCard{} },
	"notice/essence":              func() Event { return &GroupEssence{} },
	"notice/group_msg_emoji_like": func() Event { return &GroupMsgEmojiLike{IsAdd: true} },
	"notice/friend_add":           func() Event { return &FriendAdd{} },
	"notice/bot_offline":          func() Event { return &BotOffline{} },
	"notify/poke/group":           func() Event { return &GroupPoke{} },
	"notify/poke/friend":          func() Event { return &FriendPoke{} },
	"notify/profile_like":         func() Event { return &ProfileLike{} },
	"notify/input_status":         func() Event { return &InputStatus{} },
	"notify/lucky_king":           func() Event { return &LuckyKing{} },
	"notify/honor":                func() Event { return &GroupHonor{} },
	"notify/title":                func() Event { return &GroupTitle{} },
	"notify/group_name":           func() Event { return &GroupNameChange{} },
	"request/friend":              func() Event { return &FriendRequest{} },
	"request/group":               func() Event { return &GroupRequest{} },
}

func discriminatorKey(p probe) string {
	switch p.PostType {
	case "message":
		return "message/" + p.MessageType
	case "meta_event":
		return "meta_event/" + p.MetaEventType
	case "notice":
		if p.NoticeType != "notify" {
			return "notice/" + p.NoticeType
		}
		if p.SubType == "poke" {
			if p.GroupID != 0 {
				return "notify/poke/group"
			}
			return "notify/poke/friend"
		}
		return "notify/" + p.SubType
	case "request":
		return "request/" + p.RequestType
	}
	return p.PostType
}

// Decode parses one upstream frame into its concrete event type. A
// frame without post_type but carrying an echo token is an action
// response. Frames matching no known discriminator combination return
// ErrUnknownEvent.
func Decode(raw []byte) (Event, error) {
	var p probe
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if p.PostType == "" {
		if len(p.Echo) > 0 && string(p.Echo) != "null" {
			var r Response
			if err := json.Unmarshal(raw, &r); err != nil {
				return nil, fmt.Errorf("malformed response frame: %w", err)
			}
			return &r, nil
		}
		return nil, fmt.Errorf("%w: frame has neither post_type nor echo", ErrUnknownEvent)
	}

	key := discriminatorKey(p)
	factory, ok := decoders[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, key)
	}
	ev := factory()
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return ev, nil
}
