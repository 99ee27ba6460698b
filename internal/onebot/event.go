// Package onebot defines the wire model shared by the gateway: inbound
// events, message segments, and action responses in the OneBot v11 JSON
// framing.
package onebot

// Variant names identify each concrete event type. They are used as
// dispatch interests by plugins, as metric labels, and in logs.
const (
	VariantGroupMessage    = "message.group"
	VariantPrivateMessage  = "message.private"
	VariantSelfMessage     = "message.self"
	VariantLifeCycle       = "meta.lifecycle"
	VariantHeartbeat       = "meta.heartbeat"
	VariantGroupRecall     = "notice.group_recall"
	VariantFriendRecall    = "notice.friend_recall"
	VariantGroupIncrease   = "notice.group_increase"
	VariantGroupDecrease   = "notice.group_decrease"
	VariantGroupAdmin      = "notice.group_admin"
	VariantGroupBan        = "notice.group_ban"
	VariantGroupUpload     = "notice.group_upload"
	VariantGroupCard       = "notice.group_card"
	VariantGroupEssence    = "notice.essence"
	VariantGroupMsgEmoji   = "notice.group_msg_emoji_like"
	VariantFriendAdd       = "notice.friend_add"
	VariantBotOffline      = "notice.bot_offline"
	VariantGroupPoke       = "notice.poke.group"
	VariantFriendPoke      = "notice.poke.friend"
	VariantProfileLike     = "notice.profile_like"
	VariantInputStatus     = "notice.input_status"
	VariantLuckyKing       = "notice.lucky_king"
	VariantGroupHonor      = "notice.honor"
	VariantGroupTitle      = "notice.title"
	VariantGroupNameChange = "notice.group_name"
	VariantFriendRequest   = "request.friend"
	VariantGroupRequest    = "request.group"
	VariantResponse        = "response"
)

// Event is implemented by every frame the gateway can decode from the
// upstream socket, plus the synthesized SelfMessage.
type Event interface {
	// Variant returns the stable name of the concrete type.
	Variant() string
	// Self returns the bot account that observed the event, or 0 when
	// the frame does not carry one.
	Self() int64
	// Unix returns the event timestamp in seconds, or 0 when the frame
	// does not carry one.
	Unix() int64
}

// EventHeader carries the fields present on every pushed event.
type EventHeader struct {
	Time     int64  `json:"time"`
	SelfID   int64  `json:"self_id"`
	PostType string `json:"post_type"`
}

// Self implements Event.
func (h EventHeader) Self() int64 { return h.SelfID }

// Unix implements Event.
func (h EventHeader) Unix() int64 { return h.Time }
