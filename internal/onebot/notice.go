package onebot

import "encoding/json"

// GroupRecall reports a message withdrawn in a group. OperatorID equals
// UserID when the sender recalled their own message.
type GroupRecall struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	OperatorID int64  `json:"operator_id"`
	MessageID  int64  `json:"message_id"`
}

// Variant implements Event.
func (*GroupRecall) Variant() string { return VariantGroupRecall }

// FriendRecall reports a message withdrawn in a direct conversation.
type FriendRecall struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	UserID     int64  `json:"user_id"`
	MessageID  int64  `json:"message_id"`
}

// Variant implements Event.
func (*FriendRecall) Variant() string { return VariantFriendRecall }

// GroupIncrease reports a member joining a group. SubType is "approve"
// or "invite".
type GroupIncrease struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	OperatorID int64  `json:"operator_id"`
}

// Variant implements Event.
func (*GroupIncrease) Variant() string { return VariantGroupIncrease }

// GroupDecrease reports a member leaving a group. SubType is "leave",
// "kick", "kick_me", or "disband".
type GroupDecrease struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	OperatorID int64  `json:"operator_id"`
}

// Variant implements Event.
func (*GroupDecrease) Variant() string { return VariantGroupDecrease }

// GroupAdmin reports an admin grant ("set") or revoke ("unset").
type GroupAdmin struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
}

// Variant implements Event.
func (*GroupAdmin) Variant() string { return VariantGroupAdmin }

// GroupBan reports a mute ("ban") or unmute ("lift_ban"). Duration is
// in seconds and 0 when lifting.
type GroupBan struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	OperatorID int64  `json:"operator_id"`
	Duration   int64  `json:"duration"`
}

// Variant implements Event.
func (*GroupBan) Variant() string { return VariantGroupBan }

// GroupUploadFile describes the file attached to a GroupUpload notice.
type GroupUploadFile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Size  int64  `json:"size"`
	BusID int64  `json:"busid"`
}

// GroupUpload reports a file uploaded to a group.
type GroupUpload struct {
	EventHeader
	NoticeType string          `json:"notice_type"`
	GroupID    int64           `json:"group_id"`
	UserID     int64           `json:"user_id"`
	File       GroupUploadFile `json:"file"`
}

// Variant implements Event.
func (*GroupUpload) Variant() string { return VariantGroupUpload }

// GroupCard reports a member display name change.
type GroupCard struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	CardNew    string `json:"card_new"`
	CardOld    string `json:"card_old"`
}

// Variant implements Event.
func (*GroupCard) Variant() string { return VariantGroupCard }

// GroupEssence reports a message pinned to ("add") or removed from
// ("delete") the group essence board.
type GroupEssence struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	MessageID  int64  `json:"message_id"`
	SenderID   int64  `json:"sender_id"`
	OperatorID int64  `json:"operator_id"`
}

// Variant implements Event.
func (*GroupEssence) Variant() string { return VariantGroupEssence }

// EmojiLike is one reaction entry on a GroupMsgEmojiLike notice.
type EmojiLike struct {
	EmojiID string `json:"emoji_id"`
	Count   int    `json:"count"`
}

// GroupMsgEmojiLike reports emoji reactions added to or removed from a
// group message. IsAdd defaults to true when the upstream omits it.
type GroupMsgEmojiLike struct {
	EventHeader
	NoticeType string      `json:"notice_type"`
	GroupID    int64       `json:"group_id"`
	UserID     int64       `json:"user_id"`
	MessageID  int64       `json:"message_id"`
	Likes      []EmojiLike `json:"likes"`
	IsAdd      bool        `json:"is_add"`
}

// Variant implements Event.
func (*GroupMsgEmojiLike) Variant() string { return VariantGroupMsgEmoji }

// FriendAdd reports that a new friend relationship was established.
type FriendAdd struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	UserID     int64  `json:"user_id"`
}

// Variant implements Event.
func (*FriendAdd) Variant() string { return VariantFriendAdd }

// BotOffline reports that the bot account was forced offline.
type BotOffline struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	UserID     int64  `json:"user_id"`
	Tag        string `json:"tag"`
	Message    string `json:"message"`
}

// Variant implements Event.
func (*BotOffline) Variant() string { return VariantBotOffline }

// GroupPoke reports a poke inside a group.
type GroupPoke struct {
	EventHeader
	NoticeType string          `json:"notice_type"`
	SubType    string          `json:"sub_type"`
	GroupID    int64           `json:"group_id"`
	UserID     int64           `json:"user_id"`
	TargetID   int64           `json:"target_id"`
	RawInfo    json.RawMessage `json:"raw_info,omitempty"`
}

// Variant implements Event.
func (*GroupPoke) Variant() string { return VariantGroupPoke }

// FriendPoke reports a poke in a direct conversation.
type FriendPoke struct {
	EventHeader
	NoticeType string          `json:"notice_type"`
	SubType    string          `json:"sub_type"`
	UserID     int64           `json:"user_id"`
	SenderID   int64           `json:"sender_id"`
	TargetID   int64           `json:"target_id"`
	RawInfo    json.RawMessage `json:"raw_info,omitempty"`
}

// Variant implements Event.
func (*FriendPoke) Variant() string { return VariantFriendPoke }

// ProfileLike reports a like on the bot's profile card.
type ProfileLike struct {
	EventHeader
	NoticeType   string `json:"notice_type"`
	SubType      string `json:"sub_type"`
	OperatorID   int64  `json:"operator_id"`
	OperatorNick string `json:"operator_nick"`
	Times        int    `json:"times"`
}

// Variant implements Event.
func (*ProfileLike) Variant() string { return VariantProfileLike }

// InputStatus reports that a peer started typing. GroupID is 0 for
// direct conversations.
type InputStatus struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	StatusText string `json:"status_text"`
	EventType  int    `json:"event_type"`
	UserID     int64  `json:"user_id"`
	GroupID    int64  `json:"group_id"`
}

// Variant implements Event.
func (*InputStatus) Variant() string { return VariantInputStatus }

// LuckyKing reports the lucky king of a group red packet. UserID is the
// packet sender and TargetID the winner.
type LuckyKing struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	TargetID   int64  `json:"target_id"`
}

// Variant implements Event.
func (*LuckyKing) Variant() string { return VariantLuckyKing }

// GroupHonor reports a group honor change. HonorType is "talkative",
// "performer", or "emotion".
type GroupHonor struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	HonorType  string `json:"honor_type"`
}

// Variant implements Event.
func (*GroupHonor) Variant() string { return VariantGroupHonor }

// GroupTitle reports a member special title change.
type GroupTitle struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	Title      string `json:"title"`
}

// Variant implements Event.
func (*GroupTitle) Variant() string { return VariantGroupTitle }

// GroupNameChange reports a group rename.
type GroupNameChange struct {
	EventHeader
	NoticeType string `json:"notice_type"`
	SubType    string `json:"sub_type"`
	GroupID    int64  `json:"group_id"`
	UserID     int64  `json:"user_id"`
	NameNew    string `json:"name_new"`
}

// Variant implements Event.
func (*GroupNameChange) Variant() string { return VariantGroupNameChange }
