package onebot

// Sender describes the account a message came from. Card and Role are
// only present on group senders.
type Sender struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card,omitempty"`
	Role     string `json:"role,omitempty"`
}

// GroupMessage is a message observed in a group conversation.
type GroupMessage struct {
	EventHeader
	MessageType string    `json:"message_type"`
	SubType     string    `json:"sub_type,omitempty"`
	MessageID   int64     `json:"message_id"`
	GroupID     int64     `json:"group_id"`
	GroupName   string    `json:"group_name,omitempty"`
	UserID      int64     `json:"user_id"`
	Sender      Sender    `json:"sender"`
	Message     []Segment `json:"message"`
}

// Variant implements Event.
func (*GroupMessage) Variant() string { return VariantGroupMessage }

// PrivateMessage is a message observed in a direct conversation.
type PrivateMessage struct {
	EventHeader
	MessageType string    `json:"message_type"`
	SubType     string    `json:"sub_type,omitempty"`
	MessageID   int64     `json:"message_id"`
	UserID      int64     `json:"user_id"`
	Sender      Sender    `json:"sender"`
	Message     []Segment `json:"message"`
}

// Variant implements Event.
func (*PrivateMessage) Variant() string { return VariantPrivateMessage }

// SelfMessage is synthesized by the gateway for every message it sends,
// so outbound traffic is journaled alongside inbound. Exactly one of
// GroupID and UserID is set.
type SelfMessage struct {
	MessageID int64     `json:"message_id"`
	SelfID    int64     `json:"self_id"`
	GroupID   int64     `json:"group_id,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	Time      int64     `json:"time"`
	Message   []Segment `json:"message"`
}

// Variant implements Event.
func (*SelfMessage) Variant() string { return VariantSelfMessage }

// Self implements Event.
func (m *SelfMessage) Self() int64 { return m.SelfID }

// Unix implements Event.
func (m *SelfMessage) Unix() int64 { return m.Time }
