package journal

import "fmt"

// Conversation kinds. Group and private conversations are keyed by an
// id; notice, meta, and request records share one unkeyed stream per
// kind.
const (
	KindGroup   = "group"
	KindPrivate = "private"
	KindNotice  = "notice"
	KindMeta    = "meta"
	KindRequest = "request"
)

// Conversation identifies one journaled thread. ID is zero for the
// unkeyed kinds.
type Conversation struct {
	Kind string
	ID   int64
}

// GroupConv addresses a group thread.
func GroupConv(groupID int64) Conversation {
	return Conversation{Kind: KindGroup, ID: groupID}
}

// PrivateConv addresses a direct thread.
func PrivateConv(userID int64) Conversation {
	return Conversation{Kind: KindPrivate, ID: userID}
}

// Keyed reports whether the conversation has a per-thread keyspace.
func (c Conversation) Keyed() bool {
	return c.Kind == KindGroup || c.Kind == KindPrivate
}

// hashKey returns the Redis hash holding message_id => JSON. The shape
// is stable; downstream tooling reads these keys directly.
func (c Conversation) hashKey(selfID int64) string {
	if c.Keyed() {
		return fmt.Sprintf("bot:%d:%s:%d:msg_data", selfID, c.Kind, c.ID)
	}
	return fmt.Sprintf("bot:%d:%s:msg_data", selfID, c.Kind)
}

// zsetKey returns the sorted set scoring message ids by event time.
func (c Conversation) zsetKey(selfID int64) string {
	if c.Keyed() {
		return fmt.Sprintf("bot:%d:%s:%d:time_map", selfID, c.Kind, c.ID)
	}
	return fmt.Sprintf("bot:%d:%s:time_map", selfID, c.Kind)
}
