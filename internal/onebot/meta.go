package onebot

// LifeCycle reports a connection state change. A sub_type of "connect"
// is pushed right after the upstream attaches and carries the bot
// account in self_id.
type LifeCycle struct {
	EventHeader
	MetaEventType string `json:"meta_event_type"`
	SubType       string `json:"sub_type"`
}

// Variant implements Event.
func (*LifeCycle) Variant() string { return VariantLifeCycle }

// HeartbeatStatus is the health snapshot inside a heartbeat. Online is
// a pointer because upstreams may report null while the account state
// is unknown.
type HeartbeatStatus struct {
	Online *bool `json:"online"`
	Good   bool  `json:"good"`
}

// Heartbeat is the periodic keepalive pushed by the upstream. Interval
// is the configured period in milliseconds.
type Heartbeat struct {
	EventHeader
	MetaEventType string          `json:"meta_event_type"`
	Status        HeartbeatStatus `json:"status"`
	Interval      int64           `json:"interval"`
}

// Variant implements Event.
func (*Heartbeat) Variant() string { return VariantHeartbeat }
