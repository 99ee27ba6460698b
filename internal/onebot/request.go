package onebot

// FriendRequest is an incoming friend application. Flag is passed back
// when approving or rejecting.
type FriendRequest struct {
	EventHeader
	RequestType string `json:"request_type"`
	UserID      int64  `json:"user_id"`
	Comment     string `json:"comment"`
	Flag        string `json:"flag"`
}

// Variant implements Event.
func (*FriendRequest) Variant() string { return VariantFriendRequest }

// GroupRequest is a join application ("add") or an invitation for the
// bot itself ("invite").
type GroupRequest struct {
	EventHeader
	RequestType string `json:"request_type"`
	SubType     string `json:"sub_type"`
	GroupID     int64  `json:"group_id"`
	UserID      int64  `json:"user_id"`
	Comment     string `json:"comment"`
	Flag        string `json:"flag"`
}

// Variant implements Event.
func (*GroupRequest) Variant() string { return VariantGroupRequest }
