package client

import (
	"context"
	"encoding/json"
)

// LoginInfo identifies the bot account.
type LoginInfo struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
}

// GetLoginInfo returns the bot's own account id and nickname.
func (c *Client) GetLoginInfo(ctx context.Context) (*LoginInfo, error) {
	return callData[*LoginInfo](ctx, c, "get_login_info", nil)
}

// GetStatus returns the upstream's health summary.
func (c *Client) GetStatus(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_status", nil)
}

// GetOnlineClients lists the devices logged into the bot account.
func (c *Client) GetOnlineClients(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_online_clients", nil)
}

// MarkMessageAsRead marks one conversation read; set exactly one of
// groupID and userID.
func (c *Client) MarkMessageAsRead(groupID, userID int64) error {
	params := struct {
		GroupID int64 `json:"group_id,omitempty"`
		UserID  int64 `json:"user_id,omitempty"`
	}{groupID, userID}
	return c.fire("mark_msg_as_read", params)
}

// MarkPrivateMessageAsRead marks a direct conversation read.
func (c *Client) MarkPrivateMessageAsRead(userID int64) error {
	params := struct {
		UserID int64 `json:"user_id"`
	}{userID}
	return c.fire("mark_private_msg_as_read", params)
}

// MarkGroupMessageAsRead marks a group conversation read.
func (c *Client) MarkGroupMessageAsRead(groupID int64) error {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return c.fire("mark_group_msg_as_read", params)
}

// MarkAllAsRead clears every unread marker.
func (c *Client) MarkAllAsRead() error {
	return c.fire("_mark_all_as_read", nil)
}

// GetRecentContact returns the most recent conversations. count 0 uses
// the upstream default of 10.
func (c *Client) GetRecentContact(ctx context.Context, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 10
	}
	params := struct {
		Count int `json:"count"`
	}{count}
	return callData[json.RawMessage](ctx, c, "get_recent_contact", params)
}

// SendLike likes a profile up to 10 times. times 0 sends one.
func (c *Client) SendLike(userID int64, times int) error {
	if times <= 0 {
		times = 1
	}
	params := struct {
		UserID int64 `json:"user_id"`
		Times  int   `json:"times"`
	}{userID, times}
	return c.fire("send_like", params)
}

// SetFriendAddRequest approves or rejects a friend request by its flag
// from the request event. remark names the new friend on approval.
func (c *Client) SetFriendAddRequest(flag string, approve bool, remark string) error {
	params := struct {
		Flag    string `json:"flag"`
		Approve bool   `json:"approve"`
		Remark  string `json:"remark,omitempty"`
	}{flag, approve, remark}
	return c.fire("set_friend_add_request", params)
}

// StrangerInfo is the public profile of an arbitrary account.
type StrangerInfo struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Sex      string `json:"sex"`
	Age      int    `json:"age"`
	QID      string `json:"qid"`
	Level    int    `json:"level"`
}

// GetStrangerInfo returns the public profile of any account.
func (c *Client) GetStrangerInfo(ctx context.Context, userID int64) (*StrangerInfo, error) {
	params := struct {
		UserID int64 `json:"user_id"`
	}{userID}
	return callData[*StrangerInfo](ctx, c, "get_stranger_info", params)
}

// Friend is one entry of the friend list.
type Friend struct {
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Remark   string `json:"remark"`
}

// GetFriendList returns every friend of the bot account.
func (c *Client) GetFriendList(ctx context.Context, noCache bool) ([]Friend, error) {
	params := struct {
		NoCache bool `json:"no_cache"`
	}{noCache}
	return callData[[]Friend](ctx, c, "get_friend_list", params)
}

// GetFriendsWithCategory returns the friend list grouped by category.
func (c *Client) GetFriendsWithCategory(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_friends_with_category", nil)
}

// GetUnidirectionalFriendList returns accounts that follow the bot
// one-way.
func (c *Client) GetUnidirectionalFriendList(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_unidirectional_friend_list", nil)
}

// SetQQProfile updates the bot's profile card. Empty optional fields
// stay untouched.
func (c *Client) SetQQProfile(nickname, personalNote, sex string) error {
	params := struct {
		Nickname     string `json:"nickname"`
		PersonalNote string `json:"personal_note,omitempty"`
		Sex          string `json:"sex,omitempty"`
	}{nickname, personalNote, sex}
	return c.fire("set_qq_profile", params)
}

// DeleteFriendOptions tunes a friend removal.
type DeleteFriendOptions struct {
	FriendID    int64
	TempBlock   bool // also block the account
	TempBothDel bool // remove the bot from their list too
}

// DeleteFriend removes a friend relationship.
func (c *Client) DeleteFriend(userID int64, opts DeleteFriendOptions) error {
	params := struct {
		UserID      int64 `json:"user_id,omitempty"`
		FriendID    int64 `json:"friend_id,omitempty"`
		TempBlock   bool  `json:"temp_block"`
		TempBothDel bool  `json:"temp_both_del"`
	}{userID, opts.FriendID, opts.TempBlock, opts.TempBothDel}
	return c.fire("delete_friend", params)
}

// ArkSharePeer builds a share card for a user or group; phoneNumber
// shares a contact instead.
func (c *Client) ArkSharePeer(ctx context.Context, groupID, userID int64, phoneNumber string) (json.RawMessage, error) {
	params := struct {
		GroupID     int64  `json:"group_id,omitempty"`
		UserID      int64  `json:"user_id,omitempty"`
		PhoneNumber string `json:"phoneNumber,omitempty"`
	}{groupID, userID, phoneNumber}
	return callData[json.RawMessage](ctx, c, "ArkSharePeer", params)
}

// ArkShareGroup builds a join-group share card.
func (c *Client) ArkShareGroup(ctx context.Context, groupID string) (json.RawMessage, error) {
	params := struct {
		GroupID string `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "ArkShareGroup", params)
}

// SetOnlineStatus sets the account presence. status and extStatus are
// upstream enum values; batteryStatus only matters for the battery
// presence.
func (c *Client) SetOnlineStatus(status, extStatus, batteryStatus int) error {
	params := struct {
		Status        int `json:"status"`
		ExtStatus     int `json:"ext_status"`
		BatteryStatus int `json:"battery_status"`
	}{status, extStatus, batteryStatus}
	return c.fire("set_online_status", params)
}

// SetDiyOnlineStatus sets a custom presence built from a face id and
// optional wording.
func (c *Client) SetDiyOnlineStatus(faceID int64, faceType int, wording string) error {
	params := struct {
		FaceID   int64  `json:"face_id"`
		FaceType int    `json:"face_type,omitempty"`
		Wording  string `json:"wording,omitempty"`
	}{faceID, faceType, wording}
	return c.fire("set_diy_online_status", params)
}

// SetQQAvatar replaces the bot's avatar.
func (c *Client) SetQQAvatar(file string) error {
	params := struct {
		File string `json:"file"`
	}{file}
	return c.fire("set_qq_avatar", params)
}

// CreateCollection stores rawData in the account's collection with a
// short description.
func (c *Client) CreateCollection(rawData, brief string) error {
	params := struct {
		RawData string `json:"rawData"`
		Brief   string `json:"brief"`
	}{rawData, brief}
	return c.fire("create_collection", params)
}

// SetSelfLongNick sets the profile signature.
func (c *Client) SetSelfLongNick(longNick string) error {
	params := struct {
		LongNick string `json:"longNick"`
	}{longNick}
	return c.fire("set_self_longnick", params)
}

// FetchCustomFace returns the saved custom stickers. count 0 uses the
// upstream default of 40.
func (c *Client) FetchCustomFace(ctx context.Context, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 40
	}
	params := struct {
		Count int `json:"count"`
	}{count}
	return callData[json.RawMessage](ctx, c, "fetch_custom_face", params)
}

// GetProfileLike returns who liked a profile; userID 0 queries the
// bot's own.
func (c *Client) GetProfileLike(ctx context.Context, userID int64, start, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 10
	}
	params := struct {
		UserID int64 `json:"user_id,omitempty"`
		Start  int   `json:"start"`
		Count  int   `json:"count"`
	}{userID, start, count}
	return callData[json.RawMessage](ctx, c, "get_profile_like", params)
}

// GetUserStatus returns an account's presence.
func (c *Client) GetUserStatus(ctx context.Context, userID int64) (json.RawMessage, error) {
	params := struct {
		UserID int64 `json:"user_id"`
	}{userID}
	return callData[json.RawMessage](ctx, c, "nc_get_user_status", params)
}

// GetModelShow returns the device model display for a model name.
func (c *Client) GetModelShow(ctx context.Context, model string) (json.RawMessage, error) {
	params := struct {
		Model string `json:"model"`
	}{model}
	return callData[json.RawMessage](ctx, c, "_get_model_show", params)
}

// SetModelShow sets the device model shown on the profile.
func (c *Client) SetModelShow(model, modelShow string) error {
	params := struct {
		Model     string `json:"model"`
		ModelShow string `json:"model_show"`
	}{model, modelShow}
	return c.fire("_set_model_show", params)
}

// GetDoubtFriendsAddRequest returns friend requests the upstream
// quarantined as suspicious. count 0 uses the default of 50.
func (c *Client) GetDoubtFriendsAddRequest(ctx context.Context, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 50
	}
	params := struct {
		Count int `json:"count"`
	}{count}
	return callData[json.RawMessage](ctx, c, "get_doubt_friends_add_request", params)
}

// SetDoubtFriendsAddRequest resolves a quarantined friend request.
func (c *Client) SetDoubtFriendsAddRequest(flag string, approve bool) error {
	params := struct {
		Flag    string `json:"flag"`
		Approve bool   `json:"approve"`
	}{flag, approve}
	return c.fire("set_doubt_friends_add_request", params)
}

// SetFriendRemark renames a friend in the bot's list.
func (c *Client) SetFriendRemark(userID int64, remark string) error {
	params := struct {
		UserID int64  `json:"user_id"`
		Remark string `json:"remark"`
	}{userID, remark}
	return c.fire("set_friend_remark", params)
}
