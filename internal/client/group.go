package client

import (
	"context"
	"encoding/json"
)

// SendGroupAIRecord speaks text in a group using an AI voice character.
func (c *Client) SendGroupAIRecord(groupID int64, character, text string) error {
	params := struct {
		GroupID   int64  `json:"group_id"`
		Character string `json:"character"`
		Text      string `json:"text"`
	}{groupID, character, text}
	return c.fire("send_group_ai_record", params)
}

// GetAICharacters lists the AI voice characters available to a group.
// chatType 0 uses the default of 1.
func (c *Client) GetAICharacters(ctx context.Context, groupID int64, chatType int) (json.RawMessage, error) {
	if chatType <= 0 {
		chatType = 1
	}
	params := struct {
		GroupID  int64 `json:"group_id"`
		ChatType int   `json:"chat_type"`
	}{groupID, chatType}
	return callData[json.RawMessage](ctx, c, "get_ai_characters", params)
}

// GroupInfo is the subset of group metadata the gateway itself reads.
// Callers needing more decode the raw detail queries.
type GroupInfo struct {
	GroupID        int64  `json:"group_id"`
	GroupName      string `json:"group_name"`
	MemberCount    int    `json:"member_count"`
	MaxMemberCount int    `json:"max_member_count"`
}

// GetGroupInfo returns the basic metadata of one group.
func (c *Client) GetGroupInfo(ctx context.Context, groupID int64) (*GroupInfo, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[*GroupInfo](ctx, c, "get_group_info", params)
}

// GetGroupDetailInfo returns the extended metadata of one group.
func (c *Client) GetGroupDetailInfo(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_group_detail_info", params)
}

// GetGroupInfoEx returns the upstream's extra group metadata blob.
func (c *Client) GetGroupInfoEx(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_group_info_ex", params)
}

// GetGroupList lists every group the bot is in.
func (c *Client) GetGroupList(ctx context.Context, noCache bool) ([]GroupInfo, error) {
	params := struct {
		NoCache bool `json:"no_cache"`
	}{noCache}
	return callData[[]GroupInfo](ctx, c, "get_group_list", params)
}

// GroupMember describes one member of a group.
type GroupMember struct {
	GroupID  int64  `json:"group_id"`
	UserID   int64  `json:"user_id"`
	Nickname string `json:"nickname"`
	Card     string `json:"card"`
	Role     string `json:"role"`
	Title    string `json:"title"`
	JoinTime int64  `json:"join_time"`
}

// GetGroupMemberInfo returns one member's profile in a group.
func (c *Client) GetGroupMemberInfo(ctx context.Context, groupID, userID int64, noCache bool) (*GroupMember, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
		UserID  int64 `json:"user_id"`
		NoCache bool  `json:"no_cache"`
	}{groupID, userID, noCache}
	return callData[*GroupMember](ctx, c, "get_group_member_info", params)
}

// GetGroupMemberList returns every member of a group.
func (c *Client) GetGroupMemberList(ctx context.Context, groupID int64, noCache bool) ([]GroupMember, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
		NoCache bool  `json:"no_cache"`
	}{groupID, noCache}
	return callData[[]GroupMember](ctx, c, "get_group_member_list", params)
}

// GetGroupHonorInfo returns a group's honor roll. honorType "" queries
// all honors at once.
func (c *Client) GetGroupHonorInfo(ctx context.Context, groupID int64, honorType string) (json.RawMessage, error) {
	if honorType == "" {
		honorType = "all"
	}
	params := struct {
		GroupID int64  `json:"group_id"`
		Type    string `json:"type"`
	}{groupID, honorType}
	return callData[json.RawMessage](ctx, c, "get_group_honor_info", params)
}

// GetGroupAtAllRemain returns how many at-all mentions the bot has left
// in a group today.
func (c *Client) GetGroupAtAllRemain(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_group_at_all_remain", params)
}

// GetGroupShutList lists the currently muted members of a group.
func (c *Client) GetGroupShutList(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_group_shut_list", params)
}

// GetGroupSystemMessage returns pending join requests and invites.
func (c *Client) GetGroupSystemMessage(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_group_system_msg", nil)
}

// GetGroupIgnoredNotifies returns the join requests the upstream
// filtered out of the system message list.
func (c *Client) GetGroupIgnoredNotifies(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_group_ignored_notifies", params)
}

// SetGroupKick removes a member. rejectAddRequest also blocks them from
// rejoining.
func (c *Client) SetGroupKick(groupID, userID int64, rejectAddRequest bool) error {
	params := struct {
		GroupID          int64 `json:"group_id"`
		UserID           int64 `json:"user_id"`
		RejectAddRequest bool  `json:"reject_add_request"`
	}{groupID, userID, rejectAddRequest}
	return c.fire("set_group_kick", params)
}

// SetGroupKickMembers removes several members at once.
func (c *Client) SetGroupKickMembers(groupID int64, userIDs []int64, rejectAddRequest bool) error {
	params := struct {
		GroupID          int64   `json:"group_id"`
		UserIDs          []int64 `json:"user_ids"`
		RejectAddRequest bool    `json:"reject_add_request"`
	}{groupID, userIDs, rejectAddRequest}
	return c.fire("set_group_kick_members", params)
}

// SetGroupBan mutes a member for duration seconds; 0 unmutes.
func (c *Client) SetGroupBan(groupID, userID, duration int64) error {
	params := struct {
		GroupID  int64 `json:"group_id"`
		UserID   int64 `json:"user_id"`
		Duration int64 `json:"duration"`
	}{groupID, userID, duration}
	return c.fire("set_group_ban", params)
}

// SetGroupWholeBan mutes or unmutes everyone but admins.
func (c *Client) SetGroupWholeBan(groupID int64, enable bool) error {
	params := struct {
		GroupID int64 `json:"group_id"`
		Enable  bool  `json:"enable"`
	}{groupID, enable}
	return c.fire("set_group_whole_ban", params)
}

// SetGroupPortrait replaces the group avatar. file accepts the same
// forms as message media.
func (c *Client) SetGroupPortrait(groupID int64, file string) error {
	params := struct {
		GroupID int64  `json:"group_id"`
		File    string `json:"file"`
	}{groupID, file}
	return c.fire("set_group_portrait", params)
}

// SetGroupAdmin grants or revokes admin.
func (c *Client) SetGroupAdmin(groupID, userID int64, enable bool) error {
	params := struct {
		GroupID int64 `json:"group_id"`
		UserID  int64 `json:"user_id"`
		Enable  bool  `json:"enable"`
	}{groupID, userID, enable}
	return c.fire("set_group_admin", params)
}

// SetGroupCard sets a member's display name; "" clears it.
func (c *Client) SetGroupCard(groupID, userID int64, card string) error {
	params := struct {
		GroupID int64  `json:"group_id"`
		UserID  int64  `json:"user_id"`
		Card    string `json:"card"`
	}{groupID, userID, card}
	return c.fire("set_group_card", params)
}

// SetGroupName renames the group.
func (c *Client) SetGroupName(groupID int64, name string) error {
	params := struct {
		GroupID   int64  `json:"group_id"`
		GroupName string `json:"group_name"`
	}{groupID, name}
	return c.fire("set_group_name", params)
}

// SetGroupRemark sets the bot's private remark on a group.
func (c *Client) SetGroupRemark(groupID int64, remark string) error {
	params := struct {
		GroupID int64  `json:"group_id"`
		Remark  string `json:"remark"`
	}{groupID, remark}
	return c.fire("set_group_remark", params)
}

// SetGroupLeave leaves a group; dismiss disbands it when the bot owns
// it.
func (c *Client) SetGroupLeave(groupID int64, dismiss bool) error {
	params := struct {
		GroupID   int64 `json:"group_id"`
		IsDismiss bool  `json:"is_dismiss,omitempty"`
	}{groupID, dismiss}
	return c.fire("set_group_leave", params)
}

// SetGroupSign checks the bot in on the group sign-in board.
func (c *Client) SetGroupSign(groupID int64) error {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return c.fire("set_group_sign", params)
}

// SetGroupTodo pins a message onto the group todo board.
func (c *Client) SetGroupTodo(groupID, messageID int64, messageSeq string) error {
	params := struct {
		GroupID    int64  `json:"group_id"`
		MessageID  int64  `json:"message_id"`
		MessageSeq string `json:"message_seq,omitempty"`
	}{groupID, messageID, messageSeq}
	return c.fire("set_group_todo", params)
}

// SetGroupSpecialTitle grants a member a special title. duration -1
// keeps it forever and is the only value current upstreams honor.
func (c *Client) SetGroupSpecialTitle(groupID, userID int64, title string) error {
	params := struct {
		GroupID      int64  `json:"group_id"`
		UserID       int64  `json:"user_id"`
		SpecialTitle string `json:"special_title,omitempty"`
		Duration     int    `json:"duration"`
	}{groupID, userID, title, -1}
	return c.fire("set_group_special_title", params)
}

// SetGroupSearch toggles whether the group appears in public search.
func (c *Client) SetGroupSearch(groupID int64, noCodeFingerOpen, noFingerOpen int) error {
	params := struct {
		GroupID          int64 `json:"group_id"`
		NoCodeFingerOpen int   `json:"no_code_finger_open,omitempty"`
		NoFingerOpen     int   `json:"no_finger_open,omitempty"`
	}{groupID, noCodeFingerOpen, noFingerOpen}
	return c.fire("set_group_search", params)
}

// SetGroupAddRequest approves or rejects a pending join request by its
// flag from the request event.
func (c *Client) SetGroupAddRequest(flag string, approve bool, reason string) error {
	params := struct {
		Flag    string `json:"flag"`
		Approve bool   `json:"approve"`
		Reason  string `json:"reason,omitempty"`
	}{flag, approve, reason}
	return c.fire("set_group_add_request", params)
}

// SetEssenceMessage pins a message to the group essence board.
func (c *Client) SetEssenceMessage(messageID int64) error {
	params := struct {
		MessageID int64 `json:"message_id"`
	}{messageID}
	return c.fire("set_essence_msg", params)
}

// DeleteEssenceMessage removes a message from the essence board.
func (c *Client) DeleteEssenceMessage(messageID int64) error {
	params := struct {
		MessageID int64 `json:"message_id"`
	}{messageID}
	return c.fire("delete_essence_msg", params)
}

// GetEssenceMessageList returns the essence board of a group.
func (c *Client) GetEssenceMessageList(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_essence_msg_list", params)
}

// GroupNoticeOptions tunes a posted group notice. The int fields are
// upstream tri-states where 0 means "unset".
type GroupNoticeOptions struct {
	Image           string
	Pinned          int
	Type            int
	ConfirmRequired int
	IsShowEditCard  int
	TipWindowType   int
}

// SendGroupNotice posts a group notice board entry.
func (c *Client) SendGroupNotice(groupID int64, content string, opts GroupNoticeOptions) error {
	params := struct {
		GroupID         int64  `json:"group_id"`
		Content         string `json:"content"`
		Image           string `json:"image,omitempty"`
		Pinned          int    `json:"pinned,omitempty"`
		Type            int    `json:"type,omitempty"`
		ConfirmRequired int    `json:"confirm_required,omitempty"`
		IsShowEditCard  int    `json:"is_show_edit_card,omitempty"`
		TipWindowType   int    `json:"tip_window_type,omitempty"`
	}{groupID, content, opts.Image, opts.Pinned, opts.Type, opts.ConfirmRequired, opts.IsShowEditCard, opts.TipWindowType}
	return c.fire("_send_group_notice", params)
}

// GetGroupNotice returns the notice board of a group.
func (c *Client) GetGroupNotice(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "_get_group_notice", params)
}

// DeleteGroupNotice removes a notice board entry.
func (c *Client) DeleteGroupNotice(groupID int64, noticeID string) error {
	params := struct {
		GroupID  int64  `json:"group_id"`
		NoticeID string `json:"notice_id"`
	}{groupID, noticeID}
	return c.fire("_del_group_notice", params)
}
