package client

import (
	"context"
	"encoding/json"
)

// VersionInfo identifies the upstream implementation.
type VersionInfo struct {
	AppName         string `json:"app_name"`
	AppVersion      string `json:"app_version"`
	ProtocolVersion string `json:"protocol_version"`
}

// GetVersionInfo returns the upstream's name and version.
func (c *Client) GetVersionInfo(ctx context.Context) (*VersionInfo, error) {
	return callData[*VersionInfo](ctx, c, "get_version_info", nil)
}

// GetPacketStatus reports whether the upstream's packet backend is up.
func (c *Client) GetPacketStatus(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "nc_get_packet_status", nil)
}

// GetRobotUinRange returns the official bot account id ranges.
func (c *Client) GetRobotUinRange(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_robot_uin_range", nil)
}

// BotExit asks the upstream to log the bot account out. The connection
// drops shortly after.
func (c *Client) BotExit() error {
	return c.fire("bot_exit", nil)
}

// CanSendImage reports whether the account may send images.
func (c *Client) CanSendImage(ctx context.Context) (bool, error) {
	out, err := callData[struct {
		Yes bool `json:"yes"`
	}](ctx, c, "can_send_image", nil)
	return out.Yes, err
}

// CanSendRecord reports whether the account may send voice records.
func (c *Client) CanSendRecord(ctx context.Context) (bool, error) {
	out, err := callData[struct {
		Yes bool `json:"yes"`
	}](ctx, c, "can_send_record", nil)
	return out.Yes, err
}

// OCRImage runs text recognition over an image.
func (c *Client) OCRImage(ctx context.Context, image string) (json.RawMessage, error) {
	params := struct {
		Image string `json:"image"`
	}{image}
	return callData[json.RawMessage](ctx, c, "ocr_image", params)
}

// TranslateEn2Zh translates English words to Chinese.
func (c *Client) TranslateEn2Zh(ctx context.Context, words []string) ([]string, error) {
	params := struct {
		Words []string `json:"words"`
	}{words}
	return callData[[]string](ctx, c, "translate_en2zh", params)
}

// SetInputStatus shows a typing indicator to the peer. eventType is an
// upstream enum rendered as string.
func (c *Client) SetInputStatus(groupID, userID int64, eventType string) error {
	params := struct {
		GroupID   int64  `json:"group_id,omitempty"`
		UserID    int64  `json:"user_id,omitempty"`
		EventType string `json:"eventType"`
	}{groupID, userID, eventType}
	return c.fire("set_input_status", params)
}

// GetCookies returns the web cookies for a domain.
func (c *Client) GetCookies(ctx context.Context, domain string) (json.RawMessage, error) {
	params := struct {
		Domain string `json:"domain"`
	}{domain}
	return callData[json.RawMessage](ctx, c, "get_cookies", params)
}

// GetCSRFToken returns the web CSRF token.
func (c *Client) GetCSRFToken(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_csrf_token", nil)
}

// GetCredentials returns cookies and CSRF token for a domain in one
// call.
func (c *Client) GetCredentials(ctx context.Context, domain string) (json.RawMessage, error) {
	params := struct {
		Domain string `json:"domain"`
	}{domain}
	return callData[json.RawMessage](ctx, c, "get_credentials", params)
}

// GetRkeyNC returns media rkeys via the packet backend.
func (c *Client) GetRkeyNC(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "nc_get_rkey", nil)
}

// GetRkey returns media rkeys.
func (c *Client) GetRkey(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_rkey", nil)
}

// GetClientKey returns the account client key.
func (c *Client) GetClientKey(ctx context.Context) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_clientkey", nil)
}

// GetAIRecord synthesizes speech with an AI voice character and returns
// a record the bot can send.
func (c *Client) GetAIRecord(ctx context.Context, character, text string, groupID int64) (json.RawMessage, error) {
	params := struct {
		Character string `json:"character"`
		Text      string `json:"text"`
		GroupID   int64  `json:"group_id,omitempty"`
	}{character, text, groupID}
	return callData[json.RawMessage](ctx, c, "get_ai_record", params)
}

// CheckURLSafely runs the upstream's link safety check.
func (c *Client) CheckURLSafely(ctx context.Context, url string) (json.RawMessage, error) {
	params := struct {
		URL string `json:"url"`
	}{url}
	return callData[json.RawMessage](ctx, c, "check_url_safely", params)
}

// MiniAppArk describes a mini-app share card to build.
type MiniAppArk struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Desc    string `json:"desc"`
	PicURL  string `json:"picUrl"`
	JumpURL string `json:"jumpUrl"`
}

// GetMiniAppArk builds a mini-app share card.
func (c *Client) GetMiniAppArk(ctx context.Context, ark MiniAppArk) (json.RawMessage, error) {
	return callData[json.RawMessage](ctx, c, "get_mini_app_ark", ark)
}

// GetCollectionList pages through the account's collection. count 0
// uses the upstream default of 10.
func (c *Client) GetCollectionList(ctx context.Context, category, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 10
	}
	params := struct {
		Category int `json:"category"`
		Count    int `json:"count"`
	}{category, count}
	return callData[json.RawMessage](ctx, c, "get_collection_list", params)
}
