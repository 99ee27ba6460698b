package client

import (
	"context"
	"encoding/json"
)

// AlbumMedia addresses one item in a group album: the album id plus the
// item's storage locator. Group ids are strings on this API family.
type AlbumMedia struct {
	GroupID string
	AlbumID string
	Lloc    string
}

// DelGroupAlbumMedia removes one item from a group album.
func (c *Client) DelGroupAlbumMedia(m AlbumMedia) error {
	params := struct {
		GroupID string `json:"group_id"`
		AlbumID string `json:"album_id"`
		Lloc    string `json:"lloc"`
	}{m.GroupID, m.AlbumID, m.Lloc}
	return c.fire("del_group_album_media", params)
}

// SetGroupAlbumMediaLike likes (set) or unlikes an album item.
func (c *Client) SetGroupAlbumMediaLike(m AlbumMedia, id string, set bool) error {
	params := struct {
		GroupID string `json:"group_id"`
		AlbumID string `json:"album_id"`
		Lloc    string `json:"lloc"`
		ID      string `json:"id"`
		Set     bool   `json:"set"`
	}{m.GroupID, m.AlbumID, m.Lloc, id, set}
	return c.fire("set_group_album_media_like", params)
}

// DoGroupAlbumComment comments on an album item.
func (c *Client) DoGroupAlbumComment(m AlbumMedia, content string) error {
	params := struct {
		GroupID string `json:"group_id"`
		AlbumID string `json:"album_id"`
		Lloc    string `json:"lloc"`
		Content string `json:"content"`
	}{m.GroupID, m.AlbumID, m.Lloc, content}
	return c.fire("do_group_album_comment", params)
}

// GetGroupAlbumMediaList pages through an album's items. attachInfo ""
// starts from the beginning; later pages pass the value returned by the
// previous call.
func (c *Client) GetGroupAlbumMediaList(ctx context.Context, groupID, albumID, attachInfo string) (json.RawMessage, error) {
	params := struct {
		GroupID    string `json:"group_id"`
		AlbumID    string `json:"album_id"`
		AttachInfo string `json:"attach_info"`
	}{groupID, albumID, attachInfo}
	return callData[json.RawMessage](ctx, c, "get_group_album_media_list", params)
}

// UploadImageToQunAlbum uploads a local image into a group album.
func (c *Client) UploadImageToQunAlbum(groupID, albumID, albumName, file string) error {
	params := struct {
		GroupID   string `json:"group_id"`
		AlbumID   string `json:"album_id"`
		AlbumName string `json:"album_name"`
		File      string `json:"file"`
	}{groupID, albumID, albumName, file}
	return c.fire("upload_image_to_qun_album", params)
}

// GetQunAlbumList lists the albums of a group.
func (c *Client) GetQunAlbumList(ctx context.Context, groupID string) (json.RawMessage, error) {
	params := struct {
		GroupID string `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_qun_album_list", params)
}
