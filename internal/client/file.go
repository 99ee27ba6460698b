package client

import (
	"context"
	"encoding/json"
)

// UploadGroupFile uploads a local file into a group's file area. folder
// and folderID both "" target the root directory.
func (c *Client) UploadGroupFile(groupID int64, file, name, folder, folderID string) error {
	params := struct {
		GroupID  int64  `json:"group_id"`
		File     string `json:"file"`
		Name     string `json:"name"`
		Folder   string `json:"folder,omitempty"`
		FolderID string `json:"folder_id,omitempty"`
	}{groupID, file, name, folder, folderID}
	return c.fire("upload_group_file", params)
}

// UploadPrivateFile sends a local file in a direct conversation.
func (c *Client) UploadPrivateFile(userID int64, file, name string) error {
	params := struct {
		UserID int64  `json:"user_id"`
		File   string `json:"file"`
		Name   string `json:"name"`
	}{userID, file, name}
	return c.fire("upload_private_file", params)
}

// GetGroupRootFiles lists a group file area's root directory. count 0
// uses the upstream default of 50 entries.
func (c *Client) GetGroupRootFiles(ctx context.Context, groupID int64, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 50
	}
	params := struct {
		GroupID   int64 `json:"group_id"`
		FileCount int   `json:"file_count"`
	}{groupID, count}
	return callData[json.RawMessage](ctx, c, "get_group_root_files", params)
}

// GetGroupFilesByFolder lists one folder of a group file area,
// addressed by id or by name.
func (c *Client) GetGroupFilesByFolder(ctx context.Context, groupID int64, folderID, folder string, count int) (json.RawMessage, error) {
	if count <= 0 {
		count = 50
	}
	params := struct {
		GroupID   int64  `json:"group_id"`
		FolderID  string `json:"folder_id,omitempty"`
		Folder    string `json:"folder,omitempty"`
		FileCount int    `json:"file_count"`
	}{groupID, folderID, folder, count}
	return callData[json.RawMessage](ctx, c, "get_group_files_by_folder", params)
}

// GetGroupFileSystemInfo returns usage and quota of a group file area.
func (c *Client) GetGroupFileSystemInfo(ctx context.Context, groupID int64) (json.RawMessage, error) {
	params := struct {
		GroupID int64 `json:"group_id"`
	}{groupID}
	return callData[json.RawMessage](ctx, c, "get_group_file_system_info", params)
}

// FileInfo is the resolved form of a file token: a fetchable location
// plus metadata.
type FileInfo struct {
	File     string `json:"file"`
	URL      string `json:"url"`
	FileSize string `json:"file_size"`
	FileName string `json:"file_name"`
	Base64   string `json:"base64,omitempty"`
}

// GetFile resolves a file token from a file segment into its location.
func (c *Client) GetFile(ctx context.Context, fileID, file string) (*FileInfo, error) {
	params := struct {
		FileID string `json:"file_id,omitempty"`
		File   string `json:"file,omitempty"`
	}{fileID, file}
	return callData[*FileInfo](ctx, c, "get_file", params)
}

// GetGroupFileURL returns a direct download URL for a group file.
func (c *Client) GetGroupFileURL(ctx context.Context, groupID int64, fileID string) (json.RawMessage, error) {
	params := struct {
		GroupID int64  `json:"group_id"`
		FileID  string `json:"file_id"`
	}{groupID, fileID}
	return callData[json.RawMessage](ctx, c, "get_group_file_url", params)
}

// GetPrivateFileURL returns a direct download URL for a private file.
func (c *Client) GetPrivateFileURL(ctx context.Context, fileID string) (json.RawMessage, error) {
	params := struct {
		FileID string `json:"file_id"`
	}{fileID}
	return callData[json.RawMessage](ctx, c, "get_private_file_url", params)
}

// CreateGroupFileFolder creates a folder in a group file area root.
func (c *Client) CreateGroupFileFolder(ctx context.Context, groupID int64, name string) (json.RawMessage, error) {
	params := struct {
		GroupID    int64  `json:"group_id"`
		FolderName string `json:"folder_name"`
	}{groupID, name}
	return callData[json.RawMessage](ctx, c, "create_group_file_folder", params)
}

// DeleteGroupFile removes a file from a group file area.
func (c *Client) DeleteGroupFile(ctx context.Context, groupID int64, fileID string) error {
	params := struct {
		GroupID int64  `json:"group_id"`
		FileID  string `json:"file_id"`
	}{groupID, fileID}
	_, err := c.call(ctx, "delete_group_file", params)
	return err
}

// DeleteGroupFolder removes a folder and its contents.
func (c *Client) DeleteGroupFolder(ctx context.Context, groupID int64, folderID string) error {
	params := struct {
		GroupID  int64  `json:"group_id"`
		FolderID string `json:"folder_id"`
	}{groupID, folderID}
	_, err := c.call(ctx, "delete_group_folder", params)
	return err
}

// MoveGroupFile moves a file between folders of a group file area.
// Directories are addressed by id; "/" is the root.
func (c *Client) MoveGroupFile(ctx context.Context, groupID int64, fileID, fromDir, toDir string) error {
	params := struct {
		GroupID int64  `json:"group_id"`
		FileID  string `json:"file_id"`
		FromDir string `json:"current_parent_directory"`
		ToDir   string `json:"target_parent_directory"`
	}{groupID, fileID, fromDir, toDir}
	_, err := c.call(ctx, "move_group_file", params)
	return err
}

// RenameGroupFile renames a file in place.
func (c *Client) RenameGroupFile(ctx context.Context, groupID int64, fileID, parentDir, newName string) error {
	params := struct {
		GroupID   int64  `json:"group_id"`
		FileID    string `json:"file_id"`
		ParentDir string `json:"current_parent_directory"`
		NewName   string `json:"new_name"`
	}{groupID, fileID, parentDir, newName}
	_, err := c.call(ctx, "rename_group_file", params)
	return err
}

// DownloadFileOptions sends a URL or base64 payload to the upstream's
// cache directory. Headers use "Key=Value" form.
type DownloadFileOptions struct {
	URL       string
	Base64    string
	Name      string
	Headers   []string
	ThreadCnt int
}

// DownloadFile asks the upstream host to download a file into its own
// cache and returns the resulting path.
func (c *Client) DownloadFile(ctx context.Context, opts DownloadFileOptions) (json.RawMessage, error) {
	params := struct {
		URL       string   `json:"url,omitempty"`
		Base64    string   `json:"base64,omitempty"`
		Name      string   `json:"name,omitempty"`
		Headers   []string `json:"headers,omitempty"`
		ThreadCnt int      `json:"thread_cnt,omitempty"`
	}{opts.URL, opts.Base64, opts.Name, opts.Headers, opts.ThreadCnt}
	return callData[json.RawMessage](ctx, c, "download_file", params)
}

// TransGroupFile converts a temporary group file into a permanent one.
func (c *Client) TransGroupFile(ctx context.Context, groupID int64, fileID string) error {
	params := struct {
		GroupID int64  `json:"group_id"`
		FileID  string `json:"file_id"`
	}{groupID, fileID}
	_, err := c.call(ctx, "trans_group_file", params)
	return err
}

// CleanCache empties the upstream host's download cache.
func (c *Client) CleanCache(ctx context.Context) error {
	_, err := c.call(ctx, "clean_cache", nil)
	return err
}
