// Package gdrive implements the drive workspace client against the Google
// Drive v3 API.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/vlasover/drive-events-bot/pkg/logger/types"
)

type Client struct {
	service      *drive.Service
	rootFolderID string
	logger       *types.Logger
}

type Options struct {
	CredentialsFile string
	RootFolderID    string
	Logger          *types.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(opts.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{
		service:      service,
		rootFolderID: opts.RootFolderID,
		logger:       opts.Logger,
	}, nil
}

// FolderExists reports whether a folder with the exact name already exists
// under the workspace root.
func (c *Client) FolderExists(ctx context.Context, name string) (bool, error) {
	query := fmt.Sprintf(
		"mimeType = 'application/vnd.google-apps.folder' and name = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), c.rootFolderID,
	)

	list, err := c.service.Files.List().
		Context(ctx).
		Q(query).
		Fields("files(id)").
		PageSize(1).
		Do()
	if err != nil {
		return false, fmt.Errorf("failed to query folders: %w", err)
	}

	return len(list.Files) > 0, nil
}

// CreateFolder creates a folder under the workspace root.
func (c *Client) CreateFolder(ctx context.Context, name string) (id string, err error) {
	folder, err := c.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.folder",
		Parents:  []string{c.rootFolderID},
	}).Context(ctx).Fields("id").Do()
	if err != nil {
		return "", fmt.Errorf("failed to create folder %q: %w", name, err)
	}

	c.logger.Infof("created drive folder %q (id: %s)", name, folder.Id)
	return folder.Id, nil
}

// SetPublicWriter opens the folder for link-holders to add files and
// returns the share link.
func (c *Client) SetPublicWriter(ctx context.Context, folderID string) (url string, err error) {
	_, err = c.service.Permissions.Create(folderID, &drive.Permission{
		Type: "anyone",
		Role: "writer",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to set folder permissions: %w", err)
	}

	folder, err := c.service.Files.Get(folderID).
		Context(ctx).
		Fields("webViewLink").
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to get folder link: %w", err)
	}

	return folder.WebViewLink, nil
}

// Upload streams a file into a folder and returns its id and view link.
func (c *Client) Upload(ctx context.Context, content io.Reader, name string, folderID string) (id, url string, err error) {
	file, err := c.service.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{folderID},
	}).
		Context(ctx).
		Media(content).
		Fields("id, webViewLink").
		Do()
	if err != nil {
		return "", "", fmt.Errorf("failed to upload %q: %w", name, err)
	}

	c.logger.Infof("uploaded %q to folder %s (id: %s)", name, folderID, file.Id)
	return file.Id, file.WebViewLink, nil
}

// escapeQuery escapes single quotes for drive query strings.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
