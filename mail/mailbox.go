// Package mail is the client for mail folders, messages and attachments.
package mail

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/m365/internal/component"
	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Well-known folder names accepted in place of a folder ID. The service
// resolves them case-insensitively.
const (
	FolderInbox        = "inbox"
	FolderDrafts       = "drafts"
	FolderSentItems    = "sentitems"
	FolderDeletedItems = "deleteditems"
	FolderJunk         = "junkemail"
	FolderArchive      = "archive"
	FolderOutbox       = "outbox"
)

// Folder is a mail folder.
type Folder struct {
	ID               string `json:"id,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
	ParentFolderID   string `json:"parentFolderId,omitempty"`
	ChildFolderCount int    `json:"childFolderCount,omitempty"`
	TotalItemCount   int    `json:"totalItemCount,omitempty"`
	UnreadItemCount  int    `json:"unreadItemCount,omitempty"`
}

// Mailbox is the entry point for mail operations on a user's mailbox.
type Mailbox struct {
	component.Base
}

// New returns a Mailbox for the given resource, e.g. "me" or a user's
// email address.
func New(conn *rest.Connection, proto *protocol.Protocol, resource string) *Mailbox {
	return &Mailbox{Base: component.New(conn, proto, resource)}
}

// Query returns an empty query builder for this mailbox's dialect.
func (m *Mailbox) Query() *odata.Query {
	return odata.NewQuery(m.Protocol)
}

// Folders pages the top-level mail folders. A nil query lists everything.
func (m *Mailbox) Folders(query *odata.Query) *odata.Pager[Folder] {
	return odata.NewPager[Folder](m.Conn, m.BuildURL("mailFolders"), queryParams(query))
}

// ChildFolders pages the folders nested under a folder.
func (m *Mailbox) ChildFolders(folderID string, query *odata.Query) *odata.Pager[Folder] {
	endpoint := fmt.Sprintf("mailFolders/%s/childFolders", folderID)
	return odata.NewPager[Folder](m.Conn, m.BuildURL(endpoint), queryParams(query))
}

// Folder fetches a folder by ID or well-known name.
func (m *Mailbox) Folder(ctx context.Context, folderID string) (*Folder, error) {
	var folder Folder
	if err := m.Conn.Get(ctx, m.BuildURL("mailFolders/"+folderID), nil, &folder); err != nil {
		return nil, fmt.Errorf("get folder %s: %w", folderID, err)
	}
	return &folder, nil
}

// FolderByName finds a direct child of the root by display name.
func (m *Mailbox) FolderByName(ctx context.Context, name string) (*Folder, error) {
	query := m.Query().On("displayName").Equals(name).Top(1)

	page, err := m.Folders(query).NextPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(page) == 0 {
		return nil, fmt.Errorf("find folder %q: %w", name, rest.ErrNotFound)
	}
	return &page[0], nil
}

// CreateFolder creates a folder. With an empty parentID it is created at
// the root, otherwise under the given parent.
func (m *Mailbox) CreateFolder(ctx context.Context, name, parentID string) (*Folder, error) {
	endpoint := "mailFolders"
	if parentID != "" {
		endpoint = fmt.Sprintf("mailFolders/%s/childFolders", parentID)
	}

	body := map[string]string{m.CC("displayName"): name}
	var folder Folder
	if err := m.Conn.Post(ctx, m.BuildURL(endpoint), body, &folder); err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	return &folder, nil
}

// RenameFolder changes a folder's display name.
func (m *Mailbox) RenameFolder(ctx context.Context, folderID, name string) (*Folder, error) {
	body := map[string]string{m.CC("displayName"): name}
	var folder Folder
	if err := m.Conn.Patch(ctx, m.BuildURL("mailFolders/"+folderID), body, &folder); err != nil {
		return nil, fmt.Errorf("rename folder %s: %w", folderID, err)
	}
	return &folder, nil
}

// MoveFolder moves a folder under a new parent.
func (m *Mailbox) MoveFolder(ctx context.Context, folderID, destinationID string) (*Folder, error) {
	return m.folderAction(ctx, folderID, "move", destinationID)
}

// CopyFolder copies a folder and its contents under a new parent.
func (m *Mailbox) CopyFolder(ctx context.Context, folderID, destinationID string) (*Folder, error) {
	return m.folderAction(ctx, folderID, "copy", destinationID)
}

func (m *Mailbox) folderAction(ctx context.Context, folderID, action, destinationID string) (*Folder, error) {
	endpoint := fmt.Sprintf("mailFolders/%s/%s", folderID, action)
	body := map[string]string{m.CC("destinationId"): destinationID}

	var folder Folder
	if err := m.Conn.Post(ctx, m.BuildURL(endpoint), body, &folder); err != nil {
		return nil, fmt.Errorf("%s folder %s: %w", action, folderID, err)
	}
	return &folder, nil
}

// DeleteFolder deletes a folder and everything in it.
func (m *Mailbox) DeleteFolder(ctx context.Context, folderID string) error {
	if err := m.Conn.Delete(ctx, m.BuildURL("mailFolders/"+folderID)); err != nil {
		return fmt.Errorf("delete folder %s: %w", folderID, err)
	}
	return nil
}

func queryParams(query *odata.Query) url.Values {
	if query == nil {
		return nil
	}
	return query.Values()
}
