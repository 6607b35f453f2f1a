package drive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/custodia-labs/m365/odata"
)

// MaxSimpleUploadSize is the largest payload accepted by the single-request
// upload endpoint. Larger files need an upload session, which this client
// does not implement.
const MaxSimpleUploadSize = 4 << 20

// Item is a file or folder in a drive.
type Item struct {
	ID                   string         `json:"id,omitempty"`
	Name                 string         `json:"name,omitempty"`
	Size                 int64          `json:"size,omitempty"`
	WebURL               string         `json:"webUrl,omitempty"`
	CreatedDateTime      time.Time      `json:"createdDateTime,omitzero"`
	LastModifiedDateTime time.Time      `json:"lastModifiedDateTime,omitzero"`
	Folder               *FolderFacet   `json:"folder,omitempty"`
	File                 *FileFacet     `json:"file,omitempty"`
	ParentReference      *ItemReference `json:"parentReference,omitempty"`
	DownloadURL          string         `json:"@microsoft.graph.downloadUrl,omitempty"`
}

// IsFolder reports whether the item is a folder.
func (i *Item) IsFolder() bool {
	return i.Folder != nil
}

// FolderFacet marks an item as a folder.
type FolderFacet struct {
	ChildCount int `json:"childCount,omitempty"`
}

// FileFacet marks an item as a file.
type FileFacet struct {
	MimeType string `json:"mimeType,omitempty"`
}

// ItemReference locates an item within a drive.
type ItemReference struct {
	DriveID string `json:"driveId,omitempty"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Root fetches the root folder of a drive.
func (s *Storage) Root(ctx context.Context, driveID string) (*Item, error) {
	var item Item
	if err := s.Conn.Get(ctx, s.driveURL(driveID, "root"), nil, &item); err != nil {
		return nil, fmt.Errorf("get drive root: %w", err)
	}
	return &item, nil
}

// Item fetches an item by ID.
func (s *Storage) Item(ctx context.Context, driveID, itemID string) (*Item, error) {
	var item Item
	if err := s.Conn.Get(ctx, s.driveURL(driveID, "items/"+itemID), nil, &item); err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return &item, nil
}

// ItemByPath fetches an item by its path from the drive root,
// e.g. "Documents/report.docx".
func (s *Storage) ItemByPath(ctx context.Context, driveID, path string) (*Item, error) {
	endpoint := fmt.Sprintf("root:/%s:", escapePath(path))

	var item Item
	if err := s.Conn.Get(ctx, s.driveURL(driveID, endpoint), nil, &item); err != nil {
		return nil, fmt.Errorf("get item at %q: %w", path, err)
	}
	return &item, nil
}

// Children pages the children of an item. An empty itemID lists the root.
func (s *Storage) Children(driveID, itemID string, query *odata.Query) *odata.Pager[Item] {
	endpoint := "root/children"
	if itemID != "" {
		endpoint = fmt.Sprintf("items/%s/children", itemID)
	}
	return odata.NewPager[Item](s.Conn, s.driveURL(driveID, endpoint), queryParams(query))
}

// Search pages the items matching a free text query under the drive root.
func (s *Storage) Search(driveID, text string, query *odata.Query) *odata.Pager[Item] {
	endpoint := fmt.Sprintf("root/search(q='%s')", strings.ReplaceAll(text, "'", "''"))
	return odata.NewPager[Item](s.Conn, s.driveURL(driveID, endpoint), queryParams(query))
}

// Recent pages the items recently used by the signed-in user, across the
// drive and shared items.
func (s *Storage) Recent(driveID string, query *odata.Query) *odata.Pager[Item] {
	return odata.NewPager[Item](s.Conn, s.driveURL(driveID, "recent"), queryParams(query))
}

// SharedWithMe pages the items other users have shared with the signed-in
// user.
func (s *Storage) SharedWithMe(driveID string, query *odata.Query) *odata.Pager[Item] {
	return odata.NewPager[Item](s.Conn, s.driveURL(driveID, "sharedWithMe"), queryParams(query))
}

// Download streams an item's content. The pre-signed download URL the
// service hands out rejects Authorization headers, so the fetch happens on
// the naked client. The caller must close the reader.
func (s *Storage) Download(ctx context.Context, driveID, itemID string) (io.ReadCloser, error) {
	item, err := s.Item(ctx, driveID, itemID)
	if err != nil {
		return nil, err
	}
	if item.DownloadURL == "" {
		return nil, fmt.Errorf("item %s has no downloadable content", itemID)
	}
	return s.Conn.Download(ctx, item.DownloadURL)
}

// Upload creates or replaces a file under a parent folder in a single
// request. An empty parentID targets the drive root. Content larger than
// MaxSimpleUploadSize is rejected.
func (s *Storage) Upload(ctx context.Context, driveID, parentID, name string, content []byte) (*Item, error) {
	if len(content) > MaxSimpleUploadSize {
		return nil, fmt.Errorf("upload %q: content exceeds %d bytes, use an upload session", name, MaxSimpleUploadSize)
	}

	endpoint := fmt.Sprintf("root:/%s:/content", escapePath(name))
	if parentID != "" {
		endpoint = fmt.Sprintf("items/%s:/%s:/content", parentID, escapePath(name))
	}

	var item Item
	if err := s.Conn.PutContent(ctx, s.driveURL(driveID, endpoint), "application/octet-stream", content, &item); err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}
	return &item, nil
}

// CreateFolder creates a folder under a parent. An empty parentID creates
// it at the drive root. Name clashes are resolved by renaming.
func (s *Storage) CreateFolder(ctx context.Context, driveID, parentID, name string) (*Item, error) {
	endpoint := "root/children"
	if parentID != "" {
		endpoint = fmt.Sprintf("items/%s/children", parentID)
	}

	body := map[string]any{
		s.CC("name"):                        name,
		s.CC("folder"):                      map[string]any{},
		"@microsoft.graph.conflictBehavior": "rename",
	}

	var item Item
	if err := s.Conn.Post(ctx, s.driveURL(driveID, endpoint), body, &item); err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	return &item, nil
}

// Move moves an item to a new parent folder, optionally renaming it.
func (s *Storage) Move(ctx context.Context, driveID, itemID, newParentID, newName string) (*Item, error) {
	body := map[string]any{
		s.CC("parentReference"): ItemReference{ID: newParentID},
	}
	if newName != "" {
		body[s.CC("name")] = newName
	}

	var item Item
	if err := s.Conn.Patch(ctx, s.driveURL(driveID, "items/"+itemID), body, &item); err != nil {
		return nil, fmt.Errorf("move item %s: %w", itemID, err)
	}
	return &item, nil
}

// Copy starts a server-side copy of an item into a new parent folder. The
// copy happens asynchronously on the service.
func (s *Storage) Copy(ctx context.Context, driveID, itemID, newParentID, newName string) error {
	body := map[string]any{
		s.CC("parentReference"): ItemReference{ID: newParentID},
	}
	if newName != "" {
		body[s.CC("name")] = newName
	}

	endpoint := fmt.Sprintf("items/%s/copy", itemID)
	if err := s.Conn.Post(ctx, s.driveURL(driveID, endpoint), body, nil); err != nil {
		return fmt.Errorf("copy item %s: %w", itemID, err)
	}
	return nil
}

// DeleteItem deletes a file or folder.
func (s *Storage) DeleteItem(ctx context.Context, driveID, itemID string) error {
	if err := s.Conn.Delete(ctx, s.driveURL(driveID, "items/"+itemID)); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return nil
}
