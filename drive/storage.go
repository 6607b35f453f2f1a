// Package drive is the client for OneDrive and SharePoint document storage.
package drive

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/m365/internal/component"
	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Drive is a document library.
type Drive struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	DriveType string `json:"driveType,omitempty"`
	WebURL    string `json:"webUrl,omitempty"`
	Quota     *Quota `json:"quota,omitempty"`
}

// Quota is a drive's storage quota.
type Quota struct {
	Total     int64  `json:"total,omitempty"`
	Used      int64  `json:"used,omitempty"`
	Remaining int64  `json:"remaining,omitempty"`
	State     string `json:"state,omitempty"`
}

// Storage is the entry point for drive operations on a resource.
type Storage struct {
	component.Base
}

// New returns a Storage for the given resource, e.g. "me", a user's email
// address or "sites/{site-id}".
func New(conn *rest.Connection, proto *protocol.Protocol, resource string) *Storage {
	return &Storage{Base: component.New(conn, proto, resource)}
}

// Query returns an empty query builder for this storage's dialect.
func (s *Storage) Query() *odata.Query {
	return odata.NewQuery(s.Protocol)
}

// Drives pages the drives available to the resource.
func (s *Storage) Drives(query *odata.Query) *odata.Pager[Drive] {
	return odata.NewPager[Drive](s.Conn, s.BuildURL("drives"), queryParams(query))
}

// DefaultDrive fetches the resource's default drive.
func (s *Storage) DefaultDrive(ctx context.Context) (*Drive, error) {
	var drive Drive
	if err := s.Conn.Get(ctx, s.BuildURL("drive"), nil, &drive); err != nil {
		return nil, fmt.Errorf("get default drive: %w", err)
	}
	return &drive, nil
}

// Drive fetches a drive by ID.
func (s *Storage) Drive(ctx context.Context, driveID string) (*Drive, error) {
	var drive Drive
	if err := s.Conn.Get(ctx, s.BuildURL("drives/"+driveID), nil, &drive); err != nil {
		return nil, fmt.Errorf("get drive %s: %w", driveID, err)
	}
	return &drive, nil
}

// driveURL builds an endpoint URL under a drive. An empty driveID targets
// the default drive.
func (s *Storage) driveURL(driveID, endpoint string) string {
	base := "drive"
	if driveID != "" {
		base = "drives/" + driveID
	}
	if endpoint == "" {
		return s.BuildURL(base)
	}
	return s.BuildURL(base + "/" + endpoint)
}

// escapePath escapes each segment of a drive path for the root:/path:
// addressing syntax.
func escapePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func queryParams(query *odata.Query) url.Values {
	if query == nil {
		return nil
	}
	return query.Values()
}
