// Package directory is the client for user and organization lookups.
package directory

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/m365/internal/component"
	"github.com/custodia-labs/m365/odata"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// User is a directory user.
type User struct {
	ID                string   `json:"id,omitempty"`
	DisplayName       string   `json:"displayName,omitempty"`
	GivenName         string   `json:"givenName,omitempty"`
	Surname           string   `json:"surname,omitempty"`
	Mail              string   `json:"mail,omitempty"`
	UserPrincipalName string   `json:"userPrincipalName,omitempty"`
	JobTitle          string   `json:"jobTitle,omitempty"`
	OfficeLocation    string   `json:"officeLocation,omitempty"`
	MobilePhone       string   `json:"mobilePhone,omitempty"`
	BusinessPhones    []string `json:"businessPhones,omitempty"`
	PreferredLanguage string   `json:"preferredLanguage,omitempty"`
}

// Directory queries the users collection of the tenant.
type Directory struct {
	component.Base
}

// New returns a Directory client.
func New(conn *rest.Connection, proto *protocol.Protocol) *Directory {
	return &Directory{Base: component.New(conn, proto, protocol.UsersResource)}
}

// Query returns an empty query builder for this directory's dialect.
func (d *Directory) Query() *odata.Query {
	return odata.NewQuery(d.Protocol)
}

// Me fetches the signed-in user.
func (d *Directory) Me(ctx context.Context) (*User, error) {
	var user User
	if err := d.Conn.Get(ctx, d.Protocol.ServiceURL+protocol.MeResource, nil, &user); err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return &user, nil
}

// Users pages the tenant's users.
func (d *Directory) Users(query *odata.Query) *odata.Pager[User] {
	var params url.Values
	if query != nil {
		params = query.Values()
	}
	return odata.NewPager[User](d.Conn, d.BuildURL(""), params)
}

// User fetches a user by object ID or user principal name.
func (d *Directory) User(ctx context.Context, idOrPrincipal string) (*User, error) {
	var user User
	if err := d.Conn.Get(ctx, d.BuildURL(idOrPrincipal), nil, &user); err != nil {
		return nil, fmt.Errorf("get user %s: %w", idOrPrincipal, err)
	}
	return &user, nil
}
