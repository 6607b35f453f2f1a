// Package component provides the shared plumbing for resource clients:
// endpoint URL construction and keyword casing.
package component

import (
	"strings"

	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Base is embedded by every resource client. It binds a connection, a
// protocol dialect and the main resource the client operates on.
type Base struct {
	Conn     *rest.Connection
	Protocol *protocol.Protocol

	resource string
}

// New returns a Base rooted at the given resource. An empty resource uses
// the protocol's default. A bare email address or UPN is interpreted as a
// user resource, so "name@example.com" becomes "users/name@example.com".
func New(conn *rest.Connection, proto *protocol.Protocol, resource string) Base {
	return Base{
		Conn:     conn,
		Protocol: proto,
		resource: NormalizeResource(proto, resource),
	}
}

// NormalizeResource cleans a main resource path.
func NormalizeResource(proto *protocol.Protocol, resource string) string {
	if resource == "" {
		resource = proto.DefaultResource
	}
	resource = strings.Trim(resource, "/")

	if strings.Contains(resource, "@") && !strings.HasPrefix(resource, protocol.UsersResource+"/") {
		resource = protocol.UsersResource + "/" + resource
	}
	return resource
}

// Resource returns the main resource this component operates on.
func (b Base) Resource() string {
	return b.resource
}

// BuildURL joins the service URL, the main resource and an endpoint path
// into a full request URL.
func (b Base) BuildURL(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	if b.resource == "" {
		return b.Protocol.ServiceURL + endpoint
	}
	if endpoint == "" {
		return b.Protocol.ServiceURL + b.resource
	}
	return b.Protocol.ServiceURL + b.resource + "/" + endpoint
}

// CC converts a keyword into the dialect's casing convention.
func (b Base) CC(keyword string) string {
	return b.Protocol.ConvertCase(keyword)
}
