package component

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/m365/protocol"
)

func TestNormalizeResource(t *testing.T) {
	proto := protocol.MSGraph()

	tests := []struct {
		name     string
		resource string
		want     string
	}{
		{name: "empty uses default", resource: "", want: "me"},
		{name: "me passes through", resource: "me", want: "me"},
		{name: "email becomes user resource", resource: "ada@example.com", want: "users/ada@example.com"},
		{name: "already prefixed email", resource: "users/ada@example.com", want: "users/ada@example.com"},
		{name: "surrounding slashes trimmed", resource: "/sites/root/", want: "sites/root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeResource(proto, tt.resource))
		})
	}
}

func TestBuildURL(t *testing.T) {
	proto := protocol.MSGraph()

	tests := []struct {
		name     string
		resource string
		endpoint string
		want     string
	}{
		{
			name:     "default resource",
			endpoint: "messages",
			want:     "https://graph.microsoft.com/v1.0/me/messages",
		},
		{
			name:     "leading slash trimmed",
			endpoint: "/messages",
			want:     "https://graph.microsoft.com/v1.0/me/messages",
		},
		{
			name:     "user resource",
			resource: "ada@example.com",
			endpoint: "mailFolders/inbox",
			want:     "https://graph.microsoft.com/v1.0/users/ada@example.com/mailFolders/inbox",
		},
		{
			name:     "empty endpoint",
			endpoint: "",
			want:     "https://graph.microsoft.com/v1.0/me",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := New(nil, proto, tt.resource)
			assert.Equal(t, tt.want, base.BuildURL(tt.endpoint))
		})
	}
}

func TestCCFollowsDialect(t *testing.T) {
	graph := New(nil, protocol.MSGraph(), "")
	assert.Equal(t, "displayName", graph.CC("displayName"))

	office := New(nil, protocol.MSOffice365(), "")
	assert.Equal(t, "DisplayName", office.CC("displayName"))
}

