package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestToken_Expired(t *testing.T) {
	tests := []struct {
		name  string
		token *Token
		want  bool
	}{
		{
			name:  "nil token",
			token: nil,
			want:  true,
		},
		{
			name:  "no access token",
			token: &Token{ExpiresAt: time.Now().Add(time.Hour)},
			want:  true,
		},
		{
			name:  "no expiry",
			token: &Token{AccessToken: "abc"},
			want:  true,
		},
		{
			name:  "valid for an hour",
			token: &Token{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Hour)},
			want:  false,
		},
		{
			name:  "inside refresh threshold",
			token: &Token{AccessToken: "abc", ExpiresAt: time.Now().Add(time.Minute)},
			want:  true,
		},
		{
			name:  "already expired",
			token: &Token{AccessToken: "abc", ExpiresAt: time.Now().Add(-time.Hour)},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.token.Expired())
		})
	}
}

func TestToken_IsLongLived(t *testing.T) {
	assert.False(t, (*Token)(nil).IsLongLived())
	assert.False(t, (&Token{AccessToken: "abc"}).IsLongLived())
	assert.True(t, (&Token{AccessToken: "abc", RefreshToken: "ref"}).IsLongLived())
}

func TestToken_Clone(t *testing.T) {
	original := &Token{
		AccessToken:  "abc",
		RefreshToken: "ref",
		Scopes:       []string{"User.Read"},
	}

	clone := original.Clone()
	clone.Scopes[0] = "changed"

	assert.Equal(t, "User.Read", original.Scopes[0])
	assert.Nil(t, (*Token)(nil).Clone())
}

func TestFromOAuth2_RoundTrip(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	src := (&oauth2.Token{
		AccessToken:  "abc",
		RefreshToken: "ref",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}).WithExtra(map[string]any{"scope": "User.Read Mail.Read"})

	token := FromOAuth2(src)

	require.NotNil(t, token)
	assert.Equal(t, "abc", token.AccessToken)
	assert.Equal(t, "ref", token.RefreshToken)
	assert.Equal(t, []string{"User.Read", "Mail.Read"}, token.Scopes)
	assert.Equal(t, expiry, token.ExpiresAt)

	back := token.OAuth2()
	assert.Equal(t, "abc", back.AccessToken)
	assert.Equal(t, expiry, back.Expiry)
}

func TestFromOAuth2_Nil(t *testing.T) {
	assert.Nil(t, FromOAuth2(nil))
	assert.Nil(t, (*Token)(nil).OAuth2())
}
