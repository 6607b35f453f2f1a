package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/m365/auth"
	"github.com/custodia-labs/m365/mail"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

func newTestMailbox(t *testing.T, handler http.HandlerFunc) *mail.Mailbox {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := auth.NewMemoryBackend()
	require.NoError(t, backend.Store(context.Background(), &auth.Token{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().Add(time.Hour),
	}))

	conn, err := rest.NewConnection(rest.Config{
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		Backend:        backend,
		RequestSpacing: time.Millisecond,
	})
	require.NoError(t, err)

	proto := protocol.MSGraph(protocol.WithServiceBase(server.URL))
	return mail.New(conn, proto, "")
}

func TestResolveFolderWellKnownName(t *testing.T) {
	mailbox := newTestMailbox(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("well-known names must not trigger a lookup")
	})

	folder, err := resolveFolder(context.Background(), mailbox, "SentItems")
	require.NoError(t, err)
	assert.Equal(t, "sentitems", folder)
}

func TestResolveFolderDisplayName(t *testing.T) {
	mailbox := newTestMailbox(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/mailFolders", r.URL.Path)
		assert.Equal(t, "displayName eq 'Receipts'", r.URL.Query().Get("$filter"))
		io.WriteString(w, `{"value":[{"id":"folder-42","displayName":"Receipts"}]}`)
	})

	folder, err := resolveFolder(context.Background(), mailbox, "Receipts")
	require.NoError(t, err)
	assert.Equal(t, "folder-42", folder)
}

func TestResolveFolderFallsBackToID(t *testing.T) {
	mailbox := newTestMailbox(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"value":[]}`)
	})

	folder, err := resolveFolder(context.Background(), mailbox, "AAMkAGZjOTZiNzUx")
	require.NoError(t, err)
	assert.Equal(t, "AAMkAGZjOTZiNzUx", folder)
}
