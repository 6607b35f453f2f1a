package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/m365/auth"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

func newTestStorage(t *testing.T, handler http.HandlerFunc) *Storage {
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
	return New(conn, proto, "")
}

func TestDefaultDrive(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drive", r.URL.Path)
		io.WriteString(w, `{"id":"d1","driveType":"personal","quota":{"total":1000,"used":250}}`)
	})

	drive, err := storage.DefaultDrive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "d1", drive.ID)
	assert.Equal(t, int64(250), drive.Quota.Used)
}

func TestItemByPathEscapesSegments(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drive/root:/My Documents/report q2.docx:", r.URL.Path)
		io.WriteString(w, `{"id":"i1","name":"report q2.docx","file":{"mimeType":"application/msword"}}`)
	})

	item, err := storage.ItemByPath(context.Background(), "", "My Documents/report q2.docx")
	require.NoError(t, err)

	assert.Equal(t, "i1", item.ID)
	assert.False(t, item.IsFolder())
}

func TestChildrenOfRoot(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drives/d1/root/children", r.URL.Path)
		io.WriteString(w, `{"value":[{"id":"i1","name":"Documents","folder":{"childCount":3}}]}`)
	})

	items, err := storage.Children("d1", "", nil).NextPage(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.True(t, items[0].IsFolder())
	assert.Equal(t, 3, items[0].Folder.ChildCount)
}

func TestDownloadUsesPreSignedURL(t *testing.T) {
	var downloadURL string
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1.0/me/drive/items/i1":
			fmt.Fprintf(w, `{"id":"i1","@microsoft.graph.downloadUrl":"%s/signed/i1"}`, downloadURL)
		case "/signed/i1":
			// Pre-signed URLs must be fetched without credentials.
			assert.Empty(t, r.Header.Get("Authorization"))
			io.WriteString(w, "file body")
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	downloadURL = storage.Protocol.ServiceURL[:len(storage.Protocol.ServiceURL)-len("/v1.0/")]

	body, err := storage.Download(context.Background(), "", "i1")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(data))
}

func TestDownloadWithoutContent(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":"i1","folder":{}}`)
	})

	_, err := storage.Download(context.Background(), "", "i1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no downloadable content")
}

func TestUpload(t *testing.T) {
	content := []byte("hello world")
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1.0/me/drive/items/parent-1:/notes.txt:/content", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.True(t, bytes.Equal(content, body))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"i2","name":"notes.txt","size":11}`)
	})

	item, err := storage.Upload(context.Background(), "", "parent-1", "notes.txt", content)
	require.NoError(t, err)
	assert.Equal(t, int64(11), item.Size)
}

func TestUploadTooLarge(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversized upload must not reach the service")
	})

	_, err := storage.Upload(context.Background(), "", "", "big.bin", make([]byte, MaxSimpleUploadSize+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload session")
}

func TestCreateFolder(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drive/root/children", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Reports", body["name"])
		assert.Equal(t, map[string]any{}, body["folder"])
		assert.Equal(t, "rename", body["@microsoft.graph.conflictBehavior"])
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"i3","name":"Reports","folder":{}}`)
	})

	item, err := storage.CreateFolder(context.Background(), "", "", "Reports")
	require.NoError(t, err)
	assert.True(t, item.IsFolder())
}

func TestMove(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		parent := body["parentReference"].(map[string]any)
		assert.Equal(t, "folder-2", parent["id"])
		assert.Equal(t, "renamed.txt", body["name"])
		io.WriteString(w, `{"id":"i1","name":"renamed.txt"}`)
	})

	item, err := storage.Move(context.Background(), "", "i1", "folder-2", "renamed.txt")
	require.NoError(t, err)
	assert.Equal(t, "renamed.txt", item.Name)
}

func TestSearch(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drive/root/search(q='budget')", r.URL.Path)
		io.WriteString(w, `{"value":[{"id":"i4","name":"budget.xlsx"}]}`)
	})

	items, err := storage.Search("", "budget", nil).NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestSearchEscapesQuotes(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drive/root/search(q='O''Brien')", r.URL.Path)
		io.WriteString(w, `{"value":[]}`)
	})

	_, err := storage.Search("", "O'Brien", nil).NextPage(context.Background())
	require.NoError(t, err)
}

func TestRecent(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drive/recent", r.URL.Path)
		io.WriteString(w, `{"value":[{"id":"i5","name":"minutes.docx"}]}`)
	})

	items, err := storage.Recent("", nil).NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "minutes.docx", items[0].Name)
}

func TestSharedWithMe(t *testing.T) {
	storage := newTestStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1.0/me/drives/d1/sharedWithMe", r.URL.Path)
		io.WriteString(w, `{"value":[{"id":"i6","name":"roadmap.pptx"}]}`)
	})

	items, err := storage.SharedWithMe("d1", nil).NextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "roadmap.pptx", items[0].Name)
}
