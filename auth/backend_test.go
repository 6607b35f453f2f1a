package auth

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleToken() *Token {
	return &Token{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		TokenType:    "Bearer",
		Scopes:       []string{"User.Read"},
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second).UTC(),
	}
}

// exerciseBackend runs the common Backend contract against an implementation.
func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := backend.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	exists, err := backend.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	token := sampleToken()
	require.NoError(t, backend.Store(ctx, token))

	exists, err = backend.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, loaded.AccessToken)
	assert.Equal(t, token.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, token.Scopes, loaded.Scopes)
	assert.True(t, token.ExpiresAt.Equal(loaded.ExpiresAt))

	require.NoError(t, backend.Delete(ctx))
	// Deleting again is not an error.
	require.NoError(t, backend.Delete(ctx))

	_, err = backend.Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestMemoryBackend_StoreNil(t *testing.T) {
	err := NewMemoryBackend().Store(context.Background(), nil)
	assert.Error(t, err)
}

func TestFileSystemBackend(t *testing.T) {
	dir := t.TempDir()
	exerciseBackend(t, NewFileSystemBackend(filepath.Join(dir, "token.json")))
}

func TestFileSystemBackend_DirectoryPath(t *testing.T) {
	dir := t.TempDir()

	backend := NewFileSystemBackend(dir)

	assert.Equal(t, filepath.Join(dir, DefaultTokenFilename), backend.Path())
}

func TestFileSystemBackend_CreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "token.json")

	backend := NewFileSystemBackend(path)
	require.NoError(t, backend.Store(context.Background(), sampleToken()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileSystemBackend_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileSystemBackend(path).Load(context.Background())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoToken)
}

func TestFileSystemBackend_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	backend := NewFileSystemBackend(path)
	require.NoError(t, backend.Store(context.Background(), sampleToken()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	updates := make(chan *Token, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = backend.Watch(ctx, func(token *Token) {
			select {
			case updates <- token:
			default:
			}
		})
	}()

	// Give the watcher a moment to register, then simulate another process
	// refreshing the token.
	time.Sleep(100 * time.Millisecond)
	refreshed := sampleToken()
	refreshed.AccessToken = "access-refreshed"
	require.NoError(t, backend.Store(context.Background(), refreshed))

	select {
	case token := <-updates:
		assert.Equal(t, "access-refreshed", token.AccessToken)
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch notification")
	}

	cancel()
	<-done
}

func TestEnvBackend(t *testing.T) {
	t.Setenv("M365_TEST_TOKEN", "")
	require.NoError(t, os.Unsetenv("M365_TEST_TOKEN"))

	exerciseBackend(t, NewEnvBackend("M365_TEST_TOKEN"))
}

func TestEnvBackend_DefaultName(t *testing.T) {
	backend := NewEnvBackend("")
	assert.Equal(t, "M365_TOKEN", backend.name)
}

func TestEnvBackend_CorruptValue(t *testing.T) {
	t.Setenv("M365_TEST_TOKEN", "{broken")

	_, err := NewEnvBackend("M365_TEST_TOKEN").Load(context.Background())

	assert.Error(t, err)
}
