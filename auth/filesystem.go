package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DefaultTokenFilename is used when only a directory is given.
const DefaultTokenFilename = "m365_token.json"

// FileSystemBackend stores the token as a JSON file on disk.
type FileSystemBackend struct {
	path string
	mu   sync.Mutex
}

// NewFileSystemBackend creates a backend storing the token at path. If path
// is an existing directory (or empty), DefaultTokenFilename inside it is
// used.
func NewFileSystemBackend(path string) *FileSystemBackend {
	if path == "" {
		path = DefaultTokenFilename
	} else if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultTokenFilename)
	}
	return &FileSystemBackend{path: path}
}

// Path returns the token file location.
func (b *FileSystemBackend) Path() string {
	return b.path
}

// Load reads the token file.
func (b *FileSystemBackend) Load(_ context.Context) (*Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read()
}

func (b *FileSystemBackend) read() (*Token, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("decode token file: %w", err)
	}
	return &token, nil
}

// Store writes the token file with 0600 permissions, creating parent
// directories as needed.
func (b *FileSystemBackend) Store(_ context.Context, token *Token) error {
	if token == nil {
		return fmt.Errorf("auth: cannot store a nil token")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	if err := os.WriteFile(b.path, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Delete removes the token file.
func (b *FileSystemBackend) Delete(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete token file: %w", err)
	}
	return nil
}

// Exists reports whether the token file exists.
func (b *FileSystemBackend) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(b.path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat token file: %w", err)
}

// Watch invokes fn with the freshly loaded token each time the file is
// rewritten on disk, typically by another process refreshing the shared
// token. It blocks until ctx is cancelled.
func (b *FileSystemBackend) Watch(ctx context.Context, fn func(*Token)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic writers replace the file,
	// which would invalidate a watch on the file itself.
	dir := filepath.Dir(b.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(b.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			b.mu.Lock()
			token, err := b.read()
			b.mu.Unlock()
			if err == nil {
				fn(token)
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
