package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// EnvBackend stores the token JSON in an environment variable of this
// process. Useful for serverless environments where the token is injected
// at deploy time; stores do not outlive the process.
type EnvBackend struct {
	name string
}

// NewEnvBackend creates a backend reading the token from the named
// environment variable.
func NewEnvBackend(name string) *EnvBackend {
	if name == "" {
		name = "M365_TOKEN"
	}
	return &EnvBackend{name: name}
}

// Load decodes the token from the environment variable.
func (b *EnvBackend) Load(_ context.Context) (*Token, error) {
	raw, ok := os.LookupEnv(b.name)
	if !ok || raw == "" {
		return nil, ErrNoToken
	}

	var token Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("decode token from %s: %w", b.name, err)
	}
	return &token, nil
}

// Store writes the token into the environment variable.
func (b *EnvBackend) Store(_ context.Context, token *Token) error {
	if token == nil {
		return fmt.Errorf("auth: cannot store a nil token")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.Setenv(b.name, string(data)); err != nil {
		return fmt.Errorf("set %s: %w", b.name, err)
	}
	return nil
}

// Delete unsets the environment variable.
func (b *EnvBackend) Delete(_ context.Context) error {
	if err := os.Unsetenv(b.name); err != nil {
		return fmt.Errorf("unset %s: %w", b.name, err)
	}
	return nil
}

// Exists reports whether the environment variable is set and non-empty.
func (b *EnvBackend) Exists(_ context.Context) (bool, error) {
	raw, ok := os.LookupEnv(b.name)
	return ok && raw != "", nil
}
