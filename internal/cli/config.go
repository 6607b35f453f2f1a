package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/m365"
	"github.com/custodia-labs/m365/auth"
	"github.com/custodia-labs/m365/protocol"
	"github.com/custodia-labs/m365/rest"
)

// Config is the on-disk CLI configuration.
type Config struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret,omitempty"`
	TenantID     string   `toml:"tenant_id,omitempty"`
	Flow         string   `toml:"flow,omitempty"`
	Scopes       []string `toml:"scopes,omitempty"`
	Timezone     string   `toml:"timezone,omitempty"`
	TokenFile    string   `toml:"token_file,omitempty"`
}

// DefaultConfigPath returns the config file location, honouring the
// --config flag when set.
func DefaultConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "m365", "config.toml"), nil
}

// LoadConfig reads and parses the config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveConfig writes the config file, creating its directory as needed. The
// file is created user-readable only since it may hold a client secret.
func SaveConfig(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Account builds an SDK account from the configuration.
func (c *Config) Account() (*m365.Account, error) {
	if c.ClientID == "" {
		return nil, fmt.Errorf("no client_id configured, run 'm365 auth login' first")
	}

	tokenFile := c.TokenFile
	if tokenFile == "" {
		path, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		tokenFile = filepath.Join(filepath.Dir(path), auth.DefaultTokenFilename)
	}

	var protoOpts []protocol.Option
	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
		}
		protoOpts = append(protoOpts, protocol.WithTimezone(loc))
	}
	proto := protocol.MSGraph(protoOpts...)

	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = proto.ScopesFor("basic", "mailbox", "calendar", "onedrive")
	} else {
		scopes = proto.ScopesFor(scopes...)
	}

	return m365.NewAccount(rest.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TenantID:     c.TenantID,
		Flow:         rest.Flow(flowOrDefault(c)),
		Scopes:       scopes,
		Backend:      auth.NewFileSystemBackend(tokenFile),
		Logger:       logger(),
	}, m365.WithProtocol(proto))
}

func flowOrDefault(c *Config) string {
	if c.Flow != "" {
		return c.Flow
	}
	if c.ClientSecret == "" {
		return string(rest.FlowPublic)
	}
	return string(rest.FlowAuthorization)
}

// loadAccount loads the config file and builds an account from it.
func loadAccount() (*m365.Account, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Account()
}
