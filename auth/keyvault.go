package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// keyVaultAPI is the subset of the Key Vault secrets client this backend
// uses, kept narrow so tests can fake it.
type keyVaultAPI interface {
	GetSecret(ctx context.Context, name string, version string,
		options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters,
		options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
	DeleteSecret(ctx context.Context, name string,
		options *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error)
}

// KeyVaultBackend stores the token as a secret in Azure Key Vault.
type KeyVaultBackend struct {
	client     keyVaultAPI
	secretName string
}

// NewKeyVaultBackend creates a backend authenticating with the default Azure
// credential chain (environment, workload identity, managed identity, CLI).
func NewKeyVaultBackend(vaultURL, secretName string) (*KeyVaultBackend, error) {
	if vaultURL == "" || secretName == "" {
		return nil, fmt.Errorf("auth: vault url and secret name are required")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(vaultURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create key vault client: %w", err)
	}

	return &KeyVaultBackend{client: client, secretName: secretName}, nil
}

// NewKeyVaultBackendWithClient creates a backend with an explicit client,
// mainly for tests and callers with custom credentials.
func NewKeyVaultBackendWithClient(client keyVaultAPI, secretName string) *KeyVaultBackend {
	return &KeyVaultBackend{client: client, secretName: secretName}
}

// Load retrieves and decodes the latest secret version.
func (b *KeyVaultBackend) Load(ctx context.Context) (*Token, error) {
	resp, err := b.client.GetSecret(ctx, b.secretName, "", nil)
	if err != nil {
		if isVaultNotFound(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("get secret %s: %w", b.secretName, err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return nil, ErrNoToken
	}

	var token Token
	if err := json.Unmarshal([]byte(*resp.Value), &token); err != nil {
		return nil, fmt.Errorf("decode secret %s: %w", b.secretName, err)
	}
	return &token, nil
}

// Store writes the token as a new secret version.
func (b *KeyVaultBackend) Store(ctx context.Context, token *Token) error {
	if token == nil {
		return fmt.Errorf("auth: cannot store a nil token")
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	value := string(data)

	if _, err := b.client.SetSecret(ctx, b.secretName,
		azsecrets.SetSecretParameters{Value: &value}, nil); err != nil {
		return fmt.Errorf("set secret %s: %w", b.secretName, err)
	}
	return nil
}

// Delete removes the secret.
func (b *KeyVaultBackend) Delete(ctx context.Context) error {
	if _, err := b.client.DeleteSecret(ctx, b.secretName, nil); err != nil && !isVaultNotFound(err) {
		return fmt.Errorf("delete secret %s: %w", b.secretName, err)
	}
	return nil
}

// Exists reports whether the secret holds a value.
func (b *KeyVaultBackend) Exists(ctx context.Context) (bool, error) {
	_, err := b.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isVaultNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
