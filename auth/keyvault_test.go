package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/stretchr/testify/assert"
)

// fakeKeyVault keeps secrets in a map and returns 404 response errors for
// missing names like the real service.
type fakeKeyVault struct {
	secrets map[string]string
}

func newFakeKeyVault() *fakeKeyVault {
	return &fakeKeyVault{secrets: make(map[string]string)}
}

func (f *fakeKeyVault) GetSecret(_ context.Context, name, _ string,
	_ *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	value, ok := f.secrets[name]
	if !ok {
		return azsecrets.GetSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	return azsecrets.GetSecretResponse{Secret: azsecrets.Secret{Value: &value}}, nil
}

func (f *fakeKeyVault) SetSecret(_ context.Context, name string, parameters azsecrets.SetSecretParameters,
	_ *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	if parameters.Value != nil {
		f.secrets[name] = *parameters.Value
	}
	return azsecrets.SetSecretResponse{}, nil
}

func (f *fakeKeyVault) DeleteSecret(_ context.Context, name string,
	_ *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error) {
	if _, ok := f.secrets[name]; !ok {
		return azsecrets.DeleteSecretResponse{}, &azcore.ResponseError{StatusCode: http.StatusNotFound}
	}
	delete(f.secrets, name)
	return azsecrets.DeleteSecretResponse{}, nil
}

func TestKeyVaultBackend(t *testing.T) {
	backend := NewKeyVaultBackendWithClient(newFakeKeyVault(), "m365-token")

	exerciseBackend(t, backend)
}

func TestNewKeyVaultBackend_RequiresArgs(t *testing.T) {
	_, err := NewKeyVaultBackend("", "name")
	assert.Error(t, err)

	_, err = NewKeyVaultBackend("https://vault.example.net", "")
	assert.Error(t, err)
}
